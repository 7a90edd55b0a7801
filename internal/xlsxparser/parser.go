// =============================================================================
// E-Bilanz Converter - XLSX Tag Table Module
// =============================================================================
//
// This module reads and writes tag tables as XLSX workbooks. Accountants keep
// E-Bilanz values in spreadsheets next to their own notes, so the reader does
// not expect the table at a fixed position. It looks for the two header cells
// and reads the columns below them:
//
//   |   | A                 | B                                 | C               |
//   |---|-------------------|-----------------------------------|-----------------|
//   | 1 | Jahresabschluss   |                                   |                 |
//   | 2 |                   | ebilanz_key                       | ebilanz_value   |
//   | 3 | Empfänger         | Empfaenger                        | 9198            |
//   | 4 | Ort               | de-gcd:genInfo.report.audit.city  | Berlin          |
//   | 5 | Bilanzsumme       | de-gaap-ci:bs.ass                 | 1000.00         |
//
// HEADER SEARCH:
//   - Every sheet is searched (or only the configured one).
//   - Both headers must be on the same row.
//   - Only the first max_rows rows are searched and read.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ebilanz-converter/internal/config"
	"github.com/ginjaninja78/ebilanz-converter/internal/types"
)

// DefaultSheetName is the sheet written by WriteTags.
const DefaultSheetName = "E-Bilanz"

var (
	// ErrMissingColumn is returned when a header cell cannot be found.
	ErrMissingColumn = errors.New("missing column")

	// ErrHeaderRowMismatch is returned when the headers are on different rows.
	ErrHeaderRowMismatch = errors.New("header cells are on different rows")
)

// headerPosition is the location of the two header cells on a sheet.
// Indices are zero-based.
type headerPosition struct {
	row         int
	keyColumn   int
	valueColumn int
}

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// ReadTagsFile reads a tag table from an XLSX file.
func ReadTagsFile(filePath string, settings config.SpreadsheetSettings) ([]types.Tag, error) {
	// Open the workbook.
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readWorkbook(f, settings)
}

// ReadTags reads a tag table from XLSX data.
func ReadTags(r io.Reader, settings config.SpreadsheetSettings) ([]types.Tag, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readWorkbook(f, settings)
}

// readWorkbook reads the tag tables of all searched sheets.
//
// RETURNS:
//   - The tags of every sheet with a header row, in sheet and row order.
//   - An error if no sheet has both headers, or a sheet has them on
//     different rows.
func readWorkbook(f *excelize.File, settings config.SpreadsheetSettings) ([]types.Tag, error) {
	sheets := f.GetSheetList()
	if settings.Sheet != "" {
		if index, err := f.GetSheetIndex(settings.Sheet); err != nil || index < 0 {
			return nil, fmt.Errorf("sheet %q not found", settings.Sheet)
		}
		sheets = []string{settings.Sheet}
	}

	var records []types.Tag
	var lastErr error
	found := false

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if settings.MaxRows > 0 && len(rows) > settings.MaxRows {
			rows = rows[:settings.MaxRows]
		}

		position, err := findHeaders(rows, settings)
		if errors.Is(err, ErrHeaderRowMismatch) {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		if err != nil {
			lastErr = fmt.Errorf("sheet %s: %w", sheet, err)
			continue
		}

		found = true
		records = append(records, readRows(rows, position)...)
	}

	if !found {
		if lastErr == nil {
			lastErr = fmt.Errorf("%w `%s` and `%s`", ErrMissingColumn, settings.KeyHeader, settings.ValueHeader)
		}
		return nil, lastErr
	}

	return records, nil
}

// findHeaders locates the key and value header cells on a sheet.
// The last matching cell wins when a header occurs more than once.
func findHeaders(rows [][]string, settings config.SpreadsheetSettings) (headerPosition, error) {
	keyRow, keyColumn := -1, -1
	valueRow, valueColumn := -1, -1

	for i, row := range rows {
		for j, value := range row {
			switch strings.TrimSpace(value) {
			case settings.KeyHeader:
				keyRow, keyColumn = i, j
			case settings.ValueHeader:
				valueRow, valueColumn = i, j
			}
		}
	}

	switch {
	case keyRow < 0 && valueRow < 0:
		return headerPosition{}, fmt.Errorf("%w `%s` and `%s`", ErrMissingColumn, settings.KeyHeader, settings.ValueHeader)
	case keyRow < 0:
		return headerPosition{}, fmt.Errorf("%w `%s`", ErrMissingColumn, settings.KeyHeader)
	case valueRow < 0:
		return headerPosition{}, fmt.Errorf("%w `%s`", ErrMissingColumn, settings.ValueHeader)
	case keyRow != valueRow:
		return headerPosition{}, fmt.Errorf("%w: `%s` on row %d, `%s` on row %d",
			ErrHeaderRowMismatch, settings.KeyHeader, keyRow+1, settings.ValueHeader, valueRow+1)
	}

	return headerPosition{row: keyRow, keyColumn: keyColumn, valueColumn: valueColumn}, nil
}

// readRows reads the tag rows below the header row. Rows without a key are skipped.
func readRows(rows [][]string, position headerPosition) []types.Tag {
	var records []types.Tag

	for _, row := range rows[position.row+1:] {
		key := cellValue(row, position.keyColumn)
		if key == "" {
			continue
		}

		record := types.Tag{Name: key}
		if value := cellValue(row, position.valueColumn); value != "" {
			record.Value = &value
		}
		records = append(records, record)
	}

	return records
}

// cellValue returns the trimmed cell value, or "" for short rows.
func cellValue(row []string, column int) string {
	if column >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[column])
}

// =============================================================================
// WRITER FUNCTIONS
// =============================================================================

// WriteTagsFile writes a tag table to a new XLSX file.
func WriteTagsFile(filePath string, records []types.Tag, settings config.SpreadsheetSettings) error {
	f, err := buildWorkbook(records, settings)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteTags writes a tag table as XLSX data.
func WriteTags(w io.Writer, records []types.Tag, settings config.SpreadsheetSettings) error {
	f, err := buildWorkbook(records, settings)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// buildWorkbook creates a single-sheet workbook with a header row in row 1.
func buildWorkbook(records []types.Tag, settings config.SpreadsheetSettings) (*excelize.File, error) {
	keyHeader := settings.KeyHeader
	if keyHeader == "" {
		keyHeader = config.DefaultKeyColumn
	}
	valueHeader := settings.ValueHeader
	if valueHeader == "" {
		valueHeader = config.DefaultValueColumn
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, DefaultSheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{keyHeader, valueHeader})
	for _, record := range records {
		rows = append(rows, []string{record.Name, record.ValueOrEmpty()})
	}

	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				f.Close()
				return nil, err
			}
			// Values are written as text so "00000" or "2020-12-31" keep their form.
			if err := f.SetCellStr(DefaultSheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	return f, nil
}
