// =============================================================================
// E-Bilanz Converter - CSV Tag Table Module
// =============================================================================
//
// This module reads and writes tag tables as CSV. A tag table has one row per
// fact and two named columns:
//
//   ebilanz_key,ebilanz_value
//   Empfaenger,9198
//   de-gcd:genInfo.report.audit.city,Berlin
//   de-gaap-ci:bs.ass,1000.00
//   de-gcd:genInfo.doc.author,
//
// Column names are configurable. Additional columns are ignored, so tables
// exported from a spreadsheet with comment columns can be used as they are.
//
// READING:
//   - Input is decoded from the configured encoding (golang.org/x/text), and a
//     byte order mark is removed.
//   - Keys and values are trimmed. Empty values become "present without value".
//   - Rows without a key are skipped.
//
// WRITING:
//   - Output is always UTF-8 with the configured delimiter and column names.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/ebilanz-converter/internal/config"
	"github.com/ginjaninja78/ebilanz-converter/internal/types"
)

// Fallback column names accepted when the configured ones are missing.
const (
	fallbackKeyColumn   = "key"
	fallbackValueColumn = "value"
)

// ErrMissingColumn is returned when the header row lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// ReadTagsFile reads a tag table from a CSV file.
func ReadTagsFile(filePath string, settings config.CSVSettings) ([]types.Tag, error) {
	// Open the file.
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadTags(bufio.NewReader(file), settings)
}

// ReadTags reads a tag table from CSV data.
//
// PARAMETERS:
//   - r: The CSV data in the configured encoding.
//   - settings: The CSV settings from the configuration.
//
// RETURNS:
//   - The tags in file order. Duplicate keys are kept; the target table
//     decides what to do with them.
//   - An error if the data cannot be decoded, has no header row, or lacks
//     the key or value column.
func ReadTags(r io.Reader, settings config.CSVSettings) ([]types.Tag, error) {
	decoded, err := decodeInput(r, settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(decoded)
	configureReader(csvReader, settings)

	headers, err := csvReader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	keyIndex, valueIndex, err := resolveColumns(headers, settings)
	if err != nil {
		return nil, err
	}

	var records []types.Tag
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		// Skip empty rows.
		if isRowEmpty(row) {
			continue
		}

		key := cell(row, keyIndex)
		if key == "" {
			continue
		}

		record := types.Tag{Name: key}
		if value := cell(row, valueIndex); value != "" {
			record.Value = &value
		}
		records = append(records, record)
	}

	return records, nil
}

// decodeInput wraps r in a decoder for the named encoding.
func decodeInput(r io.Reader, encodingName string) (io.Reader, error) {
	if encodingName == "" {
		encodingName = "UTF-8"
	}

	enc, err := htmlindex.Get(encodingName)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", encodingName, err)
	}

	// BOMOverride switches to UTF-8 or UTF-16 when the data starts with a BOM.
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	if settings.Delimiter != "" {
		reader.Comma = settings.DelimiterRune()
	}

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Allow lazy quotes (quotes that don't follow strict CSV rules).
	reader.LazyQuotes = true

	// Trim leading space from fields.
	reader.TrimLeadingSpace = true
}

// resolveColumns finds the key and value columns in the header row.
func resolveColumns(headers []string, settings config.CSVSettings) (int, int, error) {
	keyIndex := findColumn(headers, settings.KeyColumn, fallbackKeyColumn)
	valueIndex := findColumn(headers, settings.ValueColumn, fallbackValueColumn)

	var missing []string
	if keyIndex < 0 {
		missing = append(missing, "`"+settings.KeyColumn+"`")
	}
	if valueIndex < 0 {
		missing = append(missing, "`"+settings.ValueColumn+"`")
	}
	if len(missing) > 0 {
		return 0, 0, fmt.Errorf("%w %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	return keyIndex, valueIndex, nil
}

// findColumn returns the index of the first header matching one of the names.
// Names are tried in order and compared case-insensitively.
func findColumn(headers []string, names ...string) int {
	for _, name := range names {
		if name == "" {
			continue
		}
		for i, header := range headers {
			if strings.EqualFold(strings.TrimSpace(header), name) {
				return i
			}
		}
	}
	return -1
}

// cell returns the trimmed value at index, or "" for short rows.
func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// WRITER FUNCTIONS
// =============================================================================

// WriteTagsFile writes a tag table to a CSV file, replacing any existing file.
func WriteTagsFile(filePath string, records []types.Tag, settings config.CSVSettings) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteTags(file, records, settings); err != nil {
		file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// WriteTags writes a tag table as UTF-8 CSV with a header row.
// Tags without a value are written with an empty value cell.
func WriteTags(w io.Writer, records []types.Tag, settings config.CSVSettings) error {
	csvWriter := csv.NewWriter(w)
	if settings.Delimiter != "" {
		csvWriter.Comma = settings.DelimiterRune()
	}

	keyColumn := settings.KeyColumn
	if keyColumn == "" {
		keyColumn = config.DefaultKeyColumn
	}
	valueColumn := settings.ValueColumn
	if valueColumn == "" {
		valueColumn = config.DefaultValueColumn
	}

	if err := csvWriter.Write([]string{keyColumn, valueColumn}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, record := range records {
		if err := csvWriter.Write([]string{record.Name, record.ValueOrEmpty()}); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", record.Name, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
