package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/ebilanz-converter/internal/csvparser"
	"github.com/ginjaninja78/ebilanz-converter/internal/extractor"
	"github.com/ginjaninja78/ebilanz-converter/internal/types"
	"github.com/ginjaninja78/ebilanz-converter/internal/xlsxparser"
	"github.com/ginjaninja78/ebilanz-converter/internal/xmlevent"
	"github.com/ginjaninja78/ebilanz-converter/pkg/utils"
)

// ExtractOptions controls a single extract run.
type ExtractOptions struct {
	// Output is a file or directory. Empty writes next to the input.
	Output string

	// Format is the table format of the output.
	Format Format

	// Archive stores the records as a snapshot.
	Archive bool
}

// ExtractTags reads all (tag, value) records from an XBRL document.
//
// RETURNS:
//   - The records in document order.
//   - An error if the document cannot be read. When the error wraps
//     extractor.ErrTruncated the records read before the failure are
//     returned with it.
func (c *Converter) ExtractTags(r io.Reader) ([]types.Tag, error) {
	reader, err := xmlevent.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return extractor.Extract(reader, c.logger)
}

// Extract runs the extract pipeline for one document.
//
// PARAMETERS:
//   - ctx: Context for the archive write.
//   - inputPath: The XBRL document.
//   - options: Output and archive options.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Extract(ctx context.Context, inputPath string, options ExtractOptions) Result {
	startTime := time.Now()
	result := Result{FilePath: inputPath}
	logger := c.logger.With(zap.String("file", inputPath))

	// =========================================================================
	// STEP 1: READ THE DOCUMENT
	// =========================================================================

	file, err := os.Open(inputPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to open input file: %w", err)
		return result
	}
	defer file.Close()

	records, err := c.ExtractTags(file)
	if err != nil {
		if !errors.Is(err, extractor.ErrTruncated) || !c.mainConfig.AllowPartialExtraction {
			result.Error = fmt.Errorf("failed to extract tags: %w", err)
			return result
		}
		logger.Warn("Writing partial extraction", zap.Int("records", len(records)), zap.Error(err))
		result.Partial = true
		result.Error = err
	}

	result.Stats.TagsExtracted = len(records)
	logger.Debug("Extracted tags", zap.Int("records", len(records)))
	c.dumpRecords("Extracted records", records)

	// =========================================================================
	// STEP 2: WRITE THE TABLE
	// =========================================================================

	outputPath, claimed, err := utils.ResolveOutputPath(
		options.Output,
		inputPath,
		c.mainConfig.OutputSettings.FileNameFormat,
		options.Format.Extension(),
	)
	if err != nil {
		result.Error = fmt.Errorf("failed to resolve output path: %w", err)
		return result
	}
	if !claimed && utils.SameFile(outputPath, inputPath) {
		result.Error = fmt.Errorf("%w: %s", ErrOutputIsInput, outputPath)
		return result
	}

	out, done, err := createOutput(outputPath, claimed)
	if err != nil {
		result.Error = err
		return result
	}
	if err := c.writeTable(out, records, options.Format); err != nil {
		done(false)
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}
	if err := done(true); err != nil {
		result.Error = err
		return result
	}

	result.OutputFile = outputPath
	logger.Info("Wrote tag table", zap.String("output", outputPath), zap.Int("records", len(records)))

	// =========================================================================
	// STEP 3: ARCHIVE THE RECORDS
	// =========================================================================

	if options.Archive {
		if c.archive == nil {
			logger.Warn("Archive requested but no archive is open")
		} else if id, err := c.archive.SaveSnapshot(ctx, inputPath, records); err != nil {
			// The table file is already written; keep the run successful.
			logger.Warn("Failed to archive records", zap.Error(err))
		} else {
			result.SnapshotID = id
			logger.Info("Archived records", zap.String("snapshot", id))
		}
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)
	return result
}

// writeTable writes records in the given format.
func (c *Converter) writeTable(w io.Writer, records []types.Tag, format Format) error {
	switch format {
	case FormatXLSX:
		return xlsxparser.WriteTags(w, records, c.mainConfig.SpreadsheetSettings)
	default:
		return csvparser.WriteTags(w, records, c.mainConfig.CSVSettings)
	}
}
