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
	"github.com/ginjaninja78/ebilanz-converter/internal/tags"
	"github.com/ginjaninja78/ebilanz-converter/internal/types"
	"github.com/ginjaninja78/ebilanz-converter/internal/validation"
	"github.com/ginjaninja78/ebilanz-converter/internal/xbrl"
	"github.com/ginjaninja78/ebilanz-converter/internal/xlsxparser"
	"github.com/ginjaninja78/ebilanz-converter/internal/xmlevent"
	"github.com/ginjaninja78/ebilanz-converter/pkg/utils"
)

// TableSource names where the target table comes from. At most one field
// may be set. With none set the table holds only the static tags.
type TableSource struct {
	CSVPath    string
	XLSXPath   string
	SnapshotID string
}

// GenerateOptions controls a single generate run.
type GenerateOptions struct {
	// Template is the XBRL template document.
	Template string

	// Source is the target table input.
	Source TableSource

	// Output is a file or directory. Empty writes next to the template.
	Output string
}

// DocumentReport describes a generated document.
type DocumentReport struct {
	// Validation is the result of checking the input table against the template.
	Validation *validation.ValidationResult

	// ElementsUpdated is the number of elements that received a value.
	ElementsUpdated int
}

// =============================================================================
// TABLE LOADING
// =============================================================================

// LoadRecords reads the target table input.
//
// RETURNS:
//   - The records in input order.
//   - An error if more than one source is set or the source cannot be read.
func (c *Converter) LoadRecords(ctx context.Context, source TableSource) ([]types.Tag, error) {
	set := 0
	for _, value := range []string{source.CSVPath, source.XLSXPath, source.SnapshotID} {
		if value != "" {
			set++
		}
	}
	if set > 1 {
		return nil, fmt.Errorf("only one of csv, xlsx or snapshot may be given")
	}

	switch {
	case source.CSVPath != "":
		return csvparser.ReadTagsFile(source.CSVPath, c.mainConfig.CSVSettings)

	case source.XLSXPath != "":
		return xlsxparser.ReadTagsFile(source.XLSXPath, c.mainConfig.SpreadsheetSettings)

	case source.SnapshotID != "":
		if c.archive == nil {
			return nil, fmt.Errorf("snapshot %s requested but no archive is open", source.SnapshotID)
		}
		return c.archive.LoadSnapshot(ctx, source.SnapshotID)
	}

	c.logger.Warn("No table input given, using static tags only")
	return nil, nil
}

// applyStaticTags inserts the configured static tags after the input records.
func (c *Converter) applyStaticTags(table *tags.Table) {
	for _, static := range c.mainConfig.StaticTags {
		var value *string
		if static.Value != "" {
			value = types.StringPtr(static.Value)
		}
		table.Insert(static.Tag, value)
	}
}

// =============================================================================
// DOCUMENT GENERATION
// =============================================================================

// GenerateDocument fills a template with records and writes the result.
//
// PARAMETERS:
//   - template: The XBRL template document.
//   - records: The target table input. Static tags are merged after them.
//   - out: Receives the generated document.
//
// RETURNS:
//   - The report, also on validation failure.
//   - ErrValidationFailed if validation reports errors. Nothing is written.
//   - A parse or write error otherwise.
func (c *Converter) GenerateDocument(template io.Reader, records []types.Tag, out io.Writer) (*DocumentReport, error) {
	reader, err := xmlevent.NewReader(template)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}

	root, err := xbrl.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	xbrl.Strip(root)

	table := tags.FromTags(records, c.logger)

	report := &DocumentReport{
		Validation: validation.Validate(root, table, validation.ValidationOptions{
			TreatWarningsAsErrors: c.mainConfig.StrictValidation,
		}),
	}
	for _, finding := range report.Validation.Errors {
		c.logger.Warn("Validation finding",
			zap.String("rule", finding.Rule),
			zap.String("tag", finding.Tag),
			zap.String("message", finding.Message),
		)
	}
	if !report.Validation.IsValid {
		return report, fmt.Errorf("%w with %d errors", ErrValidationFailed, report.Validation.ErrorCount)
	}

	c.applyStaticTags(table)
	c.dumpRecords("Target table", table.Tags())

	report.ElementsUpdated = xbrl.Inject(root, table)

	writer := xmlevent.NewWriterWithOptions(out, xmlevent.WriterOptions{
		Indent: c.mainConfig.OutputSettings.Indent,
	})
	if c.mainConfig.OutputSettings.WriteDeclaration() {
		if err := writer.WriteEvent(xmlevent.DeclarationEvent()); err != nil {
			return report, fmt.Errorf("failed to write declaration: %w", err)
		}
	}
	if err := xbrl.Serialize(root, writer); err != nil {
		return report, fmt.Errorf("failed to serialize document: %w", err)
	}
	if err := writer.WriteEvent(xmlevent.Event{Kind: xmlevent.EOF}); err != nil {
		return report, fmt.Errorf("failed to flush document: %w", err)
	}

	return report, nil
}

// Generate runs the generate pipeline.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
//
// On validation failure the findings are written to <output>.validation.log
// and no document is created.
func (c *Converter) Generate(ctx context.Context, options GenerateOptions) Result {
	startTime := time.Now()
	result := Result{FilePath: options.Template}
	logger := c.logger.With(zap.String("template", options.Template))

	// =========================================================================
	// STEP 1: LOAD THE TARGET TABLE
	// =========================================================================

	records, err := c.LoadRecords(ctx, options.Source)
	if err != nil {
		result.Error = fmt.Errorf("failed to load target table: %w", err)
		return result
	}
	result.Stats.TagsLoaded = len(records)
	logger.Debug("Loaded target table", zap.Int("records", len(records)))

	// =========================================================================
	// STEP 2: OPEN TEMPLATE AND OUTPUT
	// =========================================================================

	template, err := os.Open(options.Template)
	if err != nil {
		result.Error = fmt.Errorf("failed to open template: %w", err)
		return result
	}
	defer template.Close()

	outputPath, claimed, err := utils.ResolveOutputPath(
		options.Output,
		options.Template,
		c.mainConfig.OutputSettings.FileNameFormat,
		".xml",
	)
	if err != nil {
		result.Error = fmt.Errorf("failed to resolve output path: %w", err)
		return result
	}
	if !claimed && utils.SameFile(outputPath, options.Template) {
		result.Error = fmt.Errorf("%w: %s", ErrOutputIsInput, outputPath)
		return result
	}

	out, done, err := createOutput(outputPath, claimed)
	if err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 3: GENERATE
	// =========================================================================

	report, err := c.GenerateDocument(template, records, out)
	if report != nil {
		result.Stats.ElementsUpdated = report.ElementsUpdated
		result.Stats.ValidationWarnings = report.Validation.WarningCount
		result.Stats.ValidationErrors = report.Validation.ErrorCount
	}
	if err != nil {
		done(false)
		if errors.Is(err, ErrValidationFailed) {
			logPath := outputPath + ".validation.log"
			if logErr := validation.WriteErrorLog(report.Validation.Errors, logPath); logErr != nil {
				logger.Warn("Failed to write validation log", zap.Error(logErr))
			} else {
				logger.Info("Wrote validation log", zap.String("path", logPath))
			}
		}
		result.Error = err
		return result
	}

	if err := done(true); err != nil {
		result.Error = err
		return result
	}

	result.OutputFile = outputPath
	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)
	logger.Info("Wrote document",
		zap.String("output", outputPath),
		zap.Int("updated", report.ElementsUpdated),
	)
	return result
}
