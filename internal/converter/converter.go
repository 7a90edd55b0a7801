// =============================================================================
// E-Bilanz Converter - Converter Module
// =============================================================================
//
// This module contains the two pipelines of the tool.
//
// EXTRACT PIPELINE (document -> table):
//   1. Open the XBRL document and start the event reader
//   2. Collect (tag, value) records in document order
//   3. Write the records as CSV or XLSX
//   4. Optionally store them as a snapshot in the archive
//
// GENERATE PIPELINE (template + table -> document):
//   1. Load the target table from CSV, XLSX or an archived snapshot
//   2. Parse the template into an element tree
//   3. Strip all values and nil markers
//   4. Validate the table against the tree
//   5. Merge the static tags from the configuration
//   6. Inject the table values
//   7. Serialize the tree to the output file
//
// CONCURRENCY:
//   A Converter holds no per-file state. The extract command runs several
//   Extract calls on one Converter at the same time.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ginjaninja78/ebilanz-converter/internal/config"
	"github.com/ginjaninja78/ebilanz-converter/internal/types"
)

// Format selects the table file format.
type Format string

// Supported table formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat parses a format name. Empty means CSV.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected csv or xlsx)", name)
	}
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	if f == FormatXLSX {
		return ".xlsx"
	}
	return ".csv"
}

// ErrValidationFailed is returned by the generate pipeline when validation
// reports errors.
var ErrValidationFailed = errors.New("validation failed")

// ErrOutputIsInput is returned when the output path names the file being read.
var ErrOutputIsInput = errors.New("output would overwrite the input file")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	// For generate runs this is the template.
	FilePath string

	// OutputFile is the path to the written file.
	// This is empty if processing failed.
	OutputFile string

	// SnapshotID is the archive id of the extracted records, if archived.
	SnapshotID string

	// Success indicates whether the processing was successful.
	Success bool

	// Partial is set when extraction stopped early and the records read so
	// far were written anyway.
	Partial bool

	// Error contains the error if processing failed, or the extraction error
	// of a partial run.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// TagsExtracted is the number of records read from the document.
	TagsExtracted int

	// TagsLoaded is the number of records in the target table input.
	TagsLoaded int

	// ElementsUpdated is the number of elements that received a value.
	ElementsUpdated int

	// ValidationWarnings is the number of validation warnings.
	ValidationWarnings int

	// ValidationErrors is the number of validation errors.
	ValidationErrors int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// SnapshotStore is the part of the archive the pipelines use.
// *archive.Store implements it.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, source string, records []types.Tag) (string, error)
	LoadSnapshot(ctx context.Context, id string) ([]types.Tag, error)
}

// Converter runs the extract and generate pipelines.
type Converter struct {
	// mainConfig is the main application configuration.
	mainConfig *config.MainConfig

	// archive stores and loads snapshots. It may be nil.
	archive SnapshotStore

	logger *zap.Logger
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - mainConfig: The main application configuration. Nil means defaults.
//   - logger: The logger. Nil discards all output.
//
// RETURNS:
//   - A new Converter instance.
func New(mainConfig *config.MainConfig, logger *zap.Logger) *Converter {
	if mainConfig == nil {
		mainConfig = config.DefaultMainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		mainConfig: mainConfig,
		logger:     logger,
	}
}

// WithArchive sets the snapshot store used for --archive and --snapshot.
func (c *Converter) WithArchive(store SnapshotStore) *Converter {
	c.archive = store
	return c
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// dumpRecords logs a full dump of records at debug level.
func (c *Converter) dumpRecords(msg string, records []types.Tag) {
	if !c.logger.Core().Enabled(zapcore.DebugLevel) {
		return
	}
	c.logger.Debug(msg, zap.String("records", spew.Sdump(records)))
}

// createOutput opens a temporary file in the directory of path. The returned
// done closes it and, with keep, renames it onto path. Otherwise the
// temporary file is removed, together with path if it was only claimed for
// this run. An existing file at path is never touched by a failed run.
func createOutput(path string, claimed bool) (*os.File, func(keep bool) error, error) {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		if claimed {
			os.Remove(path)
		}
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	done := func(keep bool) error {
		err := file.Close()
		if keep && err == nil {
			if err = os.Chmod(file.Name(), 0o644); err == nil {
				if err = os.Rename(file.Name(), path); err == nil {
					return nil
				}
			}
		}

		os.Remove(file.Name())
		if claimed {
			os.Remove(path)
		}
		if keep {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	return file, done, nil
}
