// =============================================================================
// E-Bilanz Converter - Extract Command
// =============================================================================
//
// This file defines the 'extract' command, which reads the filled-in tags of
// one or more XBRL documents into tag tables.
//
// COMMAND USAGE:
//   ebilanz extract <xml-file>... [flags]
//
// FLAGS:
//   --output   : Output file, or directory when several files are given
//   --format   : csv (default) or xlsx
//   --archive  : Also store the records as a snapshot in the archive
//   --summary  : Directory for an extraction summary file
//
// PROCESSING:
//   Files are processed concurrently, at most max_concurrency at a time.
//   An error in one file does not stop the others.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/ebilanz-converter/internal/archive"
	"github.com/ginjaninja78/ebilanz-converter/internal/converter"
	"github.com/ginjaninja78/ebilanz-converter/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// Result marks for the per-file lines.
var (
	okMark   = color.GreenString("✓")
	failMark = color.RedString("✗")
)

var (
	extractOutput  string
	extractFormat  string
	extractArchive bool
	extractSummary string
)

// =============================================================================
// EXTRACT COMMAND DEFINITION
// =============================================================================

var extractCmd = &cobra.Command{
	Use:   "extract <xml-file>...",
	Short: "Extract the tag values of XBRL documents into tables",
	Long: `The extract command reads every leaf fact (<tag>value</tag>) of each
document, in document order, and writes them as a two-column table with the
headers ebilanz_key and ebilanz_value.

Without --output the table is written next to the document, named by
output_settings.file_name_format. With several documents --output is always
treated as a directory.

A document that cannot be read to the end fails, unless
allow_partial_extraction is set; then the tags read so far are written.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output file or directory")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "csv", "Output format: csv or xlsx")
	extractCmd.Flags().BoolVar(&extractArchive, "archive", false, "Store the extracted tags as a snapshot")
	extractCmd.Flags().StringVar(&extractSummary, "summary", "", "Write an extraction summary to this directory")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runExtract extracts every input file and prints a summary.
func runExtract(ctx context.Context, inputFiles []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	startTime := time.Now()

	format, err := converter.ParseFormat(extractFormat)
	if err != nil {
		return err
	}

	output := extractOutput
	if len(inputFiles) > 1 && output != "" && !utils.IsDir(output) {
		output += string(filepath.Separator)
	}

	conv := converter.New(mainConfig, logger)

	if extractArchive {
		store, err := archive.Open(ctx, mainConfig.ArchivePath)
		if err != nil {
			return err
		}
		defer store.Close()
		conv.WithArchive(store)
	}

	options := converter.ExtractOptions{
		Output:  output,
		Format:  format,
		Archive: extractArchive,
	}

	// =========================================================================
	// PROCESS FILES CONCURRENTLY
	// =========================================================================

	results := processConcurrently(inputFiles, mainConfig.MaxConcurrency, func(file string) converter.Result {
		return conv.Extract(ctx, file, options)
	})

	// =========================================================================
	// COLLECT RESULTS
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		TotalFiles: len(inputFiles),
	}

	for result := range results {
		if result.Success {
			summary.SuccessfulFiles++
			summary.TotalTags += result.Stats.TagsExtracted
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   result.FilePath,
				OutputFile:  result.OutputFile,
				SnapshotID:  result.SnapshotID,
				Tags:        result.Stats.TagsExtracted,
				Partial:     result.Partial,
				ProcessTime: result.Stats.ProcessingTime,
			})

			line := fmt.Sprintf("  %s %s -> %s (%d tags)", okMark, filepath.Base(result.FilePath), result.OutputFile, result.Stats.TagsExtracted)
			if result.Partial {
				line += color.YellowString(" [partial]")
			}
			if result.SnapshotID != "" {
				line += " snapshot " + result.SnapshotID
			}
			fmt.Println(line)
		} else {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
			})
			fmt.Printf("  %s %s: %v\n", failMark, filepath.Base(result.FilePath), result.Error)
		}
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// PRINT SUMMARY
	// =========================================================================

	fmt.Println("\n=== Extraction Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Printf("Errors:          %d\n", summary.FailedFiles)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if extractSummary != "" {
		path, err := utils.WriteSummaryLog(summary, extractSummary)
		if err != nil {
			logger.Warn("Failed to write summary", zap.Error(err))
		} else {
			fmt.Printf("Summary:         %s\n", path)
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d files failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// processConcurrently runs process for every file with at most limit calls
// in flight. The returned channel is closed after the last result.
func processConcurrently(files []string, limit int, process func(string) converter.Result) <-chan converter.Result {
	if limit < 1 {
		limit = 1
	}

	var wg sync.WaitGroup
	results := make(chan converter.Result, len(files))
	slots := make(chan struct{}, limit)

	for _, file := range files {
		wg.Add(1)

		go func(filePath string) {
			defer wg.Done()

			slots <- struct{}{}
			defer func() { <-slots }()

			results <- process(filePath)
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
