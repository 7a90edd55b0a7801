// =============================================================================
// E-Bilanz Converter - File Manager Utility
// =============================================================================
//
// This module provides file helpers for the commands:
//   - Output path resolution (file or directory targets)
//   - Exclusive output names, so batch runs never overwrite each other
//   - Output file naming from a format string
//   - Batch summary logs
//
// OUTPUT NAMING:
//   When --output names a directory, or is omitted, the file name is built
//   from output_settings.file_name_format. Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//     {original}  - Input file name without extension
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates a directory and its parents if they don't exist.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// IsDir reports whether path is an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//   - params: Additional placeholder values, keyed without braces.
//   - extension: The extension to ensure, including the dot (e.g. ".csv").
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//   format: "{original}_{timestamp}"
//   params: {"original": "bilanz_2020"}
//   output: "bilanz_2020_20240115_143022.xml"
func GenerateOutputFileName(format string, params map[string]string, extension string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if extension != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(extension)) {
		result += extension
	}

	return result
}

// maxNameAttempts bounds the numbered variants tried for a taken file name.
const maxNameAttempts = 1000

// ResolveOutputPath decides where the output for inputPath is written.
//
// PARAMETERS:
//   - output: The --output value. Empty means the input's directory.
//   - inputPath: The file being converted.
//   - format: The file name format used for directory targets.
//   - extension: The output extension.
//
// RETURNS:
//   - The output file path. Its parent directory exists.
//   - Whether the path was claimed: created empty so no other run can take
//     the same name. A claimed file must be replaced or removed by the caller.
//   - An error if the directory or the claimed file cannot be created.
//
// An output ending in a path separator, or naming an existing directory, is a
// directory target. Its generated name never overwrites an existing file:
// "_2", "_3", ... is appended instead. Anything else is used as the file path.
func ResolveOutputPath(output, inputPath, format, extension string) (string, bool, error) {
	dir := ""
	switch {
	case output == "":
		dir = filepath.Dir(inputPath)
	case strings.HasSuffix(output, string(filepath.Separator)) || strings.HasSuffix(output, "/") || IsDir(output):
		dir = output
	default:
		if err := EnsureDir(filepath.Dir(output)); err != nil {
			return "", false, err
		}
		return output, false, nil
	}

	if err := EnsureDir(dir); err != nil {
		return "", false, err
	}

	original := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	name := GenerateOutputFileName(format, map[string]string{"original": original}, extension)

	path, err := ClaimFile(filepath.Join(dir, name))
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

// ClaimFile creates path exclusively and returns it. When path is taken the
// numbered variants name_2.ext, name_3.ext, ... are tried in turn.
func ClaimFile(path string) (string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	candidate := path
	for n := 2; ; n++ {
		file, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return candidate, file.Close()
		}
		if !errors.Is(err, fs.ErrExist) || n > maxNameAttempts {
			return "", fmt.Errorf("failed to claim output file: %w", err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
}

// SameFile reports whether a and b name the same file. Paths that do not
// exist are compared by their cleaned absolute form.
func SameFile(a, b string) bool {
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	if errA == nil && errB == nil {
		return os.SameFile(infoA, infoB)
	}

	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a batch run.
type ProcessingSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalTags       int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	SnapshotID  string
	Tags        int
	Partial     bool
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary to a file in outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	if err := EnsureDir(outputDir); err != nil {
		return "", err
	}

	summaryFileName := fmt.Sprintf("extraction_summary_%s.txt", summary.EndTime.Format("20060102_150405"))
	summaryPath := filepath.Join(outputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "E-Bilanz Converter - Extraction Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Files:    %d\n"+
		"  Successful:     %d\n"+
		"  Failed:         %d\n"+
		"  Total Tags:     %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalTags)

	if len(summary.ProcessedFiles) > 0 {
		writer.WriteString("Successful Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(writer, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(writer, "  Output:       %s\n", pf.OutputFile)
			if pf.SnapshotID != "" {
				fmt.Fprintf(writer, "  Snapshot:     %s\n", pf.SnapshotID)
			}
			fmt.Fprintf(writer, "  Tags:         %d\n", pf.Tags)
			if pf.Partial {
				writer.WriteString("  Partial:      yes\n")
			}
			fmt.Fprintf(writer, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.FailedFilesList) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(writer, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}
