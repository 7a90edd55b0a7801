// =============================================================================
// E-Bilanz Converter - Logger Construction
// =============================================================================
//
// Builds the zap logger used by every command. Logs go to stderr as console
// lines; a log file from the configuration receives the same entries as JSON.
//
// =============================================================================

package utils

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a logger for the given level.
//
// PARAMETERS:
//   - level: One of debug, info, warn, error. Empty means info.
//   - file: Optional path of a log file. Entries are appended.
//   - verbose: Forces debug level.
//
// RETURNS:
//   - The logger. Callers should Sync it before exiting.
//   - An error if the level is unknown or the file cannot be opened.
func NewLogger(level, file string, verbose bool) (*zap.Logger, error) {
	atomic := zap.NewAtomicLevel()
	if level != "" {
		if err := atomic.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	if verbose {
		atomic.SetLevel(zapcore.DebugLevel)
	}

	consoleEncoder := zap.NewDevelopmentEncoderConfig()
	consoleEncoder.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoder), zapcore.Lock(os.Stderr), atomic),
	}

	if file != "" {
		sink, _, err := zap.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			sink,
			atomic,
		))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
