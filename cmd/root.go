// =============================================================================
// E-Bilanz Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ebilanz)
//   ├── extractCmd   (ebilanz extract)
//   ├── generateCmd  (ebilanz generate)
//   ├── snapshotsCmd (ebilanz snapshots)
//   └── versionCmd   (ebilanz version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command
//   1. loads the YAML configuration (--config),
//   2. builds the zap logger (log_level, log_file, --verbose).
//   A missing config.yaml at the default location means built-in defaults.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/ebilanz-converter/internal/config"
	"github.com/ginjaninja78/ebilanz-converter/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// mainConfig and logger are set up by the root command before a subcommand runs.
var (
	mainConfig *config.MainConfig
	logger     = zap.NewNop()
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ebilanz",
	Short: "E-Bilanz converter - move values between XBRL documents and tag tables",
	Long: `ebilanz moves the values of E-Bilanz (XBRL) submissions between documents
and flat tag tables.

  extract   reads every filled-in tag of a document into a CSV or XLSX table
  generate  fills a template document with the values of a table

Extracted tables can be archived as snapshots and used directly as the input
of a later generate run.

Example Usage:
  ebilanz extract bilanz_2020.xml --format xlsx
  ebilanz generate --template bilanz_2021.xml --csv werte.csv --output out/
  ebilanz extract bilanz_2020.xml --archive && ebilanz snapshots`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		mainConfig = cfg

		l, err := utils.NewLogger(cfg.LogLevel, cfg.LogFile, verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration file. A missing file is only an error
// when the path was given explicitly.
func loadConfig(path string, explicit bool) (*config.MainConfig, error) {
	cfg, err := config.LoadMainConfig(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.DefaultMainConfig(), nil
	}
	return nil, fmt.Errorf("failed to load main config: %w", err)
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
