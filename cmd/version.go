// =============================================================================
// E-Bilanz Converter - Version Command
// =============================================================================
//
// This file defines the 'version' command. Besides the build information it
// shows how generated documents identify this tool to ELSTER: the product
// fields of the transfer header come from static_tags, so a stale
// ProduktVersion in a config file is reported here.
//
// COMMAND USAGE:
//   ebilanz version
//
// OUTPUT:
//   ebilanz 0.1.0 (built unknown, go1.24.0)
//
//   Transfer header
//     HerstellerID    00000
//     ProduktName     ebilanz-converter
//     ProduktVersion  0.1.0
//     Testmerker      700000004  (test submission)
//
//   Archive           ./ebilanz.db
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ebilanz-converter/internal/config"
)

// Version is the application version.
// Set at build time using ldflags:
//   go build -ldflags "-X 'github.com/ginjaninja78/ebilanz-converter/cmd.Version=0.1.0'"
var Version = "0.1.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

// headerFields are the transfer header tags that identify the sending software.
var headerFields = []string{"HerstellerID", "ProduktName", "ProduktVersion", "Testmerker"}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version and the transfer header identification",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeVersion(os.Stdout, mainConfig)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// writeVersion prints the version report for cfg.
func writeVersion(out io.Writer, cfg *config.MainConfig) error {
	if cfg == nil {
		cfg = config.DefaultMainConfig()
	}

	fmt.Fprintf(out, "ebilanz %s (built %s, %s)\n\n", Version, BuildDate, runtime.Version())

	static := lo.SliceToMap(cfg.StaticTags, func(tag config.StaticTag) (string, string) {
		return tag.Tag, tag.Value
	})

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Transfer header")
	for _, field := range headerFields {
		value, ok := static[field]
		if !ok {
			fmt.Fprintf(w, "  %s\t%s\n", field, color.YellowString("(not set)"))
			continue
		}

		note := ""
		switch {
		case field == "ProduktVersion" && value != Version:
			note = color.YellowString("  (differs from %s)", Version)
		case field == "Testmerker" && value != "":
			note = "  (test submission)"
		}
		fmt.Fprintf(w, "  %s\t%s%s\n", field, value, note)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Archive\t%s\n", cfg.ArchivePath)

	return w.Flush()
}
