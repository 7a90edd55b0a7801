// =============================================================================
// E-Bilanz Converter - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, which fills a template document
// with the values of a tag table.
//
// COMMAND USAGE:
//   ebilanz generate --template FILE [--csv FILE | --xlsx FILE | --snapshot ID] [flags]
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ebilanz-converter/internal/archive"
	"github.com/ginjaninja78/ebilanz-converter/internal/converter"
)

var (
	generateTemplate string
	generateCSV      string
	generateXLSX     string
	generateSnapshot string
	generateOutput   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fill an XBRL template with the values of a tag table",
	Long: `The generate command clears every value of the template, marks all
monetary facts as nil and then writes the values of the tag table into every
element of the same name. The static tags of the configuration are applied
after the table.

The table is checked against the template first. Tags the template does not
contain and malformed monetary values are reported; with strict_validation
they fail the run and the findings are written to <output>.validation.log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateTemplate, "template", "t", "", "Template document (required)")
	generateCmd.Flags().StringVar(&generateCSV, "csv", "", "Tag table as CSV")
	generateCmd.Flags().StringVar(&generateXLSX, "xlsx", "", "Tag table as XLSX workbook")
	generateCmd.Flags().StringVar(&generateSnapshot, "snapshot", "", "Archived snapshot id")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output file or directory")

	generateCmd.MarkFlagRequired("template")
	generateCmd.MarkFlagsMutuallyExclusive("csv", "xlsx", "snapshot")
}

func runGenerate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	conv := converter.New(mainConfig, logger)

	if generateSnapshot != "" {
		store, err := archive.Open(ctx, mainConfig.ArchivePath)
		if err != nil {
			return err
		}
		defer store.Close()
		conv.WithArchive(store)
	}

	result := conv.Generate(ctx, converter.GenerateOptions{
		Template: generateTemplate,
		Source: converter.TableSource{
			CSVPath:    generateCSV,
			XLSXPath:   generateXLSX,
			SnapshotID: generateSnapshot,
		},
		Output: generateOutput,
	})
	if !result.Success {
		fmt.Printf("  %s %s\n", failMark, result.FilePath)
		return result.Error
	}

	fmt.Printf("  %s %s -> %s\n", okMark, result.FilePath, result.OutputFile)
	fmt.Printf("Tags loaded:     %d\n", result.Stats.TagsLoaded)
	fmt.Printf("Elements filled: %d\n", result.Stats.ElementsUpdated)
	fmt.Printf("Warnings:        %d\n", result.Stats.ValidationWarnings)
	fmt.Printf("Time elapsed:    %s\n", result.Stats.ProcessingTime)
	return nil
}
