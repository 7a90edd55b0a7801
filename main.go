// =============================================================================
// E-Bilanz Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the ebilanz CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   ebilanz extract     - Read the tag values of XBRL documents into tables
//   ebilanz generate    - Fill an XBRL template from a tag table
//   ebilanz snapshots   - List archived extraction runs
//   ebilanz version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Event reader/writer, element tree, tables, pipelines
//   - pkg/           : Shared utilities (logging, output naming)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/ebilanz-converter/cmd"
)

func main() {
	cmd.Execute()
}
