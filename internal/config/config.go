// =============================================================================
// E-Bilanz Converter - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a single YAML file.
// Every setting has a default, so the converter also runs without any file.
//
// CONFIGURATION FILE (config.yaml):
//
//   log_level: info
//   log_file: ./logs/ebilanz.log
//   csv_settings:
//     delimiter: ","
//     encoding: UTF-8
//   spreadsheet_settings:
//     key_header: ebilanz_key
//     value_header: ebilanz_value
//   output_settings:
//     indent: "  "
//   static_tags:
//     - tag: Verfahren
//       value: ElsterBilanz
//   archive_path: ./ebilanz.db
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"
)

// Default header names of the key and value columns in CSV and XLSX files.
const (
	DefaultKeyColumn   = "ebilanz_key"
	DefaultValueColumn = "ebilanz_value"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFile is an optional file that receives log output in addition to
	// stderr. Empty disables file logging.
	LogFile string `yaml:"log_file"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// CSVSettings controls reading and writing tag tables as CSV.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// SpreadsheetSettings controls reading and writing tag tables as XLSX.
	SpreadsheetSettings SpreadsheetSettings `yaml:"spreadsheet_settings"`

	// StaticTags are inserted into every target table after the input file,
	// overriding values from the file. nil means DefaultStaticTags.
	StaticTags []StaticTag `yaml:"static_tags"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputSettings controls the generated documents.
	OutputSettings OutputSettings `yaml:"output_settings"`

	// ArchivePath is the SQLite file holding extraction snapshots.
	// Default: "./ebilanz.db"
	ArchivePath string `yaml:"archive_path"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of documents extracted concurrently.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// StrictValidation turns validation warnings into errors during generate.
	// Default: false
	StrictValidation bool `yaml:"strict_validation"`

	// AllowPartialExtraction keeps the records read before a malformed part of
	// a document instead of failing the extraction.
	// Default: false
	AllowPartialExtraction bool `yaml:"allow_partial_extraction"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for CSV tag tables.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), ";" (semicolon), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of input CSV files, as a WHATWG label.
	// Common values: "UTF-8", "ISO-8859-15", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// KeyColumn is the header of the column holding tag names.
	// Default: "ebilanz_key"
	KeyColumn string `yaml:"key_column"`

	// ValueColumn is the header of the column holding tag values.
	// Default: "ebilanz_value"
	ValueColumn string `yaml:"value_column"`
}

// DelimiterRune returns the delimiter as a rune.
func (s CSVSettings) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	return r
}

// =============================================================================
// SPREADSHEET SETTINGS STRUCTURE
// =============================================================================

// SpreadsheetSettings contains settings for XLSX tag tables.
type SpreadsheetSettings struct {
	// Sheet restricts the header search to one sheet. Empty searches all
	// sheets in workbook order.
	Sheet string `yaml:"sheet"`

	// KeyHeader is the header cell above the tag names.
	// Default: "ebilanz_key"
	KeyHeader string `yaml:"key_header"`

	// ValueHeader is the header cell above the tag values.
	// Default: "ebilanz_value"
	ValueHeader string `yaml:"value_header"`

	// MaxRows is the number of rows searched for headers and read below them.
	// Default: 500
	MaxRows int `yaml:"max_rows"`
}

// =============================================================================
// OUTPUT SETTINGS STRUCTURE
// =============================================================================

// OutputSettings contains settings for generated documents and output files.
type OutputSettings struct {
	// Indent pretty-prints generated XML with this string per level.
	// Default: "" (compact)
	Indent string `yaml:"indent"`

	// IncludeXMLDeclaration writes <?xml version="1.0" encoding="UTF-8"?>.
	// Default: true
	IncludeXMLDeclaration *bool `yaml:"include_xml_declaration"`

	// FileNameFormat names output files when the output path is a directory.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {original}  - Input file name without extension
	// Default: "{original}_{timestamp}"
	FileNameFormat string `yaml:"file_name_format"`
}

// WriteDeclaration reports whether generated documents get an XML declaration.
func (s OutputSettings) WriteDeclaration() bool {
	return s.IncludeXMLDeclaration == nil || *s.IncludeXMLDeclaration
}

// =============================================================================
// STATIC TAG STRUCTURE
// =============================================================================

// StaticTag is a tag with a constant value.
type StaticTag struct {
	// Tag is the qualified tag name.
	Tag string `yaml:"tag"`

	// Value is the constant value. Empty marks the tag as present without a value.
	Value string `yaml:"value"`
}

// DefaultStaticTags are the ELSTER transfer header values every E-Bilanz
// submission needs.
func DefaultStaticTags() []StaticTag {
	return []StaticTag{
		{Tag: "Verfahren", Value: "ElsterBilanz"},
		{Tag: "DatenArt", Value: "Bilanz"},
		{Tag: "Vorgang", Value: "send-Auth"},
		{Tag: "HerstellerID", Value: "00000"},
		{Tag: "Kompression", Value: "GZIP"},
		{Tag: "Verschluesselung", Value: "CMSEncryptedData"},
		{Tag: "VersionClient", Value: "1"},
		{Tag: "ProduktName", Value: "ebilanz-converter"},
		{Tag: "ProduktVersion", Value: "0.1.0"},
		{Tag: "Testmerker", Value: "700000004"},
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultMainConfig returns the configuration used when no file is given.
func DefaultMainConfig() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	// Read the configuration file.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseMainConfig(data)
}

// ParseMainConfig parses, completes and validates YAML configuration data.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply default values.
	applyMainConfigDefaults(&config)

	// Validate the configuration.
	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.ArchivePath == "" {
		config.ArchivePath = "./ebilanz.db"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.StaticTags == nil {
		config.StaticTags = DefaultStaticTags()
	}

	// CSV settings defaults.
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ","
	}
	if config.CSVSettings.Encoding == "" {
		config.CSVSettings.Encoding = "UTF-8"
	}
	if config.CSVSettings.KeyColumn == "" {
		config.CSVSettings.KeyColumn = DefaultKeyColumn
	}
	if config.CSVSettings.ValueColumn == "" {
		config.CSVSettings.ValueColumn = DefaultValueColumn
	}

	// Spreadsheet settings defaults.
	if config.SpreadsheetSettings.KeyHeader == "" {
		config.SpreadsheetSettings.KeyHeader = DefaultKeyColumn
	}
	if config.SpreadsheetSettings.ValueHeader == "" {
		config.SpreadsheetSettings.ValueHeader = DefaultValueColumn
	}
	if config.SpreadsheetSettings.MaxRows == 0 {
		config.SpreadsheetSettings.MaxRows = 500
	}

	// Output settings defaults.
	if config.OutputSettings.FileNameFormat == "" {
		config.OutputSettings.FileNameFormat = "{original}_{timestamp}"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	var errs []error

	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", config.LogLevel))
	}

	if utf8.RuneCountInString(config.CSVSettings.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("csv delimiter must be a single character, got %q", config.CSVSettings.Delimiter))
	}

	if _, err := htmlindex.Get(config.CSVSettings.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("unsupported csv encoding %q", config.CSVSettings.Encoding))
	}

	if config.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("max_concurrency must not be negative, got %d", config.MaxConcurrency))
	}

	if config.SpreadsheetSettings.MaxRows < 0 {
		errs = append(errs, fmt.Errorf("max_rows must not be negative, got %d", config.SpreadsheetSettings.MaxRows))
	}

	for i, tag := range config.StaticTags {
		if tag.Tag == "" {
			errs = append(errs, fmt.Errorf("static tag %d has no name", i+1))
		}
	}

	return errors.Join(errs...)
}
