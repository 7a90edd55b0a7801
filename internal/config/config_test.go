package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMainConfig(t *testing.T) {
	config := DefaultMainConfig()

	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 4, config.MaxConcurrency)
	assert.Equal(t, ",", config.CSVSettings.Delimiter)
	assert.Equal(t, ',', config.CSVSettings.DelimiterRune())
	assert.Equal(t, DefaultKeyColumn, config.CSVSettings.KeyColumn)
	assert.Equal(t, DefaultValueColumn, config.SpreadsheetSettings.ValueHeader)
	assert.Equal(t, 500, config.SpreadsheetSettings.MaxRows)
	assert.True(t, config.OutputSettings.WriteDeclaration())
	assert.Equal(t, DefaultStaticTags(), config.StaticTags)
	assert.False(t, config.StrictValidation)
	assert.False(t, config.AllowPartialExtraction)
}

func TestLoadMainConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
log_level: debug
csv_settings:
  delimiter: ";"
  encoding: ISO-8859-15
output_settings:
  indent: "  "
  include_xml_declaration: false
static_tags:
  - tag: HerstellerID
    value: "12345"
max_concurrency: 2
strict_validation: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, ';', config.CSVSettings.DelimiterRune())
	assert.Equal(t, "ISO-8859-15", config.CSVSettings.Encoding)
	assert.Equal(t, DefaultKeyColumn, config.CSVSettings.KeyColumn)
	assert.Equal(t, "  ", config.OutputSettings.Indent)
	assert.False(t, config.OutputSettings.WriteDeclaration())
	assert.Equal(t, []StaticTag{{Tag: "HerstellerID", Value: "12345"}}, config.StaticTags)
	assert.Equal(t, 2, config.MaxConcurrency)
	assert.True(t, config.StrictValidation)
}

func TestExplicitlyEmptyStaticTags(t *testing.T) {
	config, err := ParseMainConfig([]byte("static_tags: []\n"))
	require.NoError(t, err)
	assert.Empty(t, config.StaticTags)
}

func TestLoadMainConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseMainConfig([]byte("log_level: [unclosed"))
		assert.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := ParseMainConfig([]byte(`
log_level: loud
csv_settings:
  delimiter: "::"
  encoding: klingon
static_tags:
  - value: orphan
`))
		require.Error(t, err)
		assert.ErrorContains(t, err, `unknown log level "loud"`)
		assert.ErrorContains(t, err, "single character")
		assert.ErrorContains(t, err, `unsupported csv encoding "klingon"`)
		assert.ErrorContains(t, err, "static tag 1 has no name")
	})
}
