package csvparser

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ebilanz-converter/internal/config"
	"github.com/ginjaninja78/ebilanz-converter/internal/types"
)

func defaultSettings() config.CSVSettings {
	return config.DefaultMainConfig().CSVSettings
}

func TestReadTags(t *testing.T) {
	data := `ebilanz_key,ebilanz_value
        Empfaenger,1111
        ebilanz:stichtag,20201231
        de-gcd:genInfo.report.period.fiscalYearBegin,2020-01-01
        de-gcd:genInfo.company.id.location.country.isoCode,DE
        de-gcd:genInfo.doc.author,
`

	records, err := ReadTags(strings.NewReader(data), defaultSettings())
	require.NoError(t, err)

	assert.Equal(t, []types.Tag{
		types.NewTag("Empfaenger", "1111"),
		types.NewTag("ebilanz:stichtag", "20201231"),
		types.NewTag("de-gcd:genInfo.report.period.fiscalYearBegin", "2020-01-01"),
		types.NewTag("de-gcd:genInfo.company.id.location.country.isoCode", "DE"),
		{Name: "de-gcd:genInfo.doc.author"},
	}, records)
}

func TestReadTagsColumns(t *testing.T) {
	t.Run("extra columns and reordered headers", func(t *testing.T) {
		data := "comment,ebilanz_value,ebilanz_key\nfirst,1,a\n,,\nsecond,,b\n"

		records, err := ReadTags(strings.NewReader(data), defaultSettings())
		require.NoError(t, err)
		assert.Equal(t, []types.Tag{types.NewTag("a", "1"), {Name: "b"}}, records)
	})

	t.Run("fallback names", func(t *testing.T) {
		records, err := ReadTags(strings.NewReader("Key,Value\nVorgang,send-Auth\n"), defaultSettings())
		require.NoError(t, err)
		assert.Equal(t, []types.Tag{types.NewTag("Vorgang", "send-Auth")}, records)
	})

	t.Run("missing columns", func(t *testing.T) {
		_, err := ReadTags(strings.NewReader("name,amount\na,1\n"), defaultSettings())
		require.ErrorIs(t, err, ErrMissingColumn)
		assert.ErrorContains(t, err, "`ebilanz_key`")
		assert.ErrorContains(t, err, "`ebilanz_value`")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ReadTags(strings.NewReader(""), defaultSettings())
		assert.ErrorContains(t, err, "empty")
	})
}

func TestReadTagsEncodingAndDelimiter(t *testing.T) {
	settings := defaultSettings()
	settings.Delimiter = ";"
	settings.Encoding = "ISO-8859-15"

	data := "ebilanz_key;ebilanz_value\nde-gcd:genInfo.report.audit.city;M\xfcnchen\n"

	records, err := ReadTags(strings.NewReader(data), settings)
	require.NoError(t, err)
	assert.Equal(t, []types.Tag{types.NewTag("de-gcd:genInfo.report.audit.city", "München")}, records)
}

func TestReadTagsStripsByteOrderMark(t *testing.T) {
	data := "\xef\xbb\xbfebilanz_key,ebilanz_value\nVerfahren,ElsterBilanz\n"

	records, err := ReadTags(strings.NewReader(data), defaultSettings())
	require.NoError(t, err)
	assert.Equal(t, []types.Tag{types.NewTag("Verfahren", "ElsterBilanz")}, records)
}

func TestWriteTags(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTags(&buf, []types.Tag{
		types.NewTag("Empfaenger", "9198"),
		types.NewTag("de-gcd:genInfo.company.id.name", "Muster, GmbH"),
		{Name: "Testmerker"},
	}, defaultSettings())
	require.NoError(t, err)

	assert.Equal(t, "ebilanz_key,ebilanz_value\n"+
		"Empfaenger,9198\n"+
		"de-gcd:genInfo.company.id.name,\"Muster, GmbH\"\n"+
		"Testmerker,\n", buf.String())
}

func TestWriteThenReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.csv")
	records := []types.Tag{
		types.NewTag("de-gaap-ci:bs.ass", "1000.00"),
		{Name: "de-gcd:genInfo.doc.author"},
	}

	require.NoError(t, WriteTagsFile(path, records, defaultSettings()))

	read, err := ReadTagsFile(path, defaultSettings())
	require.NoError(t, err)
	assert.Equal(t, records, read)
}
