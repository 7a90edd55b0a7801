package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ebilanz-converter/internal/config"
	"github.com/ginjaninja78/ebilanz-converter/internal/converter"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "config.yaml")

	cfg, err := loadConfig(missing, false)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxConcurrency)

	_, err = loadConfig(missing, true)
	assert.ErrorContains(t, err, "failed to load main config")

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrency: 2\nstrict_validation: true\n"), 0o644))
	cfg, err = loadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.True(t, cfg.StrictValidation)

	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0o644))
	_, err = loadConfig(path, false)
	assert.Error(t, err, "an invalid file is never replaced by defaults")
}

func TestProcessConcurrentlyBoundsInFlight(t *testing.T) {
	files := []string{"a.xml", "b.xml", "c.xml", "d.xml", "e.xml", "f.xml"}

	var inFlight, peak int32
	results := processConcurrently(files, 2, func(file string) converter.Result {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return converter.Result{FilePath: file, Success: true}
	})

	var seen []string
	for result := range results {
		seen = append(seen, result.FilePath)
	}
	sort.Strings(seen)

	assert.Equal(t, files, seen)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestProcessConcurrentlyZeroLimit(t *testing.T) {
	results := processConcurrently([]string{"a.xml"}, 0, func(file string) converter.Result {
		return converter.Result{FilePath: file}
	})

	result, ok := <-results
	require.True(t, ok)
	assert.Equal(t, "a.xml", result.FilePath)

	_, ok = <-results
	assert.False(t, ok)
}

func TestWriteVersion(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	t.Run("defaults", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, writeVersion(&out, config.DefaultMainConfig()))

		report := out.String()
		assert.Contains(t, report, "ebilanz "+Version)
		assert.Regexp(t, `ProduktName\s+ebilanz-converter`, report)
		assert.Regexp(t, `ProduktVersion\s+`+Version+`\n`, report)
		assert.Contains(t, report, "(test submission)")
		assert.NotContains(t, report, "differs from")
	})

	t.Run("stale product version", func(t *testing.T) {
		cfg := config.DefaultMainConfig()
		cfg.StaticTags = []config.StaticTag{
			{Tag: "ProduktName", Value: "ebilanz-converter"},
			{Tag: "ProduktVersion", Value: "0.0.9"},
		}

		var out bytes.Buffer
		require.NoError(t, writeVersion(&out, cfg))

		report := out.String()
		assert.Contains(t, report, "(differs from "+Version+")")
		assert.Regexp(t, `HerstellerID\s+\(not set\)`, report)
		assert.NotContains(t, report, "test submission")
	})
}
