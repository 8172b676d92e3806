package cmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/breakout/config"
)

func TestDayBounds(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start, end, err := dayBounds(ny, "2024-03-10") // DST starts
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, ny), start)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, ny), end)
	assert.Equal(t, 23*time.Hour, end.Sub(start))

	_, _, err = dayBounds(ny, "03/10/2024")
	assert.Error(t, err)
}

func TestParseDay(t *testing.T) {
	got, err := parseDay("", time.UTC, 1)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = parseDay("2024-03-04", time.UTC, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)
}

func TestConfigInitThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spy.yaml")

	rootCmd.SetArgs([]string{"config", "init", "-o", path})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"config", "init", "-o", path})
	assert.Error(t, rootCmd.Execute(), "refuses to overwrite")

	rootCmd.SetArgs([]string{"config", "validate", "-f", path})
	require.NoError(t, rootCmd.Execute())

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "opening-range-breakout", cfg.Strategy.Name)
}
