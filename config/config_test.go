package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Strategy.Breakout.OpeningSpanMinutes)
	assert.Equal(t, "10:00", cfg.Strategy.Breakout.EntryCutoff)

	h, err := cfg.Session.Hours()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", h.Location.String())
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"cfg.yaml", "cfg.yml", "cfg.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			cfg := Default()
			cfg.Account.Cash = 25000
			cfg.Strategy.Breakout.Instrument = "QQQ"
			cfg.Strategy.Breakout.RequireRecentVolatility = false
			cfg.Journal.Type = "sqlite"
			cfg.Journal.DBPath = "./breakout.db"
			cfg.Metrics.Listen = ":9090"
			require.NoError(t, cfg.SaveToFile(path))

			got, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte(`
account:
  cash: 50000
strategy:
  breakout:
    instrument: IWM
    entry-cutoff: "10:30"
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 50000.0, cfg.Account.Cash, 1e-9)
	assert.Equal(t, "USD", cfg.Account.Currency)
	assert.Equal(t, "IWM", cfg.Strategy.Breakout.Instrument)
	assert.Equal(t, "10:30", cfg.Strategy.Breakout.EntryCutoff)
	assert.InDelta(t, 0.00005, cfg.Strategy.Breakout.BreakoutThreshold, 1e-12)
	assert.Equal(t, "opening-range-breakout", cfg.Strategy.Name)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("account: [unterminated"), 0644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("account:\n  cash: -1\n"), 0644))
	_, err = LoadFromFile(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account.cash")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"currency", func(c *Config) { c.Account.Currency = "" }, "account.currency"},
		{"timezone", func(c *Config) { c.Session.Timezone = "Mars/Olympus" }, "session"},
		{"close before open", func(c *Config) { c.Session.Close = "09:00" }, "session"},
		{"warmup", func(c *Config) { c.Session.WarmupSessions = -1 }, "warmup_sessions"},
		{"strategy name", func(c *Config) { c.Strategy.Name = "" }, "strategy.name"},
		{"breakout missing", func(c *Config) { c.Strategy.Breakout = nil }, "strategy.breakout"},
		{"breakout risk", func(c *Config) { c.Strategy.Breakout.RiskPctPerPosition = 0 }, "risk-percent"},
		{"journal type", func(c *Config) { c.Journal.Type = "parquet" }, "journal.type"},
		{"csv files", func(c *Config) { c.Journal.EquityFile = "" }, "CSV"},
		{"sqlite path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }, "db_path"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExampleConfigLoads(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(filepath.Join("..", "examples", "configs", "spy.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.Equal(t, 20, cfg.Session.WarmupSessions)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.Equal(t, *Default().Strategy.Breakout, *cfg.Strategy.Breakout)
}
