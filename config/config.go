package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/breakout/session"
	"github.com/rustyeddy/breakout/strategies"
)

// Config represents the complete run configuration
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Session  SessionConfig  `json:"session" yaml:"session"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
}

// AccountConfig contains paper account initialization parameters
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Cash     float64 `json:"cash" yaml:"cash"`
}

// SessionConfig describes the regular trading hours of the instrument
type SessionConfig struct {
	Timezone       string `json:"timezone" yaml:"timezone"`
	Open           string `json:"open" yaml:"open"`   // "09:30"
	Close          string `json:"close" yaml:"close"` // "16:00"
	WarmupSessions int    `json:"warmup_sessions" yaml:"warmup_sessions"`
}

// StrategyConfig names the strategy and carries its parameters
type StrategyConfig struct {
	Name     string                     `json:"name" yaml:"name"`
	Breakout *strategies.BreakoutConfig `json:"breakout" yaml:"breakout"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // console or json
}

// MetricsConfig enables the Prometheus endpoint when Listen is set
type MetricsConfig struct {
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"` // e.g. ":9090"
}

// Hours builds the session calendar.
func (s SessionConfig) Hours() (session.Hours, error) {
	return session.NewHours(s.Timezone, s.Open, s.Close)
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON).
// Missing fields keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Cash <= 0 {
		return fmt.Errorf("account.cash must be positive")
	}
	if _, err := c.Session.Hours(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if c.Session.WarmupSessions < 0 {
		return fmt.Errorf("session.warmup_sessions must be >= 0")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Strategy.Breakout == nil {
		return fmt.Errorf("strategy.breakout is required")
	}
	if err := c.Strategy.Breakout.Validate(); err != nil {
		return fmt.Errorf("strategy.breakout: %w", err)
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}
	return nil
}

// Default returns the SPY opening range breakout configuration
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "PAPER-001",
			Currency: "USD",
			Cash:     100000,
		},
		Session: SessionConfig{
			Timezone: "America/New_York",
			Open:     "09:30",
			Close:    "16:00",
		},
		Strategy: StrategyConfig{
			Name:     "opening-range-breakout",
			Breakout: strategies.BreakoutConfigDefaults(),
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// OpeningSpan is a convenience for the clock.
func (c *Config) OpeningSpan() time.Duration {
	return c.Strategy.Breakout.OpeningSpan()
}
