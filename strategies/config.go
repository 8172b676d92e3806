package strategies

import (
	"fmt"
	"time"

	"github.com/rustyeddy/breakout/risk"
	"github.com/rustyeddy/breakout/session"
)

// BreakoutConfig holds the load-time constants of the opening range
// breakout.
type BreakoutConfig struct {
	Instrument string `json:"instrument" yaml:"instrument"`

	OpeningSpanMinutes int     `json:"opening-span-minutes" yaml:"opening-span-minutes"` // 3
	BreakoutThreshold  float64 `json:"breakout-threshold" yaml:"breakout-threshold"`     // 0.00005
	EntryCutoff        string  `json:"entry-cutoff" yaml:"entry-cutoff"`                 // "10:00" session local

	RequireRecentVolatility bool    `json:"require-recent-volatility" yaml:"require-recent-volatility"`
	ATRThresholdPct         float64 `json:"atr-threshold-percent" yaml:"atr-threshold-percent"` // 0.002
	STDThresholdPct         float64 `json:"std-threshold-percent" yaml:"std-threshold-percent"` // 0.0025

	RiskPctPerPosition  float64 `json:"risk-percent" yaml:"risk-percent"` // 0.0025
	CaptureFraction     float64 `json:"capture-fraction" yaml:"capture-fraction"`
	MaxLeverage         float64 `json:"max-leverage" yaml:"max-leverage"`
	LeverageUtilization float64 `json:"leverage-utilization" yaml:"leverage-utilization"`

	TrailingActivation float64 `json:"trailing-activation" yaml:"trailing-activation"` // 0.0005

	TrendPeriod         int `json:"trend-period" yaml:"trend-period"`
	TrendBarMinutes     int `json:"trend-bar-minutes" yaml:"trend-bar-minutes"`
	VolatilityPeriod    int `json:"volatility-period" yaml:"volatility-period"`
	VolatilitySmoothing int `json:"volatility-smoothing" yaml:"volatility-smoothing"`

	PSARStart     float64 `json:"psar-start" yaml:"psar-start"`
	PSARIncrement float64 `json:"psar-increment" yaml:"psar-increment"`
	PSARMax       float64 `json:"psar-max" yaml:"psar-max"`

	HistoryDays int `json:"history-days" yaml:"history-days"`
}

func BreakoutConfigDefaults() *BreakoutConfig {
	return &BreakoutConfig{
		Instrument:              "SPY",
		OpeningSpanMinutes:      3,
		BreakoutThreshold:       0.00005,
		EntryCutoff:             "10:00",
		RequireRecentVolatility: true,
		ATRThresholdPct:         0.002,
		STDThresholdPct:         0.0025,
		RiskPctPerPosition:      0.0025,
		CaptureFraction:         0.1,
		MaxLeverage:             4,
		LeverageUtilization:     0.75,
		TrailingActivation:      0.0005,
		TrendPeriod:             4,
		TrendBarMinutes:         30,
		VolatilityPeriod:        14,
		VolatilitySmoothing:     32, // about one week of market hours
		PSARStart:               0,
		PSARIncrement:           0.000025,
		PSARMax:                 0.2,
		HistoryDays:             20,
	}
}

func (c *BreakoutConfig) Validate() error {
	if c.Instrument == "" {
		return fmt.Errorf("instrument is required")
	}
	if c.OpeningSpanMinutes <= 0 {
		return fmt.Errorf("opening-span-minutes must be > 0")
	}
	if c.BreakoutThreshold < 0 || c.BreakoutThreshold >= 1 {
		return fmt.Errorf("breakout-threshold must be in [0,1)")
	}
	if _, err := session.ParseClock(c.EntryCutoff); err != nil {
		return fmt.Errorf("entry-cutoff: %w", err)
	}
	if c.ATRThresholdPct < 0 || c.STDThresholdPct < 0 {
		return fmt.Errorf("volatility thresholds must be >= 0")
	}
	if c.RiskPctPerPosition <= 0 || c.RiskPctPerPosition >= 1 {
		return fmt.Errorf("risk-percent must be in (0,1)")
	}
	if c.CaptureFraction <= 0 {
		return fmt.Errorf("capture-fraction must be > 0")
	}
	if c.MaxLeverage <= 0 {
		return fmt.Errorf("max-leverage must be > 0")
	}
	if c.LeverageUtilization <= 0 || c.LeverageUtilization > 1 {
		return fmt.Errorf("leverage-utilization must be in (0,1]")
	}
	if c.TrailingActivation < 0 {
		return fmt.Errorf("trailing-activation must be >= 0")
	}
	if c.TrendPeriod < 2 {
		return fmt.Errorf("trend-period must be >= 2")
	}
	if c.TrendBarMinutes <= 0 {
		return fmt.Errorf("trend-bar-minutes must be > 0")
	}
	if c.VolatilityPeriod <= 0 || c.VolatilitySmoothing <= 0 {
		return fmt.Errorf("volatility periods must be > 0")
	}
	if c.PSARStart < 0 || c.PSARIncrement <= 0 || c.PSARMax <= 0 {
		return fmt.Errorf("psar parameters must be positive")
	}
	if c.HistoryDays < 0 {
		return fmt.Errorf("history-days must be >= 0")
	}
	return nil
}

func (c *BreakoutConfig) OpeningSpan() time.Duration {
	return time.Duration(c.OpeningSpanMinutes) * time.Minute
}

func (c *BreakoutConfig) Policy() risk.Policy {
	return risk.Policy{
		RiskPctPerPosition:  c.RiskPctPerPosition,
		CaptureFraction:     c.CaptureFraction,
		MaxLeverage:         c.MaxLeverage,
		LeverageUtilization: c.LeverageUtilization,
	}
}

func (c *BreakoutConfig) Gate() risk.VolatilityGate {
	return risk.VolatilityGate{
		RequireRecentVolatility: c.RequireRecentVolatility,
		ATRThresholdPct:         c.ATRThresholdPct,
		STDThresholdPct:         c.STDThresholdPct,
	}
}
