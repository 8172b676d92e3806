// Package indicators provides streaming technical indicators for trading
package indicators

import "github.com/rustyeddy/breakout/pricing"

// Indicator computes a single streaming value.
// It is deterministic and safe to use in live and replayed sessions.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "HMA(4)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value. Callers should always
	// check Ready().
	Value() float64
}

// Series is an indicator fed one scalar per update.
type Series interface {
	Indicator
	Update(v float64)
}

// BarSeries is an indicator fed one candle per update.
type BarSeries interface {
	Indicator
	UpdateBar(c pricing.Candle)
}
