package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoTrade is returned when sizing cannot produce a safe quantity.
var ErrNoTrade = errors.New("risk: no trade")

type Inputs struct {
	PortfolioValue float64
	ATR            float64
	Price          float64
	MaxQuantity    int64 // leverage cap, see MaxQuantity
}

type Result struct {
	Quantity             int64
	ExpectedCaptureRange float64
	AllowedLoss          float64
	// Fractional adverse move that realizes AllowedLoss at Quantity.
	StopLossPct float64
}

// MaxQuantity is the largest quantity whose notional stays within the
// utilized share of the leverage ceiling.
func (p Policy) MaxQuantity(portfolioValue, price float64) int64 {
	if portfolioValue <= 0 || price <= 0 {
		return 0
	}
	q := math.Floor(portfolioValue * p.LeverageUtilization * p.MaxLeverage / price)
	if q > math.MaxInt64/2 {
		return math.MaxInt64 / 2
	}
	return int64(q)
}

// Size converts the risk budget into a quantity. A larger ATR yields a
// smaller position. Degenerate inputs fail closed with ErrNoTrade.
func (p Policy) Size(in Inputs) (Result, error) {
	capture := p.CaptureFraction * in.ATR
	if !(capture > 0) || math.IsInf(capture, 0) {
		return Result{}, fmt.Errorf("%w: expected capture range %v", ErrNoTrade, capture)
	}
	if !(in.Price > 0) {
		return Result{}, fmt.Errorf("%w: price %v", ErrNoTrade, in.Price)
	}

	allowed := p.RiskPctPerPosition * in.PortfolioValue
	if !(allowed > 0) {
		return Result{}, fmt.Errorf("%w: allowed loss %v", ErrNoTrade, allowed)
	}

	raw := math.Floor(allowed / capture)
	qty := in.MaxQuantity
	if raw < float64(qty) {
		qty = int64(raw)
	}
	if qty <= 0 {
		return Result{}, fmt.Errorf("%w: quantity %d (raw %.0f, cap %d)", ErrNoTrade, qty, raw, in.MaxQuantity)
	}

	return Result{
		Quantity:             qty,
		ExpectedCaptureRange: capture,
		AllowedLoss:          allowed,
		StopLossPct:          allowed / (float64(qty) * in.Price),
	}, nil
}
