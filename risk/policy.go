package risk

// Policy holds the per-position risk limits used for sizing.
type Policy struct {
	// Fraction of portfolio value lost if the stop is hit.
	RiskPctPerPosition float64 // 0.0025

	// Share of the daily ATR a trade is expected to capture.
	CaptureFraction float64 // 0.1

	// Leverage ceiling and the share of it sizing may use.
	MaxLeverage         float64 // 4
	LeverageUtilization float64 // 0.75
}

func DefaultPolicy() Policy {
	return Policy{
		RiskPctPerPosition:  0.0025,
		CaptureFraction:     0.1,
		MaxLeverage:         4,
		LeverageUtilization: 0.75,
	}
}
