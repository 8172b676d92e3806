package risk

// VolatilityGate admits trading only when smoothed recent volatility is
// large enough relative to price.
type VolatilityGate struct {
	RequireRecentVolatility bool
	ATRThresholdPct         float64 // 0.002
	STDThresholdPct         float64 // 0.0025
}

func DefaultVolatilityGate() VolatilityGate {
	return VolatilityGate{
		RequireRecentVolatility: true,
		ATRThresholdPct:         0.002,
		STDThresholdPct:         0.0025,
	}
}

// Admits is true when the requirement is off or either smoothed measure
// clears its threshold.
func (g VolatilityGate) Admits(price, smoothedATR, smoothedSTD float64) bool {
	return !g.RequireRecentVolatility ||
		smoothedATR > price*g.ATRThresholdPct ||
		smoothedSTD > price*g.STDThresholdPct
}
