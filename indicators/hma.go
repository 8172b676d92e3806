package indicators

import "fmt"

// HMA is a Hull-style composite trend average built from three linearly
// weighted averages: fast (period²/2) and slow (period²) over the input,
// and a smoothing average (period) over 2*fast - slow.
//
// The smoothing average is only fed once the slow average is ready, so
// Ready implies every sub-average is warm.
type HMA struct {
	period int
	fast   *WMA
	slow   *WMA
	smooth *WMA
}

// NewHMA panics if period < 2.
func NewHMA(period int) *HMA {
	if period < 2 {
		panic(fmt.Sprintf("indicators: HMA period must be >= 2, got %d", period))
	}
	n2 := period * period
	return &HMA{
		period: period,
		fast:   NewWMA(n2 / 2),
		slow:   NewWMA(n2),
		smooth: NewWMA(period),
	}
}

func (h *HMA) Name() string {
	return fmt.Sprintf("HMA(%d)", h.period)
}

func (h *HMA) Warmup() int {
	return h.period*h.period + h.period - 1
}

func (h *HMA) Reset() {
	h.fast.Reset()
	h.slow.Reset()
	h.smooth.Reset()
}

func (h *HMA) Update(v float64) {
	h.fast.Update(v)
	h.slow.Update(v)
	if !h.slow.Ready() {
		return
	}
	h.smooth.Update(2*h.fast.Value() - h.slow.Value())
}

// Next feeds v and returns the current output.
func (h *HMA) Next(v float64) float64 {
	h.Update(v)
	return h.Value()
}

// SlowSamples is the number of values the slow sub-average has consumed.
func (h *HMA) SlowSamples() int { return h.slow.Samples() }

func (h *HMA) Ready() bool {
	return h.smooth.Ready()
}

func (h *HMA) Value() float64 {
	if !h.Ready() {
		return 0
	}
	return h.smooth.Value()
}
