package indicators

import "fmt"

// WMA is a streaming linearly weighted moving average. The newest value
// carries weight period, the oldest weight 1.
type WMA struct {
	period int
	window []float64
	next   int
	count  int
}

func NewWMA(period int) *WMA {
	if period < 1 {
		period = 1
	}
	return &WMA{
		period: period,
		window: make([]float64, period),
	}
}

func (w *WMA) Name() string {
	return fmt.Sprintf("WMA(%d)", w.period)
}

func (w *WMA) Warmup() int { return w.period }

func (w *WMA) Reset() {
	for i := range w.window {
		w.window[i] = 0
	}
	w.next = 0
	w.count = 0
}

func (w *WMA) Update(v float64) {
	w.window[w.next] = v
	w.next = (w.next + 1) % w.period
	if w.count < w.period {
		w.count++
	}
}

func (w *WMA) Ready() bool {
	return w.count >= w.period
}

func (w *WMA) Samples() int { return w.count }

func (w *WMA) Value() float64 {
	if w.count == 0 {
		return 0
	}

	// Walk from oldest to newest over the filled part of the ring.
	n := w.count
	start := (w.next - n + w.period) % w.period
	num, den := 0.0, 0.0
	for i := 0; i < n; i++ {
		weight := float64(i + 1)
		num += weight * w.window[(start+i)%w.period]
		den += weight
	}
	return num / den
}
