package indicators

import (
	"fmt"
	"math"
)

// StdDev is the population standard deviation over a rolling window.
type StdDev struct {
	period int
	window []float64
	next   int
	count  int
}

func NewStdDev(period int) *StdDev {
	if period < 1 {
		period = 1
	}
	return &StdDev{
		period: period,
		window: make([]float64, period),
	}
}

func (s *StdDev) Name() string {
	return fmt.Sprintf("STD(%d)", s.period)
}

func (s *StdDev) Warmup() int { return s.period }

func (s *StdDev) Reset() {
	for i := range s.window {
		s.window[i] = 0
	}
	s.next = 0
	s.count = 0
}

func (s *StdDev) Update(v float64) {
	s.window[s.next] = v
	s.next = (s.next + 1) % s.period
	if s.count < s.period {
		s.count++
	}
}

func (s *StdDev) Ready() bool {
	return s.count >= s.period
}

func (s *StdDev) Value() float64 {
	if s.count < 2 {
		return 0
	}

	n := float64(s.count)
	mean := 0.0
	for i := 0; i < s.count; i++ {
		mean += s.window[i]
	}
	mean /= n

	ss := 0.0
	for i := 0; i < s.count; i++ {
		d := s.window[i] - mean
		ss += d * d
	}
	return math.Sqrt(ss / n)
}
