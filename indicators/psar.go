package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/breakout/pricing"
)

// PSAR is Wilder's parabolic stop-and-reverse. Its value trails below
// price in an uptrend and above price in a downtrend.
type PSAR struct {
	afStart     float64
	afIncrement float64
	afMax       float64

	long  bool
	sar   float64
	ep    float64
	af    float64
	prev  pricing.Candle
	prev2 pricing.Candle
	count int
}

func NewPSAR(afStart, afIncrement, afMax float64) *PSAR {
	return &PSAR{
		afStart:     afStart,
		afIncrement: afIncrement,
		afMax:       afMax,
	}
}

func (p *PSAR) Name() string {
	return fmt.Sprintf("PSAR(%g,%g,%g)", p.afStart, p.afIncrement, p.afMax)
}

func (p *PSAR) Warmup() int { return 2 }

func (p *PSAR) Reset() {
	p.long = false
	p.sar = 0
	p.ep = 0
	p.af = 0
	p.prev = pricing.Candle{}
	p.prev2 = pricing.Candle{}
	p.count = 0
}

// Long reports the current trend direction.
func (p *PSAR) Long() bool { return p.long }

func (p *PSAR) UpdateBar(c pricing.Candle) {
	p.count++
	switch p.count {
	case 1:
		p.prev = c
		return
	case 2:
		p.init(c)
	default:
		p.step(c)
	}
	p.prev2 = p.prev
	p.prev = c
}

func (p *PSAR) init(c pricing.Candle) {
	p.af = p.afStart
	p.long = c.Close >= p.prev.Close
	if p.long {
		p.sar = math.Min(p.prev.Low, c.Low)
		p.ep = math.Max(p.prev.High, c.High)
		return
	}
	p.sar = math.Max(p.prev.High, c.High)
	p.ep = math.Min(p.prev.Low, c.Low)
}

func (p *PSAR) step(c pricing.Candle) {
	next := p.sar + p.af*(p.ep-p.sar)

	if p.long {
		// never above the two prior lows
		next = math.Min(next, math.Min(p.prev.Low, p.prev2.Low))
		if c.Low <= next {
			p.reverse(c, false)
			return
		}
		p.sar = next
		if c.High > p.ep {
			p.ep = c.High
			p.accelerate()
		}
		return
	}

	next = math.Max(next, math.Max(p.prev.High, p.prev2.High))
	if c.High >= next {
		p.reverse(c, true)
		return
	}
	p.sar = next
	if c.Low < p.ep {
		p.ep = c.Low
		p.accelerate()
	}
}

func (p *PSAR) reverse(c pricing.Candle, long bool) {
	p.long = long
	p.sar = p.ep
	p.af = p.afStart
	if long {
		p.ep = c.High
	} else {
		p.ep = c.Low
	}
}

func (p *PSAR) accelerate() {
	p.af = math.Min(p.af+p.afIncrement, p.afMax)
}

func (p *PSAR) Ready() bool {
	return p.count >= 2
}

func (p *PSAR) Value() float64 {
	if !p.Ready() {
		return 0
	}
	return p.sar
}
