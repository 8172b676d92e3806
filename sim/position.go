package sim

import (
	"time"

	"github.com/rustyeddy/breakout/broker"
)

// position is the net holding in the single simulated instrument.
type position struct {
	tradeID  string
	quantity int64 // >0 long, <0 short
	peak     int64 // largest absolute size held during the trade
	avgPrice float64
	openTime time.Time
	realized float64
}

func (p *position) flat() bool { return p.quantity == 0 }

func (p *position) side() broker.Side {
	if p.quantity < 0 {
		return broker.Short
	}
	return broker.Long
}

// apply books a signed fill and returns the P/L it realized.
func (p *position) apply(qty int64, price float64) float64 {
	if qty == 0 {
		return 0
	}

	// opening or adding
	if p.quantity == 0 || sameSign(p.quantity, qty) {
		total := p.quantity + qty
		p.avgPrice = (p.avgPrice*float64(abs(p.quantity)) + price*float64(abs(qty))) / float64(abs(total))
		p.quantity = total
		if abs(total) > p.peak {
			p.peak = abs(total)
		}
		return 0
	}

	// reducing, closing or reversing
	closed := min(abs(qty), abs(p.quantity))
	pl := float64(closed) * (price - p.avgPrice) * float64(sign(p.quantity))
	p.realized += pl

	rest := abs(qty) - closed
	p.quantity += qty
	if p.quantity == 0 {
		return pl
	}
	if rest > 0 {
		// reversed through zero: the remainder opens at the fill price
		p.avgPrice = price
		p.peak = rest
	}
	return pl
}

// unrealized is the mark-to-market P/L at mark.
func (p *position) unrealized(mark float64) float64 {
	if p.quantity == 0 {
		return 0
	}
	return float64(p.quantity) * (mark - p.avgPrice)
}

// profitPct is unrealized P/L relative to the cost of the holding.
func (p *position) profitPct(mark float64) float64 {
	if p.quantity == 0 || p.avgPrice == 0 {
		return 0
	}
	return float64(sign(p.quantity)) * (mark - p.avgPrice) / p.avgPrice
}

func sameSign(a, b int64) bool { return (a > 0) == (b > 0) }

func sign(x int64) int64 {
	if x < 0 {
		return -1
	}
	return 1
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
