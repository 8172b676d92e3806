package sim

import (
	"github.com/rustyeddy/breakout/broker"
	"github.com/rustyeddy/breakout/pricing"
)

// stopFill reports whether a stop order on side triggers within bar c and
// the price it fills at. A bar that opens through the stop fills at the
// open.
func stopFill(side broker.Side, stop float64, c pricing.Candle) (float64, bool) {
	if side == broker.Short {
		// sell stop protects a long
		if c.Open <= stop {
			return c.Open, true
		}
		if c.Low <= stop {
			return stop, true
		}
		return 0, false
	}

	if c.Open >= stop {
		return c.Open, true
	}
	if c.High >= stop {
		return stop, true
	}
	return 0, false
}
