// Package session models the trading day: its hours, the opening range
// captured shortly after the open, and a clock that turns a sample stream
// into session events.
package session

import (
	"time"

	"github.com/rustyeddy/breakout/pricing"
)

// OpeningRange is the widened high/low band of the first minutes of a
// session.
type OpeningRange struct {
	SessionDate time.Time
	Start       time.Time
	End         time.Time
	Low         float64
	High        float64
}

// Capture aggregates window into a range ending at end. The band is seeded
// with current so an empty window yields a degenerate range around it, then
// widened by theta on both sides.
func Capture(end time.Time, span time.Duration, current float64, window []pricing.Candle, theta float64) OpeningRange {
	r := OpeningRange{
		Start: end.Add(-span),
		End:   end,
		Low:   current,
		High:  current,
	}
	y, m, d := end.Date()
	r.SessionDate = time.Date(y, m, d, 0, 0, 0, 0, end.Location())

	for _, c := range window {
		if c.Low < r.Low {
			r.Low = c.Low
		}
		if c.High > r.High {
			r.High = c.High
		}
	}

	r.Low *= 1 - theta
	r.High *= 1 + theta
	return r
}

// Window returns the candles with start <= Time < end. samples must be in
// time order.
func Window(samples []pricing.Candle, start, end time.Time) []pricing.Candle {
	var out []pricing.Candle
	for _, c := range samples {
		if c.Time.Before(start) {
			continue
		}
		if !c.Time.Before(end) {
			break
		}
		out = append(out, c)
	}
	return out
}

// BreaksAbove reports a breakout through the top of the range.
func (r OpeningRange) BreaksAbove(px float64) bool { return px > r.High }

// BreaksBelow reports a breakout through the bottom of the range.
func (r OpeningRange) BreaksBelow(px float64) bool { return px < r.Low }

// Stale reports whether a sample at t must not be evaluated against the
// range: it belongs to another day or is not after the capture instant.
func (r OpeningRange) Stale(t time.Time) bool {
	ty, tm, td := t.In(r.End.Location()).Date()
	ry, rm, rd := r.End.Date()
	if ty != ry || tm != rm || td != rd {
		return true
	}
	return !t.After(r.End)
}
