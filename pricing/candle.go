package pricing

import "time"

// Candle is one price observation. Tick-granularity samples carry the same
// value in Open, High, Low and Close.
type Candle struct {
	Instrument string // optional but handy
	Time       time.Time

	Open  float64
	High  float64
	Low   float64
	Close float64

	Volume float64 // optional
}

// Point builds a tick-granularity candle from a single price.
func Point(instrument string, t time.Time, px float64) Candle {
	return Candle{
		Instrument: instrument,
		Time:       t,
		Open:       px,
		High:       px,
		Low:        px,
		Close:      px,
	}
}

// Valid reports whether the candle has a timestamp and a consistent
// positive price range.
func (c Candle) Valid() bool {
	if c.Time.IsZero() || c.Close <= 0 {
		return false
	}
	return c.Low > 0 && c.Low <= c.High
}

// Merge folds next into c, keeping c's open and time.
func (c Candle) Merge(next Candle) Candle {
	if next.High > c.High {
		c.High = next.High
	}
	if next.Low < c.Low {
		c.Low = next.Low
	}
	c.Close = next.Close
	c.Volume += next.Volume
	return c
}
