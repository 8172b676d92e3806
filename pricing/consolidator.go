package pricing

import "time"

// Consolidator aggregates candles into fixed time buckets. A bucket is
// emitted when the first candle of a later bucket arrives.
type Consolidator struct {
	period  time.Duration
	current Candle
	start   time.Time
	open    bool
}

func NewConsolidator(period time.Duration) *Consolidator {
	return &Consolidator{period: period}
}

func (c *Consolidator) Period() time.Duration { return c.period }

// Update adds a candle and returns the completed bucket, if any.
func (c *Consolidator) Update(in Candle) (Candle, bool) {
	start := in.Time.Truncate(c.period)
	if !c.open {
		c.begin(start, in)
		return Candle{}, false
	}
	if start.Equal(c.start) {
		c.current = c.current.Merge(in)
		return Candle{}, false
	}

	done := c.current
	c.begin(start, in)
	return done, true
}

// Flush returns the partial bucket and clears the consolidator.
func (c *Consolidator) Flush() (Candle, bool) {
	if !c.open {
		return Candle{}, false
	}
	done := c.current
	c.Reset()
	return done, true
}

func (c *Consolidator) Reset() {
	c.current = Candle{}
	c.start = time.Time{}
	c.open = false
}

func (c *Consolidator) begin(start time.Time, in Candle) {
	c.start = start
	c.current = in
	c.current.Time = start
	c.open = true
}
