package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rustyeddy/breakout/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYork(t *testing.T) Hours {
	t.Helper()
	h, err := NewHours("America/New_York", "09:30", "16:00")
	require.NoError(t, err)
	return h
}

func TestCapture(t *testing.T) {
	t.Parallel()

	end := time.Date(2024, 3, 4, 9, 33, 0, 0, time.UTC)
	window := []pricing.Candle{
		{Time: end.Add(-3 * time.Minute), High: 100.5, Low: 99.2, Close: 100},
		{Time: end.Add(-2 * time.Minute), High: 101.0, Low: 99.0, Close: 100.8},
		{Time: end.Add(-time.Minute), High: 100.9, Low: 99.6, Close: 100.1},
	}
	const theta = 0.00005

	r := Capture(end, 3*time.Minute, 100.1, window, theta)
	assert.InDelta(t, 99.0*(1-theta), r.Low, 1e-12)
	assert.InDelta(t, 101.0*(1+theta), r.High, 1e-12)
	assert.Equal(t, end, r.End)
	assert.Equal(t, end.Add(-3*time.Minute), r.Start)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), r.SessionDate)
}

func TestCapture_SeededByCurrentPrice(t *testing.T) {
	t.Parallel()

	end := time.Date(2024, 3, 4, 9, 33, 0, 0, time.UTC)
	window := []pricing.Candle{{Time: end.Add(-time.Minute), High: 100.2, Low: 100.0, Close: 100.1}}

	// current price above every window high widens the top
	r := Capture(end, 3*time.Minute, 101, window, 0)
	assert.Equal(t, 100.0, r.Low)
	assert.Equal(t, 101.0, r.High)
}

func TestCapture_EmptyWindow(t *testing.T) {
	t.Parallel()

	end := time.Date(2024, 3, 4, 9, 33, 0, 0, time.UTC)
	r := Capture(end, 3*time.Minute, 100, nil, 0.001)
	assert.InDelta(t, 99.9, r.Low, 1e-9)
	assert.InDelta(t, 100.1, r.High, 1e-9)
	assert.LessOrEqual(t, r.Low, r.High)
}

func TestCapture_Bounds(t *testing.T) {
	t.Parallel()

	end := time.Date(2024, 3, 4, 9, 33, 0, 0, time.UTC)
	const theta = 0.00005
	for seed := 0; seed < 20; seed++ {
		var window []pricing.Candle
		rawLow, rawHigh := 100.0, 100.0
		for i := 0; i < 10; i++ {
			mid := 100 + float64((seed*7+i*13)%11)/10 - 0.5
			c := pricing.Candle{Time: end.Add(-time.Duration(10-i) * time.Second), High: mid + 0.05, Low: mid - 0.05, Close: mid}
			window = append(window, c)
			rawLow = min(rawLow, c.Low)
			rawHigh = max(rawHigh, c.High)
		}

		r := Capture(end, 3*time.Minute, 100, window, theta)
		assert.LessOrEqual(t, r.Low, r.High)
		assert.GreaterOrEqual(t, r.Low, rawLow*(1-theta)-1e-12)
		assert.LessOrEqual(t, r.High, rawHigh*(1+theta)+1e-12)
		assert.Less(t, r.Low, rawLow)
		assert.Greater(t, r.High, rawHigh)
	}
}

func TestWindow(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	var samples []pricing.Candle
	for i := 0; i < 6; i++ {
		samples = append(samples, pricing.Point("SPY", t0.Add(time.Duration(i)*time.Minute), 100+float64(i)))
	}

	got := Window(samples, t0.Add(time.Minute), t0.Add(4*time.Minute))
	require.Len(t, got, 3)
	assert.Equal(t, 101.0, got[0].Close)
	assert.Equal(t, 103.0, got[2].Close)
}

func TestOpeningRangeStale(t *testing.T) {
	t.Parallel()

	end := time.Date(2024, 3, 4, 9, 33, 0, 0, time.UTC)
	r := OpeningRange{End: end, Low: 99, High: 101}

	assert.True(t, r.Stale(end))
	assert.True(t, r.Stale(end.Add(-time.Second)))
	assert.False(t, r.Stale(end.Add(time.Second)))
	assert.True(t, r.Stale(end.Add(24*time.Hour)))

	assert.True(t, r.BreaksAbove(101.01))
	assert.False(t, r.BreaksAbove(101))
	assert.True(t, r.BreaksBelow(98.99))
	assert.False(t, r.BreaksBelow(99))
}

func TestHours(t *testing.T) {
	t.Parallel()

	h := newYork(t)
	// 2024-03-11 is the Monday after the DST switch
	mon := time.Date(2024, 3, 11, 13, 30, 0, 0, time.UTC)
	assert.True(t, h.OpenAt(mon).Equal(mon))
	assert.True(t, h.InSession(mon))
	assert.False(t, h.InSession(mon.Add(-time.Second)))
	assert.True(t, h.CloseAt(mon).Equal(time.Date(2024, 3, 11, 20, 0, 0, 0, time.UTC)))
	assert.False(t, h.InSession(h.CloseAt(mon)))
	assert.Equal(t, 10*time.Hour, h.TimeOfDay(mon.Add(30*time.Minute)))

	sat := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	assert.False(t, h.TradingDay(sat))
	assert.False(t, h.InSession(sat))
}

func TestNewHours_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewHours("Nowhere/Special", "09:30", "16:00")
	assert.Error(t, err)
	_, err = NewHours("UTC", "9h30", "16:00")
	assert.Error(t, err)
	_, err = NewHours("UTC", "16:00", "09:30")
	assert.Error(t, err)
}

type recorder struct {
	events []string
}

func (r *recorder) OnSessionStart(ctx context.Context, open time.Time) error {
	r.events = append(r.events, "start "+open.UTC().Format("01-02 15:04"))
	return nil
}

func (r *recorder) OnWarmupComplete(ctx context.Context) error {
	r.events = append(r.events, "warm")
	return nil
}

func (r *recorder) OnSessionOpenOffset(ctx context.Context, at time.Time) error {
	r.events = append(r.events, "range "+at.UTC().Format("01-02 15:04"))
	return nil
}

func (r *recorder) OnSessionEnd(ctx context.Context, at time.Time) error {
	r.events = append(r.events, "end "+at.UTC().Format("01-02 15:04"))
	return nil
}

func TestClock(t *testing.T) {
	t.Parallel()

	h, err := NewHours("UTC", "09:30", "16:00")
	require.NoError(t, err)

	rec := &recorder{}
	c := NewClock(h, 3*time.Minute, 1, rec)
	ctx := context.Background()

	day1 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	at := func(d time.Time, hh, mm int) time.Time {
		return d.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
	}

	require.NoError(t, c.Advance(ctx, at(day1, 9, 0)))
	assert.False(t, c.InSession())
	require.NoError(t, c.Advance(ctx, at(day1, 9, 30)))
	assert.True(t, c.InSession())
	require.NoError(t, c.Advance(ctx, at(day1, 9, 32)))
	require.NoError(t, c.Advance(ctx, at(day1, 9, 33)))
	require.NoError(t, c.Advance(ctx, at(day1, 9, 34)))
	require.NoError(t, c.Advance(ctx, at(day1, 16, 0)))
	assert.False(t, c.InSession())

	// first sample of day 2 arrives after the range time
	require.NoError(t, c.Advance(ctx, at(day2, 9, 40)))
	require.NoError(t, c.Finish(ctx))
	require.NoError(t, c.Finish(ctx))

	want := []string{
		"start 03-04 09:30",
		"range 03-04 09:33",
		"end 03-04 16:00",
		"warm",
		"start 03-05 09:30",
		"range 03-05 09:33",
		"end 03-05 16:00",
	}
	assert.Equal(t, want, rec.events, fmt.Sprint(rec.events))
	assert.Equal(t, 2, c.Completed())
}

func TestClock_WarmBeforeFirstSession(t *testing.T) {
	t.Parallel()

	h, err := NewHours("UTC", "09:30", "16:00")
	require.NoError(t, err)

	rec := &recorder{}
	c := NewClock(h, 3*time.Minute, 0, rec)
	require.NoError(t, c.Advance(context.Background(), time.Date(2024, 3, 4, 9, 31, 0, 0, time.UTC)))
	assert.Equal(t, []string{"warm", "start 03-04 09:30"}, rec.events)
}
