package session

import (
	"fmt"
	"time"
	_ "time/tzdata" // sessions are defined in exchange time zones
)

// Hours describes the regular trading window of an exchange.
type Hours struct {
	Location *time.Location
	Open     time.Duration // offset from local midnight
	Close    time.Duration
}

// NewHours parses "HH:MM" open and close times in the named time zone.
func NewHours(tz, open, close string) (Hours, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Hours{}, fmt.Errorf("session: load location %q: %w", tz, err)
	}
	o, err := ParseClock(open)
	if err != nil {
		return Hours{}, err
	}
	c, err := ParseClock(close)
	if err != nil {
		return Hours{}, err
	}
	if c <= o {
		return Hours{}, fmt.Errorf("session: close %s must be after open %s", close, open)
	}
	return Hours{Location: loc, Open: o, Close: c}, nil
}

// ParseClock parses a wall clock "HH:MM" into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("session: bad clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func (h Hours) loc() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

// Date returns local midnight of the day containing t.
func (h Hours) Date(t time.Time) time.Time {
	y, m, d := t.In(h.loc()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, h.loc())
}

// At returns the instant of the wall clock offset on t's local day.
func (h Hours) At(t time.Time, offset time.Duration) time.Time {
	y, m, d := t.In(h.loc()).Date()
	hh := int(offset / time.Hour)
	mm := int((offset % time.Hour) / time.Minute)
	return time.Date(y, m, d, hh, mm, 0, 0, h.loc())
}

func (h Hours) OpenAt(t time.Time) time.Time  { return h.At(t, h.Open) }
func (h Hours) CloseAt(t time.Time) time.Time { return h.At(t, h.Close) }

// TimeOfDay is t's offset from its local midnight.
func (h Hours) TimeOfDay(t time.Time) time.Duration {
	lt := t.In(h.loc())
	return time.Duration(lt.Hour())*time.Hour +
		time.Duration(lt.Minute())*time.Minute +
		time.Duration(lt.Second())*time.Second +
		time.Duration(lt.Nanosecond())
}

// TradingDay reports whether t falls on a weekday.
func (h Hours) TradingDay(t time.Time) bool {
	switch t.In(h.loc()).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// InSession reports open <= t < close on a trading day.
func (h Hours) InSession(t time.Time) bool {
	if !h.TradingDay(t) {
		return false
	}
	return !t.Before(h.OpenAt(t)) && t.Before(h.CloseAt(t))
}
