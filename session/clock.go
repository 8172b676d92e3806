package session

import (
	"context"
	"time"
)

// Handler receives session boundary events.
type Handler interface {
	OnSessionStart(ctx context.Context, open time.Time) error
	OnWarmupComplete(ctx context.Context) error
	OnSessionOpenOffset(ctx context.Context, at time.Time) error
	OnSessionEnd(ctx context.Context, at time.Time) error
}

// Clock derives session events from the timestamps of an ordered sample
// stream. Each event fires at most once per session, before the sample
// that makes it due is delivered.
type Clock struct {
	hours          Hours
	span           time.Duration
	warmupSessions int
	h              Handler

	day       time.Time
	inSession bool
	rangeDone bool
	completed int
	warmed    bool
}

// NewClock fires OnWarmupComplete once warmupSessions sessions have ended;
// zero fires it before the first session starts.
func NewClock(hours Hours, span time.Duration, warmupSessions int, h Handler) *Clock {
	return &Clock{
		hours:          hours,
		span:           span,
		warmupSessions: warmupSessions,
		h:              h,
	}
}

// InSession reports whether a session is open.
func (c *Clock) InSession() bool { return c.inSession }

// Completed is the number of sessions that have ended.
func (c *Clock) Completed() int { return c.completed }

// Advance fires every event due at or before t.
func (c *Clock) Advance(ctx context.Context, t time.Time) error {
	if c.inSession {
		closeAt := c.hours.CloseAt(c.day)
		if !c.hours.Date(t).Equal(c.day) || !t.Before(closeAt) {
			if err := c.end(ctx, closeAt); err != nil {
				return err
			}
		}
	}

	if !c.inSession && c.hours.InSession(t) && !c.hours.Date(t).Equal(c.day) {
		if err := c.maybeWarm(ctx); err != nil {
			return err
		}
		c.day = c.hours.Date(t)
		c.inSession = true
		c.rangeDone = false
		if err := c.h.OnSessionStart(ctx, c.hours.OpenAt(t)); err != nil {
			return err
		}
	}

	if c.inSession && !c.rangeDone {
		at := c.hours.OpenAt(c.day).Add(c.span)
		if !t.Before(at) {
			c.rangeDone = true
			if err := c.h.OnSessionOpenOffset(ctx, at); err != nil {
				return err
			}
		}
	}
	return nil
}

// Finish closes a session left open at the end of the stream.
func (c *Clock) Finish(ctx context.Context) error {
	if !c.inSession {
		return nil
	}
	return c.end(ctx, c.hours.CloseAt(c.day))
}

func (c *Clock) end(ctx context.Context, at time.Time) error {
	c.inSession = false
	c.completed++
	if err := c.h.OnSessionEnd(ctx, at); err != nil {
		return err
	}
	return c.maybeWarm(ctx)
}

func (c *Clock) maybeWarm(ctx context.Context) error {
	if c.warmed || c.completed < c.warmupSessions {
		return nil
	}
	c.warmed = true
	return c.h.OnWarmupComplete(ctx)
}
