// Package replay drives a recorded bar stream through the session clock,
// the paper venue and a strategy, in that order for every bar.
package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/breakout/broker"
	"github.com/rustyeddy/breakout/pricing"
	"github.com/rustyeddy/breakout/session"
	"github.com/rustyeddy/breakout/strategies"
)

// Venue is the paper market the replay advances. *sim.Engine implements it.
type Venue interface {
	OnSample(ctx context.Context, c pricing.Candle) error
	SetOrderEventListener(l broker.OrderEventListener)
	Account() broker.Account
}

type Options struct {
	Hours          session.Hours
	OpeningSpan    time.Duration
	WarmupSessions int

	// Optional bounds; zero means unbounded.
	From time.Time
	To   time.Time

	Logger zerolog.Logger
}

type Result struct {
	Samples  int // delivered to the strategy
	Skipped  int // outside the bounds or regular session hours
	Dropped  int // out of order or invalid
	Sessions int
	Account  broker.Account
}

// Run replays bars, which must be sorted by time. Fills from the venue are
// forwarded to the strategy. A session still open at the end of the stream
// is closed, so open positions are flattened.
func Run(ctx context.Context, bars []pricing.Candle, venue Venue, strat strategies.Strategy, opt Options) (Result, error) {
	var res Result
	log := opt.Logger

	venue.SetOrderEventListener(strat)
	clock := session.NewClock(opt.Hours, opt.OpeningSpan, opt.WarmupSessions, strat)

	var last time.Time
	for _, c := range bars {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if (!opt.From.IsZero() && c.Time.Before(opt.From)) ||
			(!opt.To.IsZero() && !c.Time.Before(opt.To)) ||
			!opt.Hours.InSession(c.Time) {
			res.Skipped++
			continue
		}
		if !last.IsZero() && !c.Time.After(last) {
			res.Dropped++
			log.Warn().Time("time", c.Time).Msg("replay: bar out of order")
			continue
		}
		last = c.Time

		if err := clock.Advance(ctx, c.Time); err != nil {
			return res, fmt.Errorf("session events at %s: %w", c.Time, err)
		}
		if err := venue.OnSample(ctx, c); err != nil {
			return res, fmt.Errorf("venue at %s: %w", c.Time, err)
		}

		err := strat.OnSample(ctx, c)
		switch {
		case errors.Is(err, strategies.ErrOutOfOrder), errors.Is(err, strategies.ErrInvalidSample):
			res.Dropped++
			continue
		case err != nil:
			return res, fmt.Errorf("strategy at %s: %w", c.Time, err)
		}
		res.Samples++
	}

	if err := clock.Finish(ctx); err != nil {
		return res, fmt.Errorf("close session: %w", err)
	}

	res.Sessions = clock.Completed()
	res.Account = venue.Account()
	log.Info().
		Int("samples", res.Samples).
		Int("skipped", res.Skipped).
		Int("dropped", res.Dropped).
		Int("sessions", res.Sessions).
		Float64("equity", res.Account.Equity).
		Msg("replay finished")
	return res, nil
}
