package strategies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/breakout/broker"
	"github.com/rustyeddy/breakout/indicators"
	"github.com/rustyeddy/breakout/metrics"
	"github.com/rustyeddy/breakout/pricing"
	"github.com/rustyeddy/breakout/risk"
	"github.com/rustyeddy/breakout/session"
	"github.com/rustyeddy/breakout/stops"
)

var (
	// ErrOutOfOrder reports a sample that is not strictly after the
	// previous one. The sample is dropped; it is never fatal.
	ErrOutOfOrder = errors.New("strategies: out of order sample")
	// ErrInvalidSample reports a sample without a time or a sane price.
	ErrInvalidSample = errors.New("strategies: invalid sample")
)

// Exit reasons reported to metrics.
const (
	exitStop       = "stop"
	exitSessionEnd = "session-end"
	exitExternal   = "external"
	exitMissing    = "missing-stop"
)

// SessionFlags is the state carried between sessions.
type SessionFlags struct {
	WarmupComplete bool // once true, stays true
	LastExitTime   time.Time
	TradedToday    bool
}

// TrailingReference is the level a trailing stop follows. It is reset at
// every session start and fed every live sample.
type TrailingReference interface {
	stops.Reference
	UpdateBar(pricing.Candle)
	Reset()
}

// Breakout trades a breakout of the opening range in the direction of the
// medium term trend, at most once per session.
//
// The engine is single threaded: OnSample, the session events and
// OnOrderEvent must not be called concurrently. Order events may arrive
// re-entrantly from inside an Execution call.
type Breakout struct {
	cfg    *BreakoutConfig
	hours  session.Hours
	span   time.Duration
	cutoff time.Duration
	policy risk.Policy
	gate   risk.VolatilityGate

	exec      broker.Execution
	portfolio broker.Portfolio
	stops     *stops.Manager
	log       zerolog.Logger
	metrics   *metrics.Metrics

	// trend consumes closes of consolidated intraday bars
	trendBars *pricing.Consolidator
	trend     *indicators.HMA

	// volatility consumes daily bars
	atr       *indicators.ATR
	std       *indicators.StdDev
	atrSmooth *indicators.ExponentialMA
	stdSmooth *indicators.ExponentialMA

	trailing TrailingReference

	phase   Phase
	flags   SessionFlags
	rng     *session.OpeningRange
	started bool

	last    pricing.Candle
	day     pricing.Candle
	haveDay bool
	samples []pricing.Candle // trailing opening span, while awaiting the range
}

type Option func(*Breakout)

func WithLogger(l zerolog.Logger) Option {
	return func(b *Breakout) { b.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Breakout) { b.metrics = m }
}

// WithTrailingReference replaces the parabolic SAR built from the config.
func WithTrailingReference(r TrailingReference) Option {
	return func(b *Breakout) { b.trailing = r }
}

func NewBreakout(cfg *BreakoutConfig, hours session.Hours, exec broker.Execution, portfolio broker.Portfolio, opts ...Option) (*Breakout, error) {
	if cfg == nil {
		cfg = BreakoutConfigDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("breakout config: %w", err)
	}
	cutoff, _ := session.ParseClock(cfg.EntryCutoff)

	b := &Breakout{
		cfg:       cfg,
		hours:     hours,
		span:      cfg.OpeningSpan(),
		cutoff:    cutoff,
		policy:    cfg.Policy(),
		gate:      cfg.Gate(),
		exec:      exec,
		portfolio: portfolio,
		log:       zerolog.Nop(),
		trendBars: pricing.NewConsolidator(time.Duration(cfg.TrendBarMinutes) * time.Minute),
		trend:     indicators.NewHMA(cfg.TrendPeriod),
		atr:       indicators.NewATR(cfg.VolatilityPeriod),
		std:       indicators.NewStdDev(cfg.VolatilityPeriod),
		atrSmooth: indicators.NewEMA(cfg.VolatilitySmoothing),
		stdSmooth: indicators.NewEMA(cfg.VolatilitySmoothing),
		trailing:  indicators.NewPSAR(cfg.PSARStart, cfg.PSARIncrement, cfg.PSARMax),
	}
	for _, o := range opts {
		o(b)
	}
	b.log = b.log.With().Str("strategy", "breakout").Str("instrument", cfg.Instrument).Logger()
	b.stops = stops.NewManager(exec, cfg.TrailingActivation, b.log)
	b.metrics.SetPhase(int(b.phase))
	return b, nil
}

func (b *Breakout) Phase() Phase { return b.phase }

func (b *Breakout) Flags() SessionFlags { return b.flags }

// Trend exposes the composite trend indicator.
func (b *Breakout) Trend() *indicators.HMA { return b.trend }

// Range returns the opening range of the current session, if captured.
func (b *Breakout) Range() (session.OpeningRange, bool) {
	if b.rng == nil {
		return session.OpeningRange{}, false
	}
	return *b.rng, true
}

// Stop returns the managed stop of the open position.
func (b *Breakout) Stop() (stops.State, bool) { return b.stops.State() }

// Volatility returns the smoothed ATR and STD read by the gate.
func (b *Breakout) Volatility() (atr, std float64) {
	return b.atrSmooth.Value(), b.stdSmooth.Value()
}

// Warm feeds historical daily bars, oldest first, into the trend and
// volatility chains.
func (b *Breakout) Warm(history []pricing.Candle) {
	for _, c := range history {
		b.updateTrend(c)
		b.updateVolatility(c)
	}
	b.log.Info().
		Int("bars", len(history)).
		Bool("trend_ready", b.trend.Ready()).
		Bool("atr_ready", b.atr.Ready()).
		Msg("warmed indicators from history")
}

// OnSample processes one sample to completion.
func (b *Breakout) OnSample(ctx context.Context, c pricing.Candle) error {
	if !c.Valid() {
		b.metrics.Sample("invalid")
		return fmt.Errorf("%w at %s", ErrInvalidSample, c.Time)
	}
	if !b.last.Time.IsZero() && !c.Time.After(b.last.Time) {
		b.metrics.Sample("dropped")
		b.log.Warn().
			Time("time", c.Time).
			Time("previous", b.last.Time).
			Msg("dropped out of order sample")
		return fmt.Errorf("%w: %s not after %s", ErrOutOfOrder, c.Time, b.last.Time)
	}
	b.metrics.Sample("accepted")
	b.last = c

	b.updateTrend(c)
	if b.haveDay {
		b.day = b.day.Merge(c)
	} else {
		b.day = c
		b.haveDay = true
	}
	if b.phase == AwaitingRange {
		b.remember(c)
	}

	if b.phase == Warmup {
		return nil
	}
	if !b.started {
		b.started = true
		b.log.Info().Time("time", c.Time).Msg("first live sample")
	}

	b.trailing.UpdateBar(c)

	switch b.phase {
	case Armed:
		return b.scanForEntry(ctx, c)
	case InPosition:
		return b.manage(ctx, c)
	}
	return nil
}

func (b *Breakout) OnSessionStart(ctx context.Context, open time.Time) error {
	b.trailing.Reset()
	b.samples = b.samples[:0]
	b.haveDay = false
	b.flags.TradedToday = false
	b.rng = nil
	b.log.Debug().Time("open", open).Str("phase", b.phase.String()).Msg("session start")
	return nil
}

func (b *Breakout) OnWarmupComplete(ctx context.Context) error {
	b.flags.WarmupComplete = true
	b.transition(evWarmupComplete)
	return nil
}

// OnSessionOpenOffset captures the opening range from the samples of the
// span that ends at at.
func (b *Breakout) OnSessionOpenOffset(ctx context.Context, at time.Time) error {
	if b.phase != AwaitingRange || b.flags.TradedToday {
		return nil
	}
	if b.last.Time.IsZero() {
		b.log.Warn().Time("at", at).Msg("no price to seed the opening range")
		return nil
	}

	window := session.Window(b.samples, at.Add(-b.span), at)
	r := session.Capture(at, b.span, b.last.Close, window, b.cfg.BreakoutThreshold)
	b.rng = &r
	b.metrics.RangeCaptured()
	b.log.Info().
		Time("end", r.End).
		Int("samples", len(window)).
		Float64("low", r.Low).
		Float64("high", r.High).
		Msg("captured opening range")
	b.transition(evRangeCaptured)
	return nil
}

// OnSessionEnd flattens any open position, folds the session into the
// daily volatility indicators and resets for the next session.
func (b *Breakout) OnSessionEnd(ctx context.Context, at time.Time) error {
	var err error
	if b.portfolio.IsInvested() {
		b.log.Info().Time("at", at).Msg("liquidating at session end")
		if lerr := b.exec.Liquidate(ctx); lerr != nil {
			err = fmt.Errorf("liquidate: %w", lerr)
		} else {
			b.metrics.Exit(exitSessionEnd)
		}
		b.stops.Clear()
	} else if b.stops.Active() {
		if cerr := b.stops.Cancel(ctx); cerr != nil {
			b.log.Error().Err(cerr).Msg("stop ticket missing at session end")
		}
	}

	if b.haveDay {
		b.updateVolatility(b.day)
		b.haveDay = false
	}
	b.rng = nil
	b.samples = b.samples[:0]
	b.transition(evSessionEnd)
	return err
}

// OnOrderEvent records stop fills and the time of every fill that leaves
// the account flat.
func (b *Breakout) OnOrderEvent(ctx context.Context, ev broker.OrderEvent) error {
	b.stops.OnOrderEvent(ev)
	if ev.Status != broker.Filled {
		return nil
	}

	b.log.Debug().
		Str("order", ev.OrderID).
		Str("type", ev.Type.String()).
		Int64("qty", ev.FillQuantity).
		Float64("price", ev.FillPrice).
		Msg("filled")

	if !b.portfolio.IsInvested() {
		b.flags.LastExitTime = ev.Time
		b.log.Info().Time("time", ev.Time).Float64("price", ev.FillPrice).Msg("exited position")
	}
	return nil
}

func (b *Breakout) scanForEntry(ctx context.Context, c pricing.Candle) error {
	if b.hours.TimeOfDay(c.Time) >= b.cutoff {
		b.log.Info().Time("time", c.Time).Msg("entry cutoff reached")
		b.rng = nil
		b.transition(evCutoff)
		return nil
	}
	if b.rng == nil || b.rng.Stale(c.Time) || b.flags.TradedToday {
		return nil
	}
	if !b.trend.Ready() || b.portfolio.IsInvested() {
		return nil
	}

	price := c.Close
	hma := b.trend.Value()

	var side broker.Side
	switch {
	case price > hma && b.rng.BreaksAbove(price):
		side = broker.Long
	case price < hma && b.rng.BreaksBelow(price):
		side = broker.Short
	default:
		return nil
	}

	smATR, smSTD := b.Volatility()
	if !b.gate.Admits(price, smATR, smSTD) {
		b.metrics.GateRejected()
		b.log.Debug().
			Float64("price", price).
			Float64("atr", smATR).
			Float64("std", smSTD).
			Msg("breakout without enough recent volatility")
		return nil
	}

	pv := b.portfolio.TotalPortfolioValue()
	size, err := b.policy.Size(risk.Inputs{
		PortfolioValue: pv,
		ATR:            b.atr.Value(),
		Price:          price,
		MaxQuantity:    b.policy.MaxQuantity(pv, price),
	})
	if err != nil {
		b.metrics.SizingRefused()
		b.log.Warn().Err(err).Msg("sizing refused trade")
		return nil
	}

	return b.enter(ctx, c, side, size)
}

func (b *Breakout) enter(ctx context.Context, c pricing.Candle, side broker.Side, size risk.Result) error {
	ticket, err := b.exec.SubmitMarketOrder(ctx, side, size.Quantity)
	if err != nil {
		return fmt.Errorf("enter %s: %w", side, err)
	}
	b.flags.TradedToday = true
	b.transition(evEntered)
	b.metrics.Entry(side.String())
	b.log.Info().
		Str("side", side.String()).
		Int64("qty", size.Quantity).
		Float64("price", ticket.FillPrice).
		Float64("stop_pct", size.StopLossPct).
		Msg("entered")

	ref := c.Low
	if side == broker.Short {
		ref = c.High
	}
	if _, err := b.stops.Open(ctx, side, size.Quantity, ref, size.StopLossPct); err != nil {
		b.log.Error().Err(err).Msg("no stop for new position, flattening")
		return b.flatten(ctx, exitMissing)
	}
	return nil
}

func (b *Breakout) manage(ctx context.Context, c pricing.Candle) error {
	if !b.portfolio.IsInvested() {
		if b.stops.Filled() {
			b.stops.Clear()
			b.metrics.Exit(exitStop)
		} else {
			b.log.Warn().Msg("flat without a stop fill, canceling stop")
			if err := b.stops.Cancel(ctx); err != nil {
				b.log.Error().Err(err).Msg("stop ticket missing, flattening")
				return b.flatten(ctx, exitMissing)
			}
			b.metrics.Exit(exitExternal)
		}
		b.done()
		return nil
	}

	if !b.stops.Active() {
		b.log.Error().Msg("invested without a managed stop")
		return b.flatten(ctx, exitMissing)
	}

	before, _ := b.stops.State()
	switched, err := b.stops.Update(ctx, c.Close, b.portfolio.UnrealizedProfitPercent(), b.trailing)
	if switched {
		b.metrics.StopTrailing()
	}
	if after, ok := b.stops.State(); ok && after.StopPrice != before.StopPrice {
		b.metrics.StopMoved()
	}
	if err != nil {
		b.log.Error().Err(err).Msg("stop ticket lost, flattening")
		return b.flatten(ctx, exitMissing)
	}
	return nil
}

// flatten liquidates after an inconsistency and ends the session's
// trading. Only a failed liquidation is returned.
func (b *Breakout) flatten(ctx context.Context, reason string) error {
	err := b.exec.Liquidate(ctx)
	b.stops.Clear()
	b.metrics.Exit(reason)
	b.done()
	if err != nil {
		return fmt.Errorf("liquidate: %w", err)
	}
	return nil
}

func (b *Breakout) done() {
	b.rng = nil
	b.transition(evExited)
}

func (b *Breakout) transition(ev event) {
	next, ok := b.phase.next(ev, b.flags.WarmupComplete)
	if !ok || next == b.phase {
		return
	}
	b.log.Debug().Str("from", b.phase.String()).Str("to", next.String()).Msg("phase")
	b.phase = next
	b.metrics.SetPhase(int(next))
}

// remember keeps the samples of the last opening span.
func (b *Breakout) remember(c pricing.Candle) {
	b.samples = append(b.samples, c)
	cut := c.Time.Add(-b.span)
	i := 0
	for i < len(b.samples) && b.samples[i].Time.Before(cut) {
		i++
	}
	if i > 0 {
		b.samples = append(b.samples[:0], b.samples[i:]...)
	}
}

func (b *Breakout) updateTrend(c pricing.Candle) {
	if bar, ok := b.trendBars.Update(c); ok {
		b.trend.Update(bar.Close)
	}
}

func (b *Breakout) updateVolatility(day pricing.Candle) {
	b.atr.UpdateBar(day)
	b.std.Update(day.Close)
	if b.atr.Ready() {
		b.atrSmooth.Update(b.atr.Value())
	}
	if b.std.Ready() {
		b.stdSmooth.Update(b.std.Value())
	}
}
