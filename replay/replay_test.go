package replay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/breakout/broker"
	"github.com/rustyeddy/breakout/journal"
	"github.com/rustyeddy/breakout/pricing"
	"github.com/rustyeddy/breakout/session"
	"github.com/rustyeddy/breakout/sim"
	"github.com/rustyeddy/breakout/strategies"
)

type recorder struct {
	trades []journal.TradeRecord
	equity []journal.EquitySnapshot
}

func (r *recorder) RecordTrade(t journal.TradeRecord) error {
	r.trades = append(r.trades, t)
	return nil
}

func (r *recorder) RecordEquity(e journal.EquitySnapshot) error {
	r.equity = append(r.equity, e)
	return nil
}

func (r *recorder) Close() error { return nil }

var (
	hours    = session.Hours{Location: time.UTC, Open: 9*time.Hour + 30*time.Minute, Close: 16 * time.Hour}
	tradeDay = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // Monday
)

func at(hh, mm int) time.Time {
	return tradeDay.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

// history is twenty rising daily bars, enough to ready every indicator.
func history() []pricing.Candle {
	start := tradeDay.AddDate(0, 0, -30)
	out := make([]pricing.Candle, 0, 20)
	for i := 0; i < 20; i++ {
		c := 80 + float64(i)
		out = append(out, pricing.Candle{Instrument: "SPY", Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c})
	}
	return out
}

// writeBars writes a session that breaks out above [99, 101] at 9:34, then
// continues with flat bars at px after a 9:35 bar of o/h/l/c.
func writeBars(t *testing.T, o, h, l, c, px float64) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("time,open,high,low,close,volume\n")
	row := func(ts time.Time, o, h, l, c float64) {
		fmt.Fprintf(&sb, "%s,%g,%g,%g,%g,1000\n", ts.Format(time.RFC3339), o, h, l, c)
	}

	row(at(9, 0), 100, 100, 100, 100) // pre-market
	row(at(9, 30), 100, 101, 99, 100.5)
	row(at(9, 31), 100.5, 100.8, 99.2, 100)
	row(at(9, 32), 100, 100.6, 99.5, 100.2)
	row(at(9, 33), 100.2, 101.6, 100.9, 101.5)
	row(at(9, 34), 101.5, 101.8, 101.2, 101.6)
	row(at(9, 35), o, h, l, c)
	for ts := at(9, 36); ts.Before(at(16, 0)); ts = ts.Add(time.Minute) {
		row(ts, px, px, px, px)
	}
	// after the close, then a Saturday
	row(at(16, 5), px, px, px, px)
	row(tradeDay.AddDate(0, 0, 5).Add(10*time.Hour), px, px, px, px)

	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

type fixture struct {
	eng   *sim.Engine
	strat strategies.Strategy
	rec   *recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	rec := &recorder{}
	eng := sim.NewEngine(broker.Account{ID: "paper", Currency: "USD", Cash: 100000}, "SPY", rec)
	strat, err := strategies.StrategyByName("orb", strategies.Deps{
		Hours:     hours,
		Execution: eng,
		Portfolio: eng,
	})
	require.NoError(t, err)
	strat.Warm(history())
	return fixture{eng: eng, strat: strat, rec: rec}
}

func opts() Options {
	return Options{Hours: hours, OpeningSpan: 3 * time.Minute}
}

func TestRunLiquidatesAtSessionEnd(t *testing.T) {
	t.Parallel()

	bars, err := pricing.LoadCandlesCSV(writeBars(t, 101.6, 101.7, 101.6, 101.7, 101.7), "SPY")
	require.NoError(t, err)

	f := newFixture(t)
	res, err := Run(context.Background(), bars, f.eng, f.strat, opts())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Skipped)
	assert.Equal(t, 0, res.Dropped)
	assert.Equal(t, 390, res.Samples)
	assert.Equal(t, 1, res.Sessions)
	assert.Len(t, f.rec.equity, 390)

	require.Len(t, f.rec.trades, 1)
	tr := f.rec.trades[0]
	assert.Equal(t, "long", tr.Side)
	assert.Equal(t, int64(1250), tr.Quantity)
	assert.Equal(t, sim.ReasonLiquidate, tr.Reason)
	assert.InDelta(t, 101.6, tr.EntryPrice, 1e-9)
	assert.InDelta(t, 101.7, tr.ExitPrice, 1e-9)
	assert.InDelta(t, 125.0, tr.RealizedPL, 1e-6)
	assert.Equal(t, at(9, 34), tr.OpenTime)

	assert.Equal(t, int64(0), res.Account.Quantity)
	assert.InDelta(t, 100125.0, res.Account.Equity, 1e-6)
	assert.Empty(t, f.eng.OpenStops())
}

func TestRunExitsOnStop(t *testing.T) {
	t.Parallel()

	bars, err := pricing.LoadCandlesCSV(writeBars(t, 101.6, 101.6, 100.5, 100.8, 100.8), "SPY")
	require.NoError(t, err)

	f := newFixture(t)
	_, err = Run(context.Background(), bars, f.eng, f.strat, opts())
	require.NoError(t, err)

	require.Len(t, f.rec.trades, 1)
	tr := f.rec.trades[0]
	assert.Equal(t, sim.ReasonStop, tr.Reason)
	assert.Equal(t, at(9, 35), tr.CloseTime)
	assert.Less(t, tr.ExitPrice, 101.2)
	assert.Less(t, tr.RealizedPL, 0.0)

	b := f.strat.(*strategies.Breakout)
	assert.Equal(t, at(9, 35), b.Flags().LastExitTime)
	assert.Equal(t, strategies.AwaitingRange, b.Phase())
}

func TestRunDropsOutOfOrderBars(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	bars := []pricing.Candle{
		{Instrument: "SPY", Time: at(9, 30), Open: 100, High: 101, Low: 99, Close: 100},
		{Instrument: "SPY", Time: at(9, 31), Open: 100, High: 101, Low: 99, Close: 100},
		{Instrument: "SPY", Time: at(9, 31), Open: 100, High: 101, Low: 99, Close: 100},
		{Instrument: "SPY", Time: at(9, 30), Open: 100, High: 101, Low: 99, Close: 100},
	}
	res, err := Run(context.Background(), bars, f.eng, f.strat, opts())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Samples)
	assert.Equal(t, 2, res.Dropped)
	assert.Empty(t, f.rec.trades)
}

func TestRunHonorsBoundsAndCancel(t *testing.T) {
	t.Parallel()

	bars, err := pricing.LoadCandlesCSV(writeBars(t, 101.6, 101.7, 101.6, 101.7, 101.7), "SPY")
	require.NoError(t, err)

	f := newFixture(t)
	o := opts()
	o.From = at(9, 30)
	o.To = at(9, 33)
	res, err := Run(context.Background(), bars, f.eng, f.strat, o)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Samples)
	assert.Empty(t, f.rec.trades)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f = newFixture(t)
	_, err = Run(ctx, bars, f.eng, f.strat, opts())
	assert.ErrorIs(t, err, context.Canceled)
}

// rejectingVenue is the paper venue with a broker that refuses stop orders.
type rejectingVenue struct {
	*sim.Engine
	rejected int
}

func (v *rejectingVenue) SubmitStopOrder(context.Context, broker.Side, int64, float64) (broker.OrderTicket, error) {
	v.rejected++
	return broker.OrderTicket{}, errors.New("stop rejected")
}

func TestRunContinuesAfterRejectedStop(t *testing.T) {
	t.Parallel()

	bars, err := pricing.LoadCandlesCSV(writeBars(t, 101.6, 101.7, 101.6, 101.7, 101.7), "SPY")
	require.NoError(t, err)

	rec := &recorder{}
	venue := &rejectingVenue{Engine: sim.NewEngine(broker.Account{ID: "paper", Currency: "USD", Cash: 100000}, "SPY", rec)}
	strat, err := strategies.StrategyByName("orb", strategies.Deps{
		Hours:     hours,
		Execution: venue,
		Portfolio: venue,
	})
	require.NoError(t, err)
	strat.Warm(history())

	res, err := Run(context.Background(), bars, venue, strat, opts())
	require.NoError(t, err)
	assert.Equal(t, 390, res.Samples)
	assert.Equal(t, 1, res.Sessions)
	assert.Equal(t, 1, venue.rejected)

	// flattened at the entry bar instead of holding an unprotected position
	require.Len(t, rec.trades, 1)
	assert.Equal(t, sim.ReasonLiquidate, rec.trades[0].Reason)
	assert.Equal(t, at(9, 34), rec.trades[0].CloseTime)
	assert.Equal(t, int64(0), res.Account.Quantity)
	assert.Equal(t, strategies.AwaitingRange, strat.(*strategies.Breakout).Phase())
}
