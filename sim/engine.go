// Package sim is a paper execution venue for a single instrument. It fills
// market orders at the last close, triggers stop orders against bar
// ranges, marks equity and journals closed trades.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/breakout/broker"
	"github.com/rustyeddy/breakout/internal/id"
	"github.com/rustyeddy/breakout/journal"
	"github.com/rustyeddy/breakout/pricing"
)

var (
	ErrNoPrice       = errors.New("sim: no price yet")
	ErrOrderNotFound = errors.New("sim: order not found")
	ErrNotInvested   = errors.New("sim: no position to protect")
)

// Exit reasons written to the journal.
const (
	ReasonStop      = "stop"
	ReasonLiquidate = "liquidate"
	ReasonMarket    = "market"
)

type Engine struct {
	mu         sync.Mutex
	instrument string
	acct       broker.Account
	last       pricing.Candle
	hasPrice   bool
	pos        position
	stops      map[string]*broker.OrderTicket
	journal    journal.Journal
	listener   broker.OrderEventListener
}

func NewEngine(acct broker.Account, instrument string, j journal.Journal) *Engine {
	if j == nil {
		j = journal.Discard{}
	}
	acct.Equity = acct.Cash
	acct.Quantity = 0
	return &Engine{
		instrument: instrument,
		acct:       acct,
		stops:      make(map[string]*broker.OrderTicket),
		journal:    j,
	}
}

// SetOrderEventListener registers the receiver of fills and
// cancellations. Events are delivered after the engine lock is released,
// so the listener may call back into the engine.
func (e *Engine) SetOrderEventListener(l broker.OrderEventListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

// Account returns a snapshot of cash, equity and the net quantity.
func (e *Engine) Account() broker.Account {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acct
}

// OpenStops returns the working stop orders.
func (e *Engine) OpenStops() []broker.OrderTicket {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]broker.OrderTicket, 0, len(e.stops))
	for _, t := range e.stops {
		out = append(out, *t)
	}
	return out
}

func (e *Engine) IsInvested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.pos.flat()
}

func (e *Engine) UnrealizedProfitPercent() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasPrice {
		return 0
	}
	return e.pos.profitPct(e.last.Close)
}

func (e *Engine) TotalPortfolioValue() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acct.Equity
}

// OnSample advances the market by one bar: working stops are checked
// against its range, then the account is marked at its close.
func (e *Engine) OnSample(ctx context.Context, c pricing.Candle) error {
	e.mu.Lock()

	e.last = c
	e.hasPrice = true

	var events []broker.OrderEvent
	for oid, t := range e.stops {
		px, hit := stopFill(t.Side, t.StopPrice, c)
		if !hit {
			continue
		}
		delete(e.stops, oid)
		qty := min(t.Quantity, abs(e.pos.quantity))
		if qty == 0 {
			events = append(events, canceled(t, c.Time))
			continue
		}
		if err := e.fillLocked(t.Side, qty, px, c.Time, ReasonStop); err != nil {
			e.mu.Unlock()
			return err
		}
		t.Status = broker.Filled
		t.FillPrice = px
		t.Time = c.Time
		events = append(events, broker.OrderEvent{
			OrderID:      oid,
			Type:         broker.StopMarketOrder,
			Status:       broker.Filled,
			FillPrice:    px,
			FillQuantity: int64(t.Side) * qty,
			Time:         c.Time,
		})
	}

	e.revalueLocked()
	err := e.journal.RecordEquity(journal.EquitySnapshot{
		Time:     c.Time,
		Cash:     e.acct.Cash,
		Equity:   e.acct.Equity,
		Quantity: e.acct.Quantity,
	})
	listener := e.listener
	e.mu.Unlock()

	if err != nil {
		return fmt.Errorf("record equity: %w", err)
	}
	return notify(ctx, listener, events)
}

func (e *Engine) SubmitMarketOrder(ctx context.Context, side broker.Side, quantity int64) (broker.OrderTicket, error) {
	if quantity <= 0 {
		return broker.OrderTicket{}, fmt.Errorf("market order: invalid quantity %d", quantity)
	}

	e.mu.Lock()
	if !e.hasPrice {
		e.mu.Unlock()
		return broker.OrderTicket{}, ErrNoPrice
	}

	px := e.last.Close
	at := e.last.Time
	if err := e.fillLocked(side, quantity, px, at, ReasonMarket); err != nil {
		e.mu.Unlock()
		return broker.OrderTicket{}, err
	}
	e.revalueLocked()

	t := broker.OrderTicket{
		ID:        id.At(at),
		Type:      broker.MarketOrder,
		Side:      side,
		Quantity:  quantity,
		Status:    broker.Filled,
		FillPrice: px,
		Time:      at,
	}
	listener := e.listener
	e.mu.Unlock()

	err := notify(ctx, listener, []broker.OrderEvent{{
		OrderID:      t.ID,
		Type:         t.Type,
		Status:       broker.Filled,
		FillPrice:    px,
		FillQuantity: int64(side) * quantity,
		Time:         at,
	}})
	return t, err
}

// SubmitStopOrder places a stop-market order that reduces the open
// position.
func (e *Engine) SubmitStopOrder(ctx context.Context, side broker.Side, quantity int64, stopPrice float64) (broker.OrderTicket, error) {
	if quantity <= 0 || stopPrice <= 0 {
		return broker.OrderTicket{}, fmt.Errorf("stop order: invalid quantity %d or price %v", quantity, stopPrice)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pos.flat() || e.pos.side() == side {
		return broker.OrderTicket{}, ErrNotInvested
	}

	t := &broker.OrderTicket{
		ID:        id.At(e.last.Time),
		Type:      broker.StopMarketOrder,
		Side:      side,
		Quantity:  quantity,
		StopPrice: stopPrice,
		Status:    broker.Submitted,
		Time:      e.last.Time,
	}
	e.stops[t.ID] = t
	return *t, nil
}

func (e *Engine) UpdateStopOrder(ctx context.Context, orderID string, stopPrice float64) error {
	if stopPrice <= 0 {
		return fmt.Errorf("update stop: invalid price %v", stopPrice)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.stops[orderID]
	if !ok {
		return fmt.Errorf("update stop %q: %w", orderID, ErrOrderNotFound)
	}
	t.StopPrice = stopPrice
	t.Status = broker.Updated
	return nil
}

func (e *Engine) CancelStopOrder(ctx context.Context, orderID string) error {
	e.mu.Lock()
	t, ok := e.stops[orderID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("cancel stop %q: %w", orderID, ErrOrderNotFound)
	}
	delete(e.stops, orderID)
	ev := canceled(t, e.last.Time)
	listener := e.listener
	e.mu.Unlock()

	return notify(ctx, listener, []broker.OrderEvent{ev})
}

// Liquidate cancels every working stop and flattens the position at the
// last close.
func (e *Engine) Liquidate(ctx context.Context) error {
	e.mu.Lock()

	var events []broker.OrderEvent
	for oid, t := range e.stops {
		delete(e.stops, oid)
		events = append(events, canceled(t, e.last.Time))
	}

	if !e.pos.flat() {
		if !e.hasPrice {
			e.mu.Unlock()
			return ErrNoPrice
		}
		side := e.pos.side().Opposite()
		qty := abs(e.pos.quantity)
		px, at := e.last.Close, e.last.Time
		if err := e.fillLocked(side, qty, px, at, ReasonLiquidate); err != nil {
			e.mu.Unlock()
			return err
		}
		e.revalueLocked()
		events = append(events, broker.OrderEvent{
			OrderID:      id.At(at),
			Type:         broker.MarketOrder,
			Status:       broker.Filled,
			FillPrice:    px,
			FillQuantity: int64(side) * qty,
			Time:         at,
		})
	}

	listener := e.listener
	e.mu.Unlock()

	return notify(ctx, listener, events)
}

// fillLocked books a fill and journals the trade when it closes the
// position.
func (e *Engine) fillLocked(side broker.Side, qty int64, px float64, at time.Time, reason string) error {
	before := e.pos
	if before.flat() {
		e.pos = position{tradeID: id.At(at), openTime: at}
	}

	pl := e.pos.apply(int64(side)*qty, px)
	e.acct.Cash += pl
	e.acct.Quantity = e.pos.quantity

	if before.flat() || (!e.pos.flat() && sameSign(before.quantity, e.pos.quantity)) {
		return nil
	}

	rec := journal.TradeRecord{
		TradeID:    e.pos.tradeID,
		Instrument: e.instrument,
		Side:       before.side().String(),
		Quantity:   max(before.peak, abs(before.quantity)),
		EntryPrice: before.avgPrice,
		ExitPrice:  px,
		OpenTime:   e.pos.openTime,
		CloseTime:  at,
		RealizedPL: e.pos.realized,
		Reason:     reason,
	}

	if !e.pos.flat() {
		// reversed: the remainder is a new trade
		e.pos.tradeID = id.At(at)
		e.pos.openTime = at
		e.pos.realized = 0
	}

	if err := e.journal.RecordTrade(rec); err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	return nil
}

func (e *Engine) revalueLocked() {
	mark := e.last.Close
	e.acct.Equity = e.acct.Cash + e.pos.unrealized(mark)
}

func canceled(t *broker.OrderTicket, at time.Time) broker.OrderEvent {
	return broker.OrderEvent{
		OrderID: t.ID,
		Type:    t.Type,
		Status:  broker.Canceled,
		Time:    at,
	}
}

func notify(ctx context.Context, l broker.OrderEventListener, events []broker.OrderEvent) error {
	if l == nil {
		return nil
	}
	for _, ev := range events {
		if err := l.OnOrderEvent(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
