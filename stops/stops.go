// Package stops manages the protective stop of an open position. A stop
// starts FIXED at a risk-derived price and may switch, once, to TRAILING a
// volatility-adaptive reference.
package stops

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/breakout/broker"
)

var ErrActive = errors.New("stops: a stop is already active")

type Mode uint8

const (
	Fixed Mode = iota
	Trailing
)

func (m Mode) String() string {
	if m == Trailing {
		return "trailing"
	}
	return "fixed"
}

// Reference is the trailing level, e.g. a parabolic SAR.
type Reference interface {
	Ready() bool
	Value() float64
}

// State describes the active stop. It exists only while a position is open.
type State struct {
	Mode      Mode
	Side      broker.Side // side of the position being protected
	Quantity  int64
	StopPrice float64
	OrderID   string
	Filled    bool
}

// trail is the only mode change; there is no way back to Fixed.
func (s *State) trail() bool {
	if s.Mode != Fixed {
		return false
	}
	s.Mode = Trailing
	return true
}

type Manager struct {
	exec       broker.Execution
	activation float64
	state      *State
	log        zerolog.Logger
}

// NewManager switches to trailing once unrealized profit exceeds
// activation (0.0005 = 0.05%).
func NewManager(exec broker.Execution, activation float64, log zerolog.Logger) *Manager {
	return &Manager{
		exec:       exec,
		activation: activation,
		log:        log,
	}
}

// State returns a copy of the active stop.
func (m *Manager) State() (State, bool) {
	if m.state == nil {
		return State{}, false
	}
	return *m.state, true
}

func (m *Manager) Active() bool { return m.state != nil }

// Filled reports whether the active stop order has filled.
func (m *Manager) Filled() bool { return m.state != nil && m.state.Filled }

// FixedStopPrice places the initial stop stopLossPct away from ref on the
// losing side of the position.
func FixedStopPrice(side broker.Side, ref, stopLossPct float64) float64 {
	return ref * (1 - side.Sign()*stopLossPct)
}

// Open submits the initial fixed stop for a new position on side.
func (m *Manager) Open(ctx context.Context, side broker.Side, qty int64, ref, stopLossPct float64) (State, error) {
	if m.state != nil {
		return State{}, ErrActive
	}

	price := FixedStopPrice(side, ref, stopLossPct)
	ticket, err := m.exec.SubmitStopOrder(ctx, side.Opposite(), qty, price)
	if err != nil {
		return State{}, fmt.Errorf("submit stop: %w", err)
	}

	m.state = &State{
		Mode:      Fixed,
		Side:      side,
		Quantity:  qty,
		StopPrice: price,
		OrderID:   ticket.ID,
	}
	m.log.Info().
		Str("side", side.String()).
		Int64("qty", qty).
		Float64("stop", price).
		Str("order", ticket.ID).
		Msg("submitted stop loss")
	return *m.state, nil
}

// ShouldTrail evaluates the FIXED -> TRAILING guard: not trailing yet,
// profit above the activation threshold, the reference on the protective
// side of price and tighter than the current stop.
func (m *Manager) ShouldTrail(price, profitPct float64, ref Reference) bool {
	s := m.state
	if s == nil || s.Mode != Fixed || s.Filled {
		return false
	}
	if !(profitPct > m.activation) || !ref.Ready() {
		return false
	}

	r := ref.Value()
	switch s.Side {
	case broker.Long:
		return r < price && r > s.StopPrice
	case broker.Short:
		return r > price && r < s.StopPrice
	}
	return false
}

// Update runs the transition check and, when trailing, moves the stop to
// the reference. The reference is trusted as-is, so a trailing stop can
// loosen if the reference reverses.
func (m *Manager) Update(ctx context.Context, price, profitPct float64, ref Reference) (bool, error) {
	s := m.state
	if s == nil || s.Filled {
		return false, nil
	}

	switched := false
	if m.ShouldTrail(price, profitPct, ref) {
		switched = s.trail()
		m.log.Info().
			Float64("profit_pct", profitPct).
			Float64("reference", ref.Value()).
			Msg("enabled trailing stop")
	}

	if s.Mode != Trailing || !ref.Ready() {
		return switched, nil
	}

	next := ref.Value()
	if next == s.StopPrice {
		return switched, nil
	}
	if err := m.exec.UpdateStopOrder(ctx, s.OrderID, next); err != nil {
		return switched, fmt.Errorf("update stop: %w", err)
	}
	s.StopPrice = next
	m.log.Debug().Float64("stop", next).Msg("moved trailing stop")
	return switched, nil
}

// OnOrderEvent records a fill of the active stop. It reports whether the
// event belongs to the stop order.
func (m *Manager) OnOrderEvent(ev broker.OrderEvent) bool {
	if m.state == nil || ev.OrderID != m.state.OrderID {
		return false
	}
	if ev.Status == broker.Filled {
		m.state.Filled = true
	}
	return true
}

// Cancel cancels an unfilled stop order and clears the state.
func (m *Manager) Cancel(ctx context.Context) error {
	s := m.state
	if s == nil {
		return nil
	}
	m.state = nil
	if s.Filled {
		return nil
	}
	if err := m.exec.CancelStopOrder(ctx, s.OrderID); err != nil {
		return fmt.Errorf("cancel stop: %w", err)
	}
	m.log.Info().Str("order", s.OrderID).Msg("canceled stop loss")
	return nil
}

// Clear drops the state without touching the order.
func (m *Manager) Clear() { m.state = nil }
