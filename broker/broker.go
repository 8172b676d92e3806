// Package broker defines the execution and portfolio collaborators the
// decision engine talks to.
package broker

import (
	"context"
	"time"
)

// Execution submits and manages orders for a single instrument.
type Execution interface {
	SubmitMarketOrder(ctx context.Context, side Side, quantity int64) (OrderTicket, error)
	SubmitStopOrder(ctx context.Context, side Side, quantity int64, stopPrice float64) (OrderTicket, error)
	UpdateStopOrder(ctx context.Context, orderID string, stopPrice float64) error
	CancelStopOrder(ctx context.Context, orderID string) error
	Liquidate(ctx context.Context) error
}

// Portfolio is a read-only view of the account holding the instrument.
type Portfolio interface {
	IsInvested() bool
	UnrealizedProfitPercent() float64
	TotalPortfolioValue() float64
}

// OrderEventListener receives fills and status changes asynchronously to
// order submission.
type OrderEventListener interface {
	OnOrderEvent(ctx context.Context, ev OrderEvent) error
}

type Account struct {
	ID       string
	Currency string
	Cash     float64
	Equity   float64
	Quantity int64 // >0 long, <0 short
}

type OrderTicket struct {
	ID        string
	Type      OrderType
	Side      Side
	Quantity  int64
	StopPrice float64
	Status    OrderStatus
	FillPrice float64
	Time      time.Time
}

type OrderEvent struct {
	OrderID      string
	Type         OrderType
	Status       OrderStatus
	FillPrice    float64
	FillQuantity int64 // signed, negative for sells
	Time         time.Time
}
