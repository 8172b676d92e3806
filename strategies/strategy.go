package strategies

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/breakout/broker"
	"github.com/rustyeddy/breakout/metrics"
	"github.com/rustyeddy/breakout/pricing"
	"github.com/rustyeddy/breakout/session"
)

// Strategy is a sample driven decision engine for one instrument. It
// receives samples, session events and order events.
type Strategy interface {
	session.Handler
	broker.OrderEventListener
	Warm(history []pricing.Candle)
	OnSample(ctx context.Context, c pricing.Candle) error
}

// Deps are the collaborators a strategy is built with.
type Deps struct {
	Config    *BreakoutConfig
	Hours     session.Hours
	Execution broker.Execution
	Portfolio broker.Portfolio
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

type Factory func(d Deps) (Strategy, error)

var registry = make(map[string]Factory)

func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

// Names lists the registered strategies.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func StrategyByName(name string, d Deps) (Strategy, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(d)
}

func init() {
	f := func(d Deps) (Strategy, error) {
		return NewBreakout(d.Config, d.Hours, d.Execution, d.Portfolio,
			WithLogger(d.Logger),
			WithMetrics(d.Metrics),
		)
	}
	Register("opening-range-breakout", f)
	Register("orb", f)
}
