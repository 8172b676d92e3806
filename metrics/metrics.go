// Package metrics exposes Prometheus instrumentation for the decision
// engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Samples         *prometheus.CounterVec
	Entries         *prometheus.CounterVec
	Exits           *prometheus.CounterVec
	StopTransitions prometheus.Counter
	StopUpdates     prometheus.Counter
	GateRejections  prometheus.Counter
	SizingRefusals  prometheus.Counter
	RangesCaptured  prometheus.Counter
	Phase           prometheus.Gauge
}

// New creates the collectors and registers them with reg when it is not
// nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Samples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakout_samples_total",
				Help: "Price samples seen by the engine, by result",
			},
			[]string{"result"},
		),
		Entries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakout_entries_total",
				Help: "Positions entered, by side",
			},
			[]string{"side"},
		),
		Exits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakout_exits_total",
				Help: "Positions exited, by reason",
			},
			[]string{"reason"},
		),
		StopTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "breakout_stop_trailing_transitions_total",
			Help: "Stops switched from fixed to trailing",
		}),
		StopUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "breakout_stop_updates_total",
			Help: "Trailing stop price updates sent to the broker",
		}),
		GateRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "breakout_volatility_gate_rejections_total",
			Help: "Breakouts blocked by the volatility gate",
		}),
		SizingRefusals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "breakout_sizing_refusals_total",
			Help: "Entries abandoned because sizing failed closed",
		}),
		RangesCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "breakout_opening_ranges_total",
			Help: "Opening ranges captured",
		}),
		Phase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "breakout_phase",
			Help: "Current session phase (0 warmup .. 4 done for day)",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Samples, m.Entries, m.Exits,
			m.StopTransitions, m.StopUpdates,
			m.GateRejections, m.SizingRefusals,
			m.RangesCaptured, m.Phase,
		)
	}
	return m
}

func (m *Metrics) Sample(result string) {
	if m != nil {
		m.Samples.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Entry(side string) {
	if m != nil {
		m.Entries.WithLabelValues(side).Inc()
	}
}

func (m *Metrics) Exit(reason string) {
	if m != nil {
		m.Exits.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) StopTrailing() {
	if m != nil {
		m.StopTransitions.Inc()
	}
}

func (m *Metrics) StopMoved() {
	if m != nil {
		m.StopUpdates.Inc()
	}
}

func (m *Metrics) GateRejected() {
	if m != nil {
		m.GateRejections.Inc()
	}
}

func (m *Metrics) SizingRefused() {
	if m != nil {
		m.SizingRefusals.Inc()
	}
}

func (m *Metrics) RangeCaptured() {
	if m != nil {
		m.RangesCaptured.Inc()
	}
}

func (m *Metrics) SetPhase(p int) {
	if m != nil {
		m.Phase.Set(float64(p))
	}
}

// Handler serves the registry gathered by g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve starts a /metrics endpoint on addr in the background.
func Serve(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
