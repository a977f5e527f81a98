// Package metrics holds the server's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "duel"

// Metrics is the set of collectors the tick loop updates.
type Metrics struct {
	Registry *prometheus.Registry

	ticks          prometheus.Counter
	tickDuration   prometheus.Histogram
	moves          *prometheus.CounterVec
	players        prometheus.Gauge
	connections    *prometheus.CounterVec
	protocolErrors *prometheus.CounterVec
	gamesFinished  prometheus.Counter
	stateBytes     prometheus.Counter
}

// New registers every collector on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of game ticks run",
		}),

		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent updating and broadcasting one tick",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
		}),

		moves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Card moves attempted, by result",
		}, []string{"result"}),

		players: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players",
			Help:      "Players currently in the game",
		}),

		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Connections seen, by outcome",
		}, []string{"outcome"}),

		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Connections dropped for malformed messages, by message type",
		}, []string{"type"}),

		gamesFinished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "players_finished_total",
			Help:      "Players marked done, by quitting or emptying their stock",
		}),

		stateBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_bytes_total",
			Help:      "Bytes of State messages queued for clients",
		}),
	}
}

func (m *Metrics) ObserveTick(d time.Duration) {
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) Move(ok bool) {
	if ok {
		m.moves.WithLabelValues("ok").Inc()
	} else {
		m.moves.WithLabelValues("rejected").Inc()
	}
}

func (m *Metrics) SetPlayers(n int) {
	m.players.Set(float64(n))
}

// Connection counts a connection outcome: "accepted", "rejected" or "closed".
func (m *Metrics) Connection(outcome string) {
	m.connections.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ProtocolError(msgType string) {
	m.protocolErrors.WithLabelValues(msgType).Inc()
}

func (m *Metrics) PlayerFinished() {
	m.gamesFinished.Inc()
}

func (m *Metrics) StateBytes(n int) {
	m.stateBytes.Add(float64(n))
}
