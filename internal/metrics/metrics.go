// Package metrics exposes the coordinator's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is nil-safe: a nil receiver turns every record call into a
// no-op, so tests and tools can run without a registry.
type Metrics struct {
	connections prometheus.Gauge
	messages    *prometheus.CounterVec
	broadcasts  prometheus.Counter
	dropped     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "presence",
			Name:      "connections",
			Help:      "Currently open client connections.",
		}),
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "messages_total",
			Help:      "Inbound messages handled, by type.",
		}, []string{"type"}),
		broadcasts: f.NewCounter(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "broadcast_frames_total",
			Help:      "Frames fanned out to room members.",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "dropped_frames_total",
			Help:      "Frames dropped: malformed input or undeliverable sends.",
		}),
	}
}

func (m *Metrics) ConnOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) Message(t string) {
	if m != nil {
		m.messages.WithLabelValues(t).Inc()
	}
}

func (m *Metrics) Broadcast() {
	if m != nil {
		m.broadcasts.Inc()
	}
}

func (m *Metrics) Dropped() {
	if m != nil {
		m.dropped.Inc()
	}
}
