package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommandMetrics records per-command request outcomes and latencies.
//
// A nil *CommandMetrics is valid and all its methods are no-ops, so callers
// never need to branch on whether metrics are enabled.
type CommandMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeConns     prometheus.Gauge
	registeredGauge prometheus.Gauge
	eventsGauge     prometheus.Gauge
}

// NewCommandMetrics creates and registers the command metrics.
// Returns nil (a no-op instance) when the global registry is not
// initialized.
func NewCommandMetrics() *CommandMetrics {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}

	m := &CommandMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rsvpd",
			Name:      "requests_total",
			Help:      "Requests handled, by command and outcome (accepted or rejected).",
		}, []string{"command", "outcome"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rsvpd",
			Name:      "request_duration_seconds",
			Help:      "Time spent executing a request, by command.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}, []string{"command"}),

		activeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rsvpd",
			Name:      "active_connections",
			Help:      "Connections currently being served.",
		}),

		registeredGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rsvpd",
			Name:      "registered_clients",
			Help:      "Clients currently registered.",
		}),

		eventsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rsvpd",
			Name:      "events_total",
			Help:      "Events currently in the catalog.",
		}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.activeConns,
		m.registeredGauge,
		m.eventsGauge,
	)

	return m
}

// ObserveRequest records one handled request.
func (m *CommandMetrics) ObserveRequest(command string, accepted bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	m.requestsTotal.WithLabelValues(command, outcome).Inc()
	m.requestDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// ConnOpened increments the active connection gauge.
func (m *CommandMetrics) ConnOpened() {
	if m == nil {
		return
	}
	m.activeConns.Inc()
}

// ConnClosed decrements the active connection gauge.
func (m *CommandMetrics) ConnClosed() {
	if m == nil {
		return
	}
	m.activeConns.Dec()
}

// SetRegisteredClients updates the registered-clients gauge.
func (m *CommandMetrics) SetRegisteredClients(n int) {
	if m == nil {
		return
	}
	m.registeredGauge.Set(float64(n))
}

// SetEventCount updates the events gauge.
func (m *CommandMetrics) SetEventCount(n int) {
	if m == nil {
		return
	}
	m.eventsGauge.Set(float64(n))
}
