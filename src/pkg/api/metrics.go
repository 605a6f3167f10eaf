package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/session"
)

const metricsNamespace = "mindnoscape"

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	EventsTotal     *prometheus.CounterVec
	ActiveSessions  prometheus.GaugeFunc
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer, sm *session.SessionManager) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "data",
				Name:      "events_total",
				Help:      "Domain events published by type",
			},
			[]string{"type"},
		),
		ActiveSessions: factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "auth",
				Name:      "active_sessions",
				Help:      "Number of live bearer sessions",
			},
			func() float64 { return float64(sm.SessionCount()) },
		),
	}
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SubscribeEvents counts every domain event published on em.
func (m *Metrics) SubscribeEvents(em *event.EventManager) {
	em.SubscribeAll(func(e event.Event) {
		m.EventsTotal.WithLabelValues(e.Type.String()).Inc()
	})
}
