// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AuthEventsTotal         *prometheus.CounterVec
	EnergyAwardedTotal      prometheus.Counter
	UsersBannedTotal        prometheus.Counter
	AuditWriteFailuresTotal *prometheus.CounterVec
}

// New creates and registers all metrics on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecraft_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sitecraft_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecraft_auth_events_total",
				Help: "Registration and login attempts by outcome",
			},
			[]string{"event", "outcome"},
		),
		EnergyAwardedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sitecraft_energy_awarded_total",
				Help: "Sum of energy credited by administrators",
			},
		),
		UsersBannedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sitecraft_users_banned_total",
				Help: "Accounts removed by administrators",
			},
		),
		AuditWriteFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitecraft_audit_write_failures_total",
				Help: "Best-effort session or audit writes that failed",
			},
			[]string{"action"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthEventsTotal,
		m.EnergyAwardedTotal,
		m.UsersBannedTotal,
		m.AuditWriteFailuresTotal,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// AuthEvent records a register or login attempt.
func (m *Metrics) AuthEvent(event string, ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeFailure
	}
	m.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

// EnergyAwarded records a committed award.
func (m *Metrics) EnergyAwarded(amount int64) {
	if m == nil {
		return
	}
	m.EnergyAwardedTotal.Add(float64(amount))
}

// UserBanned records a committed account removal.
func (m *Metrics) UserBanned(n int) {
	if m == nil {
		return
	}
	m.UsersBannedTotal.Add(float64(n))
}

// AuditWriteFailed records a lost best-effort write.
func (m *Metrics) AuditWriteFailed(action string) {
	if m == nil {
		return
	}
	m.AuditWriteFailuresTotal.WithLabelValues(action).Inc()
}
