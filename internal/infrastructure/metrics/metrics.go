package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/invorya-auth/internal/application/ports"
)

var _ ports.AuthMetrics = (*AuthMetrics)(nil)

// AuthMetrics métricas Prometheus del servicio de autenticación.
type AuthMetrics struct {
	LoginTotal        *prometheus.CounterVec
	RegistrationTotal *prometheus.CounterVec
	TokenChecksTotal  *prometheus.CounterVec
	RevocationLookup  prometheus.Histogram
	AuthzDecisions    *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	RateLimited       *prometheus.CounterVec
}

// NewAuthMetrics registra las métricas en reg (prometheus.DefaultRegisterer en producción).
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	f := promauto.With(reg)
	return &AuthMetrics{
		LoginTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invorya",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}), // success, invalid_credentials, disabled, error
		RegistrationTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invorya",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Tenant registrations by outcome.",
		}, []string{"outcome"}),
		TokenChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invorya",
			Subsystem: "auth",
			Name:      "token_checks_total",
			Help:      "Bearer token validations by outcome.",
		}, []string{"outcome"}), // ok, invalid_token, revoked, disabled, store_unavailable
		RevocationLookup: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "invorya",
			Subsystem: "auth",
			Name:      "revocation_lookup_seconds",
			Help:      "Latency of the per-request user/token_version lookup.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		AuthzDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invorya",
			Subsystem: "rbac",
			Name:      "decisions_total",
			Help:      "Authorization decisions by kind (api, page) and result.",
		}, []string{"kind", "decision"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invorya",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "invorya",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invorya",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter by route.",
		}, []string{"route"}),
	}
}

func (m *AuthMetrics) LoginAttempt(outcome string) { m.LoginTotal.WithLabelValues(outcome).Inc() }

func (m *AuthMetrics) Registration(outcome string) { m.RegistrationTotal.WithLabelValues(outcome).Inc() }

func (m *AuthMetrics) TokenCheck(outcome string, lookup time.Duration) {
	m.TokenChecksTotal.WithLabelValues(outcome).Inc()
	if lookup > 0 {
		m.RevocationLookup.Observe(lookup.Seconds())
	}
}

func (m *AuthMetrics) Authorization(kind, decision string) {
	m.AuthzDecisions.WithLabelValues(kind, decision).Inc()
}

// ObserveHTTP registra una petición terminada.
func (m *AuthMetrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RateLimitHit cuenta un rechazo por límite de peticiones.
func (m *AuthMetrics) RateLimitHit(route string) { m.RateLimited.WithLabelValues(route).Inc() }

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
