package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/invorya-auth/internal/infrastructure/metrics"
)

func TestAuthMetrics_Contadores(t *testing.T) {
	m := metrics.NewAuthMetrics(prometheus.NewRegistry())

	m.LoginAttempt("success")
	m.LoginAttempt("success")
	m.LoginAttempt("invalid_credentials")
	m.TokenCheck("revoked", 3*time.Millisecond)
	m.Authorization("page", "redirect")
	m.ObserveHTTP("POST", "/api/auth/login", 401, 10*time.Millisecond)
	m.RateLimitHit("/api/auth/login")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginTotal.WithLabelValues("invalid_credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenChecksTotal.WithLabelValues("revoked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDecisions.WithLabelValues("page", "redirect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/auth/login", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("/api/auth/login")))
}

func TestAuthMetrics_RegistrosIndependientes(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.NewAuthMetrics(prometheus.NewRegistry())
		metrics.NewAuthMetrics(prometheus.NewRegistry())
	})
}
