package ports

import "time"

// AuthMetrics puerto para instrumentar decisiones de autenticación sin acoplar la aplicación a Prometheus.
type AuthMetrics interface {
	// LoginAttempt outcome: success, invalid_credentials, disabled, error.
	LoginAttempt(outcome string)
	// Registration outcome: success, conflict, invalid, error.
	Registration(outcome string)
	// TokenCheck outcome: ok, invalid_token, revoked, disabled, store_unavailable.
	TokenCheck(outcome string, lookup time.Duration)
	// Authorization decision: allow, deny, redirect.
	Authorization(kind, decision string)
}

// NopMetrics implementación vacía.
type NopMetrics struct{}

func (NopMetrics) LoginAttempt(string)              {}
func (NopMetrics) Registration(string)              {}
func (NopMetrics) TokenCheck(string, time.Duration) {}
func (NopMetrics) Authorization(string, string)     {}
