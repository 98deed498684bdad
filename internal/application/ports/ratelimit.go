package ports

import (
	"context"
	"time"
)

// RateLimitDecision resultado de consultar el limitador.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter ventana fija por clave. Lo implementan Redis (compartido) y memoria (un proceso).
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}
