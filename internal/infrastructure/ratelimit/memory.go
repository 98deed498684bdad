package ratelimit

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"golang.org/x/time/rate"
)

var _ ports.RateLimiter = (*MemoryLimiter)(nil)

// MemoryLimiter token bucket por clave para una sola instancia (sin Redis).
// Capacidad = limit, recarga completa en window.
type MemoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	data    map[string]*memoryBucket
	maxKeys int
}

type memoryBucket struct {
	lim      *rate.Limiter
	limit    int
	window   time.Duration
	lastSeen time.Time
}

// MemoryLimiterConfig opciones del limitador en memoria.
type MemoryLimiterConfig struct {
	Now     func() time.Time
	MaxKeys int
}

// NewMemoryLimiter construye el limitador.
func NewMemoryLimiter(cfg MemoryLimiterConfig) *MemoryLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &MemoryLimiter{
		now:     cfg.Now,
		data:    make(map[string]*memoryBucket),
		maxKeys: cfg.MaxKeys,
	}
}

// Allow consume un token de la clave.
func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (ports.RateLimitDecision, error) {
	if limit <= 0 {
		return ports.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if window <= 0 {
		window = time.Second
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.data[key]
	if !ok || b.limit != limit || b.window != window {
		if len(m.data) >= m.maxKeys {
			m.gc(now)
		}
		if len(m.data) >= m.maxKeys {
			return ports.RateLimitDecision{}, errors.New("ratelimit: capacidad del limitador excedida")
		}
		every := window / time.Duration(limit)
		b = &memoryBucket{lim: rate.NewLimiter(rate.Every(every), limit), limit: limit, window: window}
		m.data[key] = b
	}
	b.lastSeen = now

	allowed := b.lim.AllowN(now, 1)
	tokens := b.lim.TokensAt(now)
	remaining := int(math.Floor(tokens))
	if remaining < 0 {
		remaining = 0
	}
	// Momento en que vuelve a haber al menos un token.
	resetAt := now
	if tokens < 1 {
		missing := 1 - tokens
		resetAt = now.Add(time.Duration(missing * float64(window) / float64(limit)))
	}
	return ports.RateLimitDecision{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// gc elimina claves inactivas durante más de una ventana (su bucket ya está lleno).
func (m *MemoryLimiter) gc(now time.Time) {
	for key, b := range m.data {
		if now.Sub(b.lastSeen) > b.window {
			delete(m.data, key)
		}
	}
}
