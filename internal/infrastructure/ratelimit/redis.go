package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/redis/go-redis/v9"
)

var _ ports.RateLimiter = (*RedisLimiter)(nil)

// RedisLimiter ventana fija compartida entre instancias (INCR + PEXPIRE atómicos vía Lua).
type RedisLimiter struct {
	client redis.Scripter
	now    func() time.Time
}

var redisAllowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// NewRedisLimiter conecta con Redis. addr es obligatorio.
func NewRedisLimiter(addr, password string, db int) (*RedisLimiter, *redis.Client, error) {
	if addr == "" {
		return nil, nil, errors.New("ratelimit: redis addr es obligatorio")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisLimiterWithClient(client, nil), client, nil
}

// NewRedisLimiterWithClient usa un cliente existente (o un fake en tests).
func NewRedisLimiterWithClient(client redis.Scripter, now func() time.Time) *RedisLimiter {
	if now == nil {
		now = time.Now
	}
	return &RedisLimiter{client: client, now: now}
}

// Allow incrementa el contador de la clave dentro de la ventana.
func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (ports.RateLimitDecision, error) {
	if limit <= 0 {
		return ports.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}
	result, err := redisAllowScript.Run(ctx, r.client, []string{key}, windowMillis).Result()
	if err != nil {
		return ports.RateLimitDecision{}, err
	}
	values, ok := result.([]any)
	if !ok || len(values) < 2 {
		return ports.RateLimitDecision{}, errors.New("ratelimit: respuesta inesperada de redis")
	}
	current, ok := values[0].(int64)
	if !ok {
		return ports.RateLimitDecision{}, errors.New("ratelimit: contador inválido")
	}
	ttlMillis, _ := values[1].(int64)
	resetAt := r.now()
	if ttlMillis > 0 {
		resetAt = resetAt.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	remaining := limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return ports.RateLimitDecision{
		Allowed:   current <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
