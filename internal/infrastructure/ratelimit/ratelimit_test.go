package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-auth/internal/infrastructure/ratelimit"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func TestMemoryLimiter_AgotaYRecupera(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	lim := ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{Now: c.Now})
	ctx := context.Background()

	for i := 2; i >= 0; i-- {
		d, err := lim.Allow(ctx, "login:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, i, d.Remaining)
	}

	d, err := lim.Allow(ctx, "login:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.True(t, d.ResetAt.After(c.t))

	other, err := lim.Allow(ctx, "login:5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "las claves son independientes")

	c.t = c.t.Add(21 * time.Second)
	d, err = lim.Allow(ctx, "login:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "se recarga un token por tercio de ventana")
}

func TestMemoryLimiter_SinLimite(t *testing.T) {
	lim := ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{})
	d, err := lim.Allow(context.Background(), "k", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiter_Capacidad(t *testing.T) {
	c := &clock{t: time.Now()}
	lim := ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{Now: c.Now, MaxKeys: 1})
	ctx := context.Background()

	_, err := lim.Allow(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	_, err = lim.Allow(ctx, "b", 1, time.Minute)
	assert.Error(t, err)

	c.t = c.t.Add(2 * time.Minute)
	_, err = lim.Allow(ctx, "b", 1, time.Minute)
	assert.NoError(t, err, "las claves inactivas se liberan")
}

// fakeScripter emula el script INCR/PEXPIRE sin servidor Redis.
type fakeScripter struct {
	redis.Scripter
	counts map[string]int64
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	f.counts[keys[0]]++
	return redis.NewCmdResult([]interface{}{f.counts[keys[0]], int64(30000)}, nil)
}

func TestRedisLimiter_InterpretaRespuesta(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lim := ratelimit.NewRedisLimiterWithClient(&fakeScripter{counts: map[string]int64{}}, func() time.Time { return now })
	ctx := context.Background()

	d, err := lim.Allow(ctx, "rl:auth:login:ip", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, now.Add(30*time.Second), d.ResetAt)

	_, _ = lim.Allow(ctx, "rl:auth:login:ip", 2, time.Minute)
	d, err = lim.Allow(ctx, "rl:auth:login:ip", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestNewRedisLimiter_SinDireccion(t *testing.T) {
	_, _, err := ratelimit.NewRedisLimiter("", "", 0)
	assert.Error(t, err)
}
