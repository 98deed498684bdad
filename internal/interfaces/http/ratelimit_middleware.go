package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/invorya-auth/internal/application/dto"
	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/pkg/logger"
)

// RateLimitConfig límites de un grupo de rutas (login, registro).
type RateLimitConfig struct {
	Limit      int
	Window     time.Duration
	Prefix     string
	FailClosed bool // limitador caído: true = 429, false = dejar pasar
	Now        func() time.Time
}

// RateLimitRecorder cuenta los rechazos (lo implementa *metrics.AuthMetrics).
type RateLimitRecorder interface {
	RateLimitHit(route string)
}

// RateLimit limita por ruta e IP de origen. La clave no incluye el email para no
// revelar cuentas existentes a través del contador.
func RateLimit(limiter ports.RateLimiter, routeID string, cfg RateLimitConfig, rec RateLimitRecorder, log *logger.Logger) fiber.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		if limiter == nil || cfg.Limit <= 0 {
			return c.Next()
		}
		key := cfg.Prefix + ":" + routeID + ":" + c.IP()
		decision, err := limiter.Allow(c.UserContext(), key, cfg.Limit, cfg.Window)
		if err != nil {
			log.Warn().Err(err).Str("route", routeID).Msg("rate limiter no disponible")
			if cfg.FailClosed {
				return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMIT_UNAVAILABLE", Message: "límite de peticiones no disponible"})
			}
			return c.Next()
		}
		writeRateLimitHeaders(c, decision, cfg.Now())
		if !decision.Allowed {
			if rec != nil {
				rec.RateLimitHit(routeID)
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas solicitudes, intente más tarde"})
		}
		return c.Next()
	}
}

func writeRateLimitHeaders(c *fiber.Ctx, d ports.RateLimitDecision, now time.Time) {
	if d.Limit > 0 {
		c.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
	}
	if d.Remaining >= 0 {
		c.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
	}
	if d.ResetAt.IsZero() {
		return
	}
	c.Set("RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	if !d.Allowed {
		secs := int64(d.ResetAt.Sub(now).Seconds() + 0.999)
		if secs < 1 {
			secs = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(secs, 10))
	}
}
