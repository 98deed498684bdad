package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/invorya-auth/pkg/logger"
)

// HTTPRecorder métricas por petición (lo implementa *metrics.AuthMetrics).
type HTTPRecorder interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// RequestLogger registra cada petición con su latencia. Nunca incluye cuerpos ni cabeceras
// (contienen passwords y tokens).
func RequestLogger(log *logger.Logger, rec HTTPRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Deja que el ErrorHandler de Fiber fije el status antes de registrar.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}
		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", elapsed).
			Str("ip", c.IP())
		if id := GetCompanyID(c); id != "" {
			ev.Str("company_id", id)
		}
		if id := GetUserID(c); id != "" {
			ev.Str("user_id", id)
		}
		ev.Msg("petición HTTP")

		if rec != nil {
			rec.ObserveHTTP(c.Method(), route, status, elapsed)
		}
		return err
	}
}
