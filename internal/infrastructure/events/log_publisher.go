package events

import (
	"context"

	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/pkg/logger"
)

var _ ports.EventPublisher = (*LogPublisher)(nil)

// LogPublisher escribe los eventos en el log cuando no hay broker configurado.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPublisher{log: log}
}

// Publish nunca falla.
func (p *LogPublisher) Publish(_ context.Context, ev ports.AuthEvent) error {
	e := p.log.Info().
		Str("event", ev.Type).
		Str("company_id", ev.CompanyID).
		Str("user_id", ev.UserID).
		Int("token_version", ev.TokenVersion)
	if ev.ActorID != "" {
		e = e.Str("actor_id", ev.ActorID)
	}
	if ev.Role != "" {
		e = e.Str("role", ev.Role)
	}
	e.Msg("evento de autenticación")
	return nil
}
