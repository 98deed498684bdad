package ports

import (
	"context"
	"time"
)

// Tipos de evento de autenticación publicados hacia otros servicios.
const (
	EventTenantRegistered = "auth.tenant_registered"
	EventUserCreated      = "auth.user_created"
	EventUserLoggedOut    = "auth.user_logged_out"
	EventUserRevoked      = "auth.user_revoked"
	EventUserRoleChanged  = "auth.user_role_changed"
	EventUserStoreChanged = "auth.user_store_changed"
	EventUserDisabled     = "auth.user_disabled"
	EventUserEnabled      = "auth.user_enabled"
	EventPasswordChanged  = "auth.password_changed"
)

// AuthEvent cambio en identidades o sesiones. Nunca lleva contraseñas ni tokens.
type AuthEvent struct {
	Type         string    `json:"type"`
	CompanyID    string    `json:"company_id"`
	UserID       string    `json:"user_id"`
	ActorID      string    `json:"actor_id,omitempty"`
	Role         string    `json:"role,omitempty"`
	StoreID      *string   `json:"store_id,omitempty"`
	TokenVersion int       `json:"token_version"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher puerto de salida para eventos de dominio (RabbitMQ, log, mock).
// Un fallo al publicar no debe revertir la operación que lo originó.
type EventPublisher interface {
	Publish(ctx context.Context, event AuthEvent) error
}
