package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/invorya-auth/internal/application/credential"
	"github.com/jhoicas/invorya-auth/internal/application/dto"
	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/domain/repository"
	"github.com/jhoicas/invorya-auth/pkg/jwt"
	"github.com/jhoicas/invorya-auth/pkg/logger"
)

const defaultRevocationTimeout = 500 * time.Millisecond

// TokenService emite y verifica tokens firmados (implementado por jwt.Manager).
type TokenService interface {
	Issue(user *entity.User) (string, time.Time, error)
	Verify(token string) (*jwt.Claims, error)
}

// RegistrationTxRunner ejecuta el alta de empresa + owner en una sola transacción.
type RegistrationTxRunner interface {
	RunRegistration(ctx context.Context, fn func(companies repository.CompanyRepository, users repository.UserRepository) error) error
}

// Options dependencias opcionales del caso de uso.
type Options struct {
	RevocationTimeout time.Duration
	Events            ports.EventPublisher
	Metrics           ports.AuthMetrics
	Logger            *logger.Logger
}

// AuthUseCase casos de uso de autenticación: registro, login, validación de tokens y sesiones.
type AuthUseCase struct {
	store             *credential.Store
	tx                RegistrationTxRunner
	tokens            TokenService
	events            ports.EventPublisher
	metrics           ports.AuthMetrics
	log               *logger.Logger
	revocationTimeout time.Duration
	now               func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(store *credential.Store, tx RegistrationTxRunner, tokens TokenService, opts Options) *AuthUseCase {
	uc := &AuthUseCase{
		store:             store,
		tx:                tx,
		tokens:            tokens,
		events:            opts.Events,
		metrics:           opts.Metrics,
		log:               opts.Logger,
		revocationTimeout: opts.RevocationTimeout,
		now:               time.Now,
	}
	if uc.revocationTimeout <= 0 {
		uc.revocationTimeout = defaultRevocationTimeout
	}
	if uc.metrics == nil {
		uc.metrics = ports.NopMetrics{}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	return uc
}

// Register crea la empresa y su primer usuario (owner) en una transacción y devuelve un token.
// ErrConflict si la empresa o el email ya existen.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.LoginResponse, error) {
	user, err := uc.store.PrepareUser(in.Email, in.Password, entity.RoleOwner, nil)
	if err != nil {
		uc.metrics.Registration("invalid")
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}

	var company *entity.Company
	err = uc.tx.RunRegistration(ctx, func(companies repository.CompanyRepository, users repository.UserRepository) error {
		st := uc.store.InTx(companies, users)
		c, err := st.CreateTenant(ctx, in.CompanyName)
		if err != nil {
			return err
		}
		if err := st.InsertUser(ctx, c.ID, user); err != nil {
			return err
		}
		company = c
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict):
			uc.metrics.Registration("conflict")
		case errors.Is(err, domain.ErrInvalidInput):
			uc.metrics.Registration("invalid")
		default:
			uc.metrics.Registration("error")
		}
		return nil, err
	}

	resp, err := uc.issue(user)
	if err != nil {
		uc.metrics.Registration("error")
		return nil, err
	}
	uc.metrics.Registration("success")
	uc.log.Info().Str("company_id", company.ID).Str("user_id", user.ID).Msg("empresa registrada")
	uc.publish(ctx, ports.EventTenantRegistered, user, "")
	return resp, nil
}

// Login verifica credenciales y emite un token.
// Email o empresa desconocidos y password incorrecta producen el mismo ErrUnauthorized;
// un usuario deshabilitado solo se revela (ErrForbidden) tras una password correcta.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.matchCredentials(ctx, in)
	if err != nil {
		uc.metrics.LoginAttempt("error")
		return nil, err
	}
	if user == nil {
		uc.metrics.LoginAttempt("invalid_credentials")
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive() {
		uc.metrics.LoginAttempt("disabled")
		uc.log.Warn().Str("company_id", user.CompanyID).Str("user_id", user.ID).Msg("login de usuario deshabilitado")
		return nil, domain.ErrForbidden
	}
	resp, err := uc.issue(user)
	if err != nil {
		uc.metrics.LoginAttempt("error")
		return nil, err
	}
	uc.metrics.LoginAttempt("success")
	uc.log.Info().Str("company_id", user.CompanyID).Str("user_id", user.ID).Msg("login correcto")
	return resp, nil
}

// matchCredentials devuelve el usuario cuya password coincide, o nil.
func (uc *AuthUseCase) matchCredentials(ctx context.Context, in dto.LoginRequest) (*entity.User, error) {
	if hint := strings.TrimSpace(in.Company); hint != "" {
		company, err := uc.store.FindTenant(ctx, hint)
		if err != nil {
			return nil, err
		}
		if company == nil {
			uc.store.VerifyDummy(in.Password)
			return nil, nil
		}
		user, err := uc.store.FindUserByEmail(ctx, company.ID, in.Email)
		if err != nil {
			return nil, err
		}
		if !uc.store.VerifyPassword(user, in.Password) {
			return nil, nil
		}
		return user, nil
	}

	// Sin empresa: candidatos de todas las empresas por antigüedad; gana la primera coincidencia.
	candidates, err := uc.store.FindUsersByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		uc.store.VerifyDummy(in.Password)
		return nil, nil
	}
	for _, u := range candidates {
		if uc.store.VerifyPassword(u, in.Password) {
			return u, nil
		}
	}
	return nil, nil
}

// Authenticate valida el token y resuelve el principal contra el estado vivo del usuario.
// La consulta está acotada por RevocationTimeout y se reintenta una vez; si el store no responde
// se rechaza la petición (ErrUnauthorized).
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*entity.Principal, error) {
	claims, err := uc.tokens.Verify(token)
	if err != nil {
		uc.metrics.TokenCheck("invalid_token", 0)
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	start := uc.now()
	user, err := uc.lookupUser(ctx, claims.UserID)
	elapsed := uc.now().Sub(start)
	if err != nil {
		uc.metrics.TokenCheck("store_unavailable", elapsed)
		uc.log.Error().Err(err).Str("user_id", claims.UserID).Msg("consulta de revocación fallida")
		return nil, fmt.Errorf("%w: no se pudo validar la sesión", domain.ErrUnauthorized)
	}
	if user == nil || user.CompanyID != claims.CompanyID {
		uc.metrics.TokenCheck("revoked", elapsed)
		return nil, fmt.Errorf("%w: usuario inexistente", domain.ErrUnauthorized)
	}
	if !user.IsActive() {
		uc.metrics.TokenCheck("disabled", elapsed)
		return nil, domain.ErrForbidden
	}
	if user.TokenVersion != claims.TokenVersion || user.Role != claims.Role || !sameStore(user.WarehouseID, claims.StoreID) {
		uc.metrics.TokenCheck("revoked", elapsed)
		return nil, fmt.Errorf("%w: sesión revocada", domain.ErrUnauthorized)
	}

	uc.metrics.TokenCheck("ok", elapsed)
	return &entity.Principal{
		UserID:       user.ID,
		CompanyID:    user.CompanyID,
		StoreID:      user.WarehouseID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	}, nil
}

func (uc *AuthUseCase) lookupUser(ctx context.Context, userID string) (*entity.User, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, uc.revocationTimeout)
		user, err := uc.store.FindUserByID(attemptCtx, userID)
		cancel()
		if err == nil {
			return user, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// Logout invalida todos los tokens vigentes del usuario.
func (uc *AuthUseCase) Logout(ctx context.Context, p *entity.Principal) error {
	if p == nil {
		return domain.ErrUnauthorized
	}
	user, err := uc.store.IncrementTokenVersion(ctx, p.CompanyID, p.UserID)
	if err != nil {
		return err
	}
	uc.publish(ctx, ports.EventUserLoggedOut, user, p.UserID)
	return nil
}

// Revoke invalida los tokens de un usuario de la empresa indicada.
func (uc *AuthUseCase) Revoke(ctx context.Context, companyID, userID string) error {
	user, err := uc.store.IncrementTokenVersion(ctx, companyID, userID)
	if err != nil {
		return err
	}
	uc.publish(ctx, ports.EventUserRevoked, user, "")
	return nil
}

// Me devuelve el usuario autenticado.
func (uc *AuthUseCase) Me(ctx context.Context, p *entity.Principal) (*dto.UserResponse, error) {
	if p == nil {
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.store.FindUserInCompany(ctx, p.CompanyID, p.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	return ToUserResponse(user), nil
}

// Refresh emite un token nuevo para la misma versión de sesión.
func (uc *AuthUseCase) Refresh(ctx context.Context, p *entity.Principal) (*dto.LoginResponse, error) {
	if p == nil {
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.store.FindUserInCompany(ctx, p.CompanyID, p.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.TokenVersion != p.TokenVersion {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive() {
		return nil, domain.ErrForbidden
	}
	return uc.issue(user)
}

// ChangePassword cambia la contraseña, revoca las sesiones anteriores y devuelve un token nuevo.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, p *entity.Principal, in dto.ChangePasswordRequest) (*dto.LoginResponse, error) {
	if p == nil {
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.store.FindUserInCompany(ctx, p.CompanyID, p.UserID)
	if err != nil {
		return nil, err
	}
	if !uc.store.VerifyPassword(user, in.CurrentPassword) {
		return nil, domain.ErrUnauthorized
	}
	updated, err := uc.store.ChangePassword(ctx, p.CompanyID, p.UserID, in.NewPassword)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, ports.EventPasswordChanged, updated, p.UserID)
	return uc.issue(updated)
}

func (uc *AuthUseCase) issue(user *entity.User) (*dto.LoginResponse, error) {
	token, exp, err := uc.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("auth: emitir token: %w", err)
	}
	return &dto.LoginResponse{Token: token, ExpiresAt: exp, User: *ToUserResponse(user)}, nil
}

func (uc *AuthUseCase) publish(ctx context.Context, kind string, user *entity.User, actorID string) {
	publishEvent(ctx, uc.events, uc.log, kind, user, actorID, uc.now())
}

// publishEvent envía el evento sin afectar el resultado de la operación.
func publishEvent(ctx context.Context, pub ports.EventPublisher, log *logger.Logger, kind string, user *entity.User, actorID string, at time.Time) {
	if pub == nil || user == nil {
		return
	}
	ev := ports.AuthEvent{
		Type:         kind,
		CompanyID:    user.CompanyID,
		UserID:       user.ID,
		ActorID:      actorID,
		Role:         string(user.Role),
		StoreID:      user.WarehouseID,
		TokenVersion: user.TokenVersion,
		OccurredAt:   at.UTC(),
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", kind).Str("user_id", user.ID).Msg("no se pudo publicar evento")
	}
}

func sameStore(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ToUserResponse convierte la entidad en su DTO público.
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		StoreID:   u.WarehouseID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
