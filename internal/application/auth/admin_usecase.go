package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/invorya-auth/internal/application/credential"
	"github.com/jhoicas/invorya-auth/internal/application/dto"
	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/pkg/logger"
)

// UserAdminUseCase administración de empleados dentro de la empresa del principal.
// Cada cambio de rol, tienda o estado incrementa la versión de sesión del afectado.
type UserAdminUseCase struct {
	store  *credential.Store
	events ports.EventPublisher
	log    *logger.Logger
	now    func() time.Time
}

// NewUserAdminUseCase construye el caso de uso. events y log pueden ser nil.
func NewUserAdminUseCase(store *credential.Store, events ports.EventPublisher, log *logger.Logger) *UserAdminUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UserAdminUseCase{store: store, events: events, log: log, now: time.Now}
}

// CreateUser da de alta un empleado en la empresa del actor.
func (uc *UserAdminUseCase) CreateUser(ctx context.Context, actor *entity.Principal, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	role, err := parseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if err := canGrant(actor, role); err != nil {
		return nil, err
	}
	storeID := in.StoreID
	if actor.StoreScoped() {
		// Un administrador de tienda solo crea empleados en su tienda.
		if storeID != nil && !actor.CanSeeStore(*storeID) {
			return nil, fmt.Errorf("%w: tienda fuera de alcance", domain.ErrForbidden)
		}
		storeID = actor.StoreID
	}

	user, err := uc.store.PrepareUser(in.Email, in.Password, role, storeID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	if err := uc.store.InsertUser(ctx, actor.CompanyID, user); err != nil {
		return nil, err
	}
	uc.log.Info().Str("company_id", actor.CompanyID).Str("user_id", user.ID).Str("role", string(role)).Msg("usuario creado")
	uc.publish(ctx, ports.EventUserCreated, user, actor)
	return ToUserResponse(user), nil
}

// ListUsers usuarios de la empresa del actor (limit/offset).
func (uc *UserAdminUseCase) ListUsers(ctx context.Context, actor *entity.Principal, limit, offset int) (*dto.UserListResponse, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	list, err := uc.store.ListUsers(ctx, actor.CompanyID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		if actor.StoreScoped() && (u.WarehouseID == nil || !actor.CanSeeStore(*u.WarehouseID)) {
			continue
		}
		items = append(items, *ToUserResponse(u))
	}
	return &dto.UserListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// SetRole cambia el rol de otro usuario. Solo un owner otorga o retira el rol owner.
func (uc *UserAdminUseCase) SetRole(ctx context.Context, actor *entity.Principal, userID, rawRole string) (*dto.UserResponse, error) {
	role, err := parseRole(rawRole)
	if err != nil {
		return nil, err
	}
	target, err := uc.target(ctx, actor, userID, true)
	if err != nil {
		return nil, err
	}
	if err := canGrant(actor, role); err != nil {
		return nil, err
	}
	updated, err := uc.store.SetRole(ctx, actor.CompanyID, target.ID, role)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, ports.EventUserRoleChanged, updated, actor)
	return ToUserResponse(updated), nil
}

// SetStore asigna o quita la tienda de un usuario de la misma empresa.
func (uc *UserAdminUseCase) SetStore(ctx context.Context, actor *entity.Principal, userID string, storeID *string) (*dto.UserResponse, error) {
	target, err := uc.target(ctx, actor, userID, false)
	if err != nil {
		return nil, err
	}
	if actor.StoreScoped() && (storeID == nil || !actor.CanSeeStore(*storeID)) {
		return nil, fmt.Errorf("%w: tienda fuera de alcance", domain.ErrForbidden)
	}
	updated, err := uc.store.SetStore(ctx, actor.CompanyID, target.ID, storeID)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, ports.EventUserStoreChanged, updated, actor)
	return ToUserResponse(updated), nil
}

// Disable deshabilita la cuenta; sus tokens dejan de ser válidos de inmediato.
func (uc *UserAdminUseCase) Disable(ctx context.Context, actor *entity.Principal, userID string) (*dto.UserResponse, error) {
	target, err := uc.target(ctx, actor, userID, true)
	if err != nil {
		return nil, err
	}
	updated, err := uc.store.DisableUser(ctx, actor.CompanyID, target.ID)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("company_id", actor.CompanyID).Str("user_id", target.ID).Msg("usuario deshabilitado")
	uc.publish(ctx, ports.EventUserDisabled, updated, actor)
	return ToUserResponse(updated), nil
}

// Enable reactiva la cuenta.
func (uc *UserAdminUseCase) Enable(ctx context.Context, actor *entity.Principal, userID string) (*dto.UserResponse, error) {
	target, err := uc.target(ctx, actor, userID, true)
	if err != nil {
		return nil, err
	}
	updated, err := uc.store.EnableUser(ctx, actor.CompanyID, target.ID)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, ports.EventUserEnabled, updated, actor)
	return ToUserResponse(updated), nil
}

// Revoke cierra todas las sesiones del usuario (permitido sobre uno mismo).
func (uc *UserAdminUseCase) Revoke(ctx context.Context, actor *entity.Principal, userID string) error {
	target, err := uc.target(ctx, actor, userID, false)
	if err != nil {
		return err
	}
	updated, err := uc.store.IncrementTokenVersion(ctx, actor.CompanyID, target.ID)
	if err != nil {
		return err
	}
	uc.publish(ctx, ports.EventUserRevoked, updated, actor)
	return nil
}

// target carga el usuario afectado dentro de la empresa del actor y aplica las reglas comunes.
func (uc *UserAdminUseCase) target(ctx context.Context, actor *entity.Principal, userID string, rejectSelf bool) (*entity.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if rejectSelf && userID == actor.UserID {
		return nil, domain.ErrSelfModification
	}
	user, err := uc.store.FindUserInCompany(ctx, actor.CompanyID, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	if user.Role == entity.RoleOwner && actor.Role != entity.RoleOwner {
		return nil, fmt.Errorf("%w: solo un owner modifica a otro owner", domain.ErrForbidden)
	}
	if actor.StoreScoped() && (user.WarehouseID == nil || !actor.CanSeeStore(*user.WarehouseID)) {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func parseRole(raw string) (entity.Role, error) {
	role, err := entity.ParseRole(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return role, nil
}

func canGrant(actor *entity.Principal, role entity.Role) error {
	if role == entity.RoleOwner && actor.Role != entity.RoleOwner {
		return fmt.Errorf("%w: solo un owner otorga el rol owner", domain.ErrForbidden)
	}
	return nil
}

func (uc *UserAdminUseCase) publish(ctx context.Context, kind string, user *entity.User, actor *entity.Principal) {
	publishEvent(ctx, uc.events, uc.log, kind, user, actor.UserID, uc.now())
}
