package repository

import (
	"context"

	"github.com/jhoicas/invorya-auth/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Todas las lecturas y mutaciones administrativas van acotadas por companyID, salvo
// GetByID (resolución del principal) y ListByEmail (login sin empresa indicada).
// Las búsquedas devuelven (nil, nil) cuando no hay fila.
type UserRepository interface {
	// Create persiste el usuario. Devuelve domain.ErrConflict si (company_id, email) ya existe.
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByIDAndCompany(ctx context.Context, id, companyID string) (*entity.User, error)
	GetByEmailAndCompany(ctx context.Context, email, companyID string) (*entity.User, error)
	// ListByEmail devuelve los usuarios con ese email en cualquier empresa, por antigüedad.
	ListByEmail(ctx context.Context, email string) ([]*entity.User, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.User, error)

	// Mutaciones administrativas: cada una incrementa token_version en la misma sentencia
	// y devuelve el usuario actualizado, o domain.ErrNotFound si no existe en esa empresa.
	UpdateRole(ctx context.Context, companyID, id string, role entity.Role) (*entity.User, error)
	UpdateWarehouse(ctx context.Context, companyID, id string, warehouseID *string) (*entity.User, error)
	UpdateStatus(ctx context.Context, companyID, id, status string) (*entity.User, error)
	UpdatePassword(ctx context.Context, companyID, id, passwordHash string) (*entity.User, error)
	IncrementTokenVersion(ctx context.Context, companyID, id string) (*entity.User, error)
}
