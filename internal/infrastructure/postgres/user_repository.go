package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, company_id, warehouse_id, email, password_hash, name, role, status, token_version, created_at, updated_at`

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
// Todas las mutaciones incrementan token_version en la misma sentencia.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador. Acepta pool o tx (Querier).
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo usuario. ErrConflict si (company_id, email) ya existe.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, company_id, warehouse_id, email, password_hash, name, role, status, token_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		user.ID, user.CompanyID, user.WarehouseID, entity.NormalizeEmail(user.Email), user.PasswordHash, user.Name,
		string(user.Role), user.Status, user.TokenVersion, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email ya registrado en la empresa", domain.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID (resolución del principal).
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.one(ctx, "get user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByIDAndCompany obtiene un usuario por ID dentro de una empresa.
func (r *UserRepo) GetByIDAndCompany(ctx context.Context, id, companyID string) (*entity.User, error) {
	return r.one(ctx, "get user by id and company", `SELECT `+userColumns+` FROM users WHERE id = $1 AND company_id = $2`, id, companyID)
}

// GetByEmailAndCompany obtiene un usuario por email y company.
func (r *UserRepo) GetByEmailAndCompany(ctx context.Context, email, companyID string) (*entity.User, error) {
	return r.one(ctx, "get user by email and company", `SELECT `+userColumns+` FROM users WHERE email = $1 AND company_id = $2`,
		entity.NormalizeEmail(email), companyID)
}

// ListByEmail usuarios con ese email en cualquier empresa, por antigüedad.
func (r *UserRepo) ListByEmail(ctx context.Context, email string) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 ORDER BY created_at, id`
	return r.many(ctx, "list users by email", query, entity.NormalizeEmail(email))
}

// ListByCompany lista usuarios por company con paginación.
func (r *UserRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`
	return r.many(ctx, "list users", query, companyID, limit, offset)
}

// UpdateRole cambia el rol e incrementa token_version.
func (r *UserRepo) UpdateRole(ctx context.Context, companyID, id string, role entity.Role) (*entity.User, error) {
	return r.mutate(ctx, "update role", `role = $3`, companyID, id, string(role))
}

// UpdateWarehouse cambia la tienda e incrementa token_version.
func (r *UserRepo) UpdateWarehouse(ctx context.Context, companyID, id string, warehouseID *string) (*entity.User, error) {
	return r.mutate(ctx, "update warehouse", `warehouse_id = $3`, companyID, id, warehouseID)
}

// UpdateStatus cambia el estado e incrementa token_version.
func (r *UserRepo) UpdateStatus(ctx context.Context, companyID, id, status string) (*entity.User, error) {
	return r.mutate(ctx, "update status", `status = $3`, companyID, id, status)
}

// UpdatePassword cambia el hash e incrementa token_version.
func (r *UserRepo) UpdatePassword(ctx context.Context, companyID, id, passwordHash string) (*entity.User, error) {
	return r.mutate(ctx, "update password", `password_hash = $3`, companyID, id, passwordHash)
}

// IncrementTokenVersion revoca los tokens emitidos.
func (r *UserRepo) IncrementTokenVersion(ctx context.Context, companyID, id string) (*entity.User, error) {
	query := `
		UPDATE users SET token_version = token_version + 1, updated_at = now()
		WHERE company_id = $1 AND id = $2
		RETURNING ` + userColumns
	return r.returning(ctx, "increment token version", query, companyID, id)
}

// mutate aplica un SET extra junto con el incremento de versión; ErrNotFound si no hay fila en la empresa.
func (r *UserRepo) mutate(ctx context.Context, op, set, companyID, id string, value any) (*entity.User, error) {
	query := `
		UPDATE users SET ` + set + `, token_version = token_version + 1, updated_at = now()
		WHERE company_id = $1 AND id = $2
		RETURNING ` + userColumns
	return r.returning(ctx, op, query, companyID, id, value)
}

func (r *UserRepo) returning(ctx context.Context, op, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) || isInvalidText(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r *UserRepo) one(ctx context.Context, op, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r *UserRepo) many(ctx context.Context, op, query string, args ...any) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		if isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	var role string
	err := row.Scan(
		&u.ID, &u.CompanyID, &u.WarehouseID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.Status,
		&u.TokenVersion, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	return &u, nil
}
