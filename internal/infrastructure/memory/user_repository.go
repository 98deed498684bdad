package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación en memoria de UserRepository.
type UserRepo struct {
	db *DB
	tx *txLog
}

// NewUserRepository construye el repositorio sobre db.
func NewUserRepository(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create aplica la unicidad (company_id, email).
func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.companies[user.CompanyID]; !ok {
		return fmt.Errorf("insert user: empresa %s no existe", user.CompanyID)
	}
	email := entity.NormalizeEmail(user.Email)
	for _, u := range r.db.users {
		if u.CompanyID == user.CompanyID && u.Email == email {
			return fmt.Errorf("%w: email ya registrado en la empresa", domain.ErrConflict)
		}
	}
	if _, ok := r.db.users[user.ID]; ok {
		return fmt.Errorf("%w: id de usuario duplicado", domain.ErrConflict)
	}
	stored := copyUser(user)
	stored.Email = email
	r.db.users[user.ID] = stored
	r.tx.addUser(user.ID)
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

// GetByIDAndCompany obtiene un usuario por ID dentro de una empresa.
func (r *UserRepo) GetByIDAndCompany(_ context.Context, id, companyID string) (*entity.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u, ok := r.db.users[id]
	if !ok || u.CompanyID != companyID {
		return nil, nil
	}
	return copyUser(u), nil
}

// GetByEmailAndCompany obtiene un usuario por email y empresa.
func (r *UserRepo) GetByEmailAndCompany(_ context.Context, email, companyID string) (*entity.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	email = entity.NormalizeEmail(email)
	for _, u := range r.db.users {
		if u.CompanyID == companyID && u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

// ListByEmail usuarios con ese email en cualquier empresa, por antigüedad.
func (r *UserRepo) ListByEmail(_ context.Context, email string) ([]*entity.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	email = entity.NormalizeEmail(email)
	var list []*entity.User
	for _, u := range r.db.users {
		if u.Email == email {
			list = append(list, copyUser(u))
		}
	}
	sortUsers(list)
	return list, nil
}

// ListByCompany usuarios de una empresa con paginación.
func (r *UserRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var list []*entity.User
	for _, u := range r.db.users {
		if u.CompanyID == companyID {
			list = append(list, copyUser(u))
		}
	}
	sortUsers(list)
	return page(list, limit, offset), nil
}

// UpdateRole cambia el rol e incrementa token_version.
func (r *UserRepo) UpdateRole(_ context.Context, companyID, id string, role entity.Role) (*entity.User, error) {
	return r.mutate(companyID, id, func(u *entity.User) { u.Role = role })
}

// UpdateWarehouse cambia la tienda e incrementa token_version.
func (r *UserRepo) UpdateWarehouse(_ context.Context, companyID, id string, warehouseID *string) (*entity.User, error) {
	return r.mutate(companyID, id, func(u *entity.User) {
		if warehouseID == nil {
			u.WarehouseID = nil
			return
		}
		w := *warehouseID
		u.WarehouseID = &w
	})
}

// UpdateStatus cambia el estado e incrementa token_version.
func (r *UserRepo) UpdateStatus(_ context.Context, companyID, id, status string) (*entity.User, error) {
	return r.mutate(companyID, id, func(u *entity.User) { u.Status = status })
}

// UpdatePassword cambia el hash e incrementa token_version.
func (r *UserRepo) UpdatePassword(_ context.Context, companyID, id, passwordHash string) (*entity.User, error) {
	return r.mutate(companyID, id, func(u *entity.User) { u.PasswordHash = passwordHash })
}

// IncrementTokenVersion solo incrementa token_version.
func (r *UserRepo) IncrementTokenVersion(_ context.Context, companyID, id string) (*entity.User, error) {
	return r.mutate(companyID, id, func(*entity.User) {})
}

func (r *UserRepo) mutate(companyID, id string, fn func(u *entity.User)) (*entity.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok || u.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	fn(u)
	u.TokenVersion++
	u.UpdatedAt = time.Now().UTC()
	return copyUser(u), nil
}

func sortUsers(list []*entity.User) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
