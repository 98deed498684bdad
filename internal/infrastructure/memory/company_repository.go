package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/domain/repository"
)

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación en memoria de CompanyRepository.
type CompanyRepo struct {
	db *DB
	tx *txLog
}

// NewCompanyRepository construye el repositorio sobre db.
func NewCompanyRepository(db *DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

// Create aplica la unicidad por nombre normalizado.
func (r *CompanyRepo) Create(_ context.Context, company *entity.Company) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := entity.NormalizeCompanyName(company.Name)
	for _, c := range r.db.companies {
		if entity.NormalizeCompanyName(c.Name) == key {
			return fmt.Errorf("%w: empresa %q ya existe", domain.ErrConflict, company.Name)
		}
	}
	if _, ok := r.db.companies[company.ID]; ok {
		return fmt.Errorf("%w: id de empresa duplicado", domain.ErrConflict)
	}
	r.db.companies[company.ID] = copyCompany(company)
	r.tx.addCompany(company.ID)
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.companies[id]
	if !ok {
		return nil, nil
	}
	return copyCompany(c), nil
}

// GetByName obtiene una empresa por nombre (sin distinguir mayúsculas).
func (r *CompanyRepo) GetByName(_ context.Context, name string) (*entity.Company, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	key := entity.NormalizeCompanyName(name)
	for _, c := range r.db.companies {
		if entity.NormalizeCompanyName(c.Name) == key {
			return copyCompany(c), nil
		}
	}
	return nil, nil
}
