package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo implementación en memoria de WarehouseRepository.
type WarehouseRepo struct {
	db *DB
}

// NewWarehouseRepository construye el repositorio sobre db.
func NewWarehouseRepository(db *DB) *WarehouseRepo {
	return &WarehouseRepo{db: db}
}

// Create persiste una tienda.
func (r *WarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.companies[w.CompanyID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := r.db.warehouses[w.ID]; ok {
		return domain.ErrConflict
	}
	r.db.warehouses[w.ID] = copyWarehouse(w)
	return nil
}

// GetByID obtiene una tienda de la empresa; otra empresa equivale a inexistente.
func (r *WarehouseRepo) GetByID(_ context.Context, companyID, id string) (*entity.Warehouse, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	w, ok := r.db.warehouses[id]
	if !ok || w.CompanyID != companyID {
		return nil, nil
	}
	return copyWarehouse(w), nil
}

// Update actualiza nombre y dirección dentro de la empresa.
func (r *WarehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.warehouses[w.ID]
	if !ok || cur.CompanyID != w.CompanyID {
		return domain.ErrNotFound
	}
	cur.Name = w.Name
	cur.Address = w.Address
	cur.UpdatedAt = w.UpdatedAt
	return nil
}

// ListByCompany tiendas de una empresa ordenadas por nombre.
func (r *WarehouseRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Warehouse, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var list []*entity.Warehouse
	for _, w := range r.db.warehouses {
		if w.CompanyID == companyID {
			list = append(list, copyWarehouse(w))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return page(list, limit, offset), nil
}

// Delete elimina una tienda de la empresa.
func (r *WarehouseRepo) Delete(_ context.Context, companyID, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.warehouses[id]
	if !ok || w.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.db.warehouses, id)
	for _, u := range r.db.users {
		if u.WarehouseID != nil && *u.WarehouseID == id {
			u.WarehouseID = nil
			u.TokenVersion++
		}
	}
	return nil
}
