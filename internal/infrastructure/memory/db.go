// Package memory implementa los puertos de persistencia en memoria.
// Emula las restricciones únicas de PostgreSQL (nombre de empresa, email por empresa)
// para que tests y el modo STORAGE_DRIVER=memory se comporten como producción.
package memory

import (
	"sync"

	"github.com/jhoicas/invorya-auth/internal/domain/entity"
)

// DB estado compartido por los repositorios en memoria.
type DB struct {
	mu         sync.RWMutex
	companies  map[string]*entity.Company
	users      map[string]*entity.User
	warehouses map[string]*entity.Warehouse
}

// NewDB crea una base vacía.
func NewDB() *DB {
	return &DB{
		companies:  make(map[string]*entity.Company),
		users:      make(map[string]*entity.User),
		warehouses: make(map[string]*entity.Warehouse),
	}
}

func copyCompany(c *entity.Company) *entity.Company {
	cp := *c
	return &cp
}

func copyUser(u *entity.User) *entity.User {
	cp := *u
	if u.WarehouseID != nil {
		w := *u.WarehouseID
		cp.WarehouseID = &w
	}
	return &cp
}

func copyWarehouse(w *entity.Warehouse) *entity.Warehouse {
	cp := *w
	return &cp
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}
