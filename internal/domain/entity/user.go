package entity

import (
	"fmt"
	"strings"
	"time"
)

// Role rol de un usuario dentro de su empresa. Conjunto cerrado: ver ValidRoles.
type Role string

// Roles válidos para User.
const (
	RoleOwner   Role = "owner"   // dueño de la empresa; se asigna al registrar el tenant
	RoleManager Role = "manager" // administra tiendas y catálogo
	RoleCashier Role = "cashier" // punto de venta
	RoleStocker Role = "stocker" // bodega / inventario
)

// ValidRoles conjunto cerrado de roles aceptados en la frontera de autorización.
var ValidRoles = []Role{RoleOwner, RoleManager, RoleCashier, RoleStocker}

// IsValid informa si el rol pertenece al conjunto cerrado.
func (r Role) IsValid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// ParseRole convierte un string (case-insensitive) en Role. Falla si no pertenece al conjunto.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("rol desconocido %q", s)
	}
	return r, nil
}

// Estados de User.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// User representa un usuario del sistema (pertenece a una Company y opcionalmente a una Warehouse).
type User struct {
	ID           string
	CompanyID    string  // inmutable
	WarehouseID  *string // nil = acceso a toda la empresa
	Email        string  // único por empresa, en minúsculas
	PasswordHash string  // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         Role
	Status       string // active, disabled
	TokenVersion int    // se incrementa para revocar tokens emitidos
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive informa si el usuario puede autenticarse.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// NormalizeEmail normaliza un email para comparaciones y unicidad.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
