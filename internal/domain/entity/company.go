package entity

import (
	"strings"
	"time"
)

// Company representa una organización/tenant del sistema. Es la raíz del aislamiento de datos.
type Company struct {
	ID        string
	Name      string
	Status    string // active, suspended
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Estados de Company.
const (
	CompanyStatusActive    = "active"
	CompanyStatusSuspended = "suspended"
)

// NormalizeCompanyName clave de unicidad del nombre de empresa (sin distinguir mayúsculas).
func NormalizeCompanyName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
