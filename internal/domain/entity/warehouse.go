package entity

import "time"

// Warehouse representa una tienda o bodega de una empresa. Un usuario puede quedar limitado a una sola.
type Warehouse struct {
	ID        string
	CompanyID string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
