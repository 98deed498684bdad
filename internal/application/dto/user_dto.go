package dto

import "time"

// RegisterRequest entrada para registro: crea la empresa y su primer usuario (owner).
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required"`
	CompanyName string `json:"company_name" validate:"required,min=2,max=120"`
	Name        string `json:"name" validate:"omitempty,max=200"`
}

// LoginRequest entrada para login. Company es el tenant (id o nombre); vacío = buscar en todas.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Company  string `json:"company" validate:"omitempty,max=120"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// ChangePasswordRequest cambio de contraseña del usuario autenticado.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// CreateUserRequest alta de un empleado en la empresa del administrador (password en texto, se hashea en use case).
type CreateUserRequest struct {
	Email    string  `json:"email" validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required"`
	Name     string  `json:"name" validate:"omitempty,max=200"`
	Role     string  `json:"role" validate:"required,oneof=owner manager cashier stocker"`
	StoreID  *string `json:"store_id" validate:"omitempty,uuid"`
}

// UpdateRoleRequest cambio de rol.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner manager cashier stocker"`
}

// UpdateStoreRequest asignación de tienda; null desasigna.
type UpdateStoreRequest struct {
	StoreID *string `json:"store_id" validate:"omitempty,uuid"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	StoreID   *string   `json:"store_id,omitempty"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse lista paginada de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// PermissionsResponse recursos accesibles por el rol del usuario autenticado.
type PermissionsResponse struct {
	Role      string   `json:"role"`
	Resources []string `json:"resources"`
}
