package entity

// Principal identidad autenticada resuelta desde el token para la duración de una petición.
// Es el único canal válido para company/tienda en operaciones con alcance de tenant.
type Principal struct {
	UserID       string
	CompanyID    string
	StoreID      *string
	Role         Role
	TokenVersion int
}

// StoreScoped informa si el principal está limitado a una sola tienda.
func (p *Principal) StoreScoped() bool {
	return p != nil && p.StoreID != nil && *p.StoreID != ""
}

// CanSeeStore informa si el principal puede operar sobre la tienda indicada.
func (p *Principal) CanSeeStore(storeID string) bool {
	if p == nil {
		return false
	}
	if !p.StoreScoped() {
		return true
	}
	return *p.StoreID == storeID
}
