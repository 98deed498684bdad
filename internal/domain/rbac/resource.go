package rbac

import "strings"

// Resource identificador de una página ("page:<nombre>") o recurso de API ("api:<nombre>").
type Resource string

// Páginas de la aplicación.
const (
	PageLogin         Resource = "page:login"
	PageRegister      Resource = "page:register"
	PageVerifyAccount Resource = "page:verify-account"
	PageStorefront    Resource = "page:storefront"
	PageAccessDenied  Resource = "page:access-denied"
	PageDashboard     Resource = "page:dashboard"
	PagePOS           Resource = "page:pos"
	PageOrders        Resource = "page:orders"
	PageProducts      Resource = "page:products"
	PageCategories    Resource = "page:categories"
	PageInventory     Resource = "page:inventory"
	PageStores        Resource = "page:stores"
	PageEmployees     Resource = "page:employees"
	PageReports       Resource = "page:reports"
	PageSettings      Resource = "page:settings"
)

// Recursos de API protegidos por RequireResource.
const (
	APICompany      Resource = "api:company"
	APIStores       Resource = "api:stores"
	APIStoresManage Resource = "api:stores.manage"
	APIUsers        Resource = "api:users"
)

// ParseResource normaliza un identificador recibido del cliente. Devuelve "" si no tiene prefijo conocido.
func ParseResource(s string) Resource {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "page:") && !strings.HasPrefix(s, "api:") {
		return ""
	}
	return Resource(s)
}

// IsPage informa si el recurso es una página de navegación.
func (r Resource) IsPage() bool {
	return strings.HasPrefix(string(r), "page:")
}
