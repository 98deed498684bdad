package navigation

import (
	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/domain/rbac"
)

// Decision resultado de evaluar una navegación.
// Si Allowed es false, Redirect indica a dónde ir; Denied marca el estado terminal sin páginas accesibles.
type Decision struct {
	Allowed  bool
	Redirect rbac.Resource
	Logout   bool
	Denied   bool
}

// DefaultLandingOrder prioridad de páginas para redirecciones.
var DefaultLandingOrder = []rbac.Resource{
	rbac.PageDashboard,
	rbac.PagePOS,
	rbac.PageOrders,
	rbac.PageInventory,
	rbac.PageProducts,
	rbac.PageCategories,
	rbac.PageStores,
	rbac.PageEmployees,
	rbac.PageReports,
	rbac.PageSettings,
}

// Páginas accesibles sin sesión.
var publicPages = map[rbac.Resource]struct{}{
	rbac.PageLogin:         {},
	rbac.PageRegister:      {},
	rbac.PageVerifyAccount: {},
	rbac.PageStorefront:    {},
}

// Nunca se ofrecen como destino automático aunque el rol pudiera verlas.
var excludedTargets = map[rbac.Resource]struct{}{
	rbac.PageVerifyAccount: {},
	rbac.PageStorefront:    {},
	rbac.PageLogin:         {},
	rbac.PageRegister:      {},
	rbac.PageAccessDenied:  {},
}

// Guard decide la navegación de páginas a partir del principal y la matriz de permisos.
type Guard struct {
	engine  *rbac.Engine
	landing []rbac.Resource
	metrics ports.AuthMetrics
}

// NewGuard construye el guard. landing vacío usa DefaultLandingOrder.
func NewGuard(engine *rbac.Engine, landing []rbac.Resource, metrics ports.AuthMetrics) *Guard {
	if len(landing) == 0 {
		landing = DefaultLandingOrder
	}
	candidates := make([]rbac.Resource, 0, len(landing))
	for _, page := range landing {
		if _, skip := excludedTargets[page]; skip || !page.IsPage() {
			continue
		}
		candidates = append(candidates, page)
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Guard{engine: engine, landing: candidates, metrics: metrics}
}

// IsPublic informa si la página no requiere sesión.
func IsPublic(page rbac.Resource) bool {
	_, ok := publicPages[page]
	return ok
}

// Decide evalúa la página solicitada. principal nil = sin sesión.
func (g *Guard) Decide(p *entity.Principal, page rbac.Resource) Decision {
	d := g.decide(p, page)
	switch {
	case d.Allowed:
		g.metrics.Authorization("page", "allow")
	case d.Denied:
		g.metrics.Authorization("page", "deny")
	default:
		g.metrics.Authorization("page", "redirect")
	}
	return d
}

func (g *Guard) decide(p *entity.Principal, page rbac.Resource) Decision {
	if p == nil {
		if IsPublic(page) {
			return Decision{Allowed: true}
		}
		return Decision{Redirect: rbac.PageLogin}
	}

	switch page {
	case rbac.PageVerifyAccount:
		// Solo para usuarios sin sesión: se cierra la sesión y se vuelve a la misma página.
		return Decision{Logout: true, Redirect: rbac.PageVerifyAccount}
	case rbac.PageStorefront:
		return Decision{Allowed: true}
	case rbac.PageAccessDenied:
		return Decision{Allowed: true}
	case rbac.PageLogin, rbac.PageRegister:
		// Con sesión activa no tiene sentido volver a entrar.
		return g.landingFor(p.Role)
	}

	if g.engine.CanAccess(p.Role, page) {
		return Decision{Allowed: true}
	}
	return g.landingFor(p.Role)
}

// Landing primera página accesible para el rol (destino tras login).
func (g *Guard) Landing(role entity.Role) (rbac.Resource, bool) {
	return g.engine.FirstAccessible(role, g.landing)
}

func (g *Guard) landingFor(role entity.Role) Decision {
	if target, ok := g.Landing(role); ok {
		return Decision{Redirect: target}
	}
	return Decision{Redirect: rbac.PageAccessDenied, Denied: true}
}
