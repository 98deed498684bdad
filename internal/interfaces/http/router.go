package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/invorya-auth/internal/application/auth"
	"github.com/jhoicas/invorya-auth/internal/application/navigation"
	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/internal/application/usecase"
	"github.com/jhoicas/invorya-auth/internal/domain/rbac"
	"github.com/jhoicas/invorya-auth/pkg/logger"
)

// Metrics lo que el router necesita de las métricas (lo implementa *metrics.AuthMetrics).
type Metrics interface {
	ports.AuthMetrics
	HTTPRecorder
	RateLimitRecorder
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	UserAdminUC *auth.UserAdminUseCase
	CompanyUC   *usecase.CompanyUseCase
	WarehouseUC *usecase.WarehouseUseCase
	Engine      *rbac.Engine
	Guard       *navigation.Guard
	RateLimiter ports.RateLimiter // nil = sin límite
	RateLimit   RateLimitConfig
	Metrics     Metrics // nil = sin métricas
	Logger      *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	var (
		authzMetrics ports.AuthMetrics = ports.NopMetrics{}
		httpRec      HTTPRecorder
		limitRec     RateLimitRecorder
	)
	if deps.Metrics != nil {
		authzMetrics, httpRec, limitRec = deps.Metrics, deps.Metrics, deps.Metrics
	}

	api := app.Group("/api", RequestLogger(log.Component("http"), httpRec))
	authn := AuthMiddleware(deps.AuthUC)

	// Auth (público + sesión)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.Engine)
	authGroup.Post("/register", RateLimit(deps.RateLimiter, "register", deps.RateLimit, limitRec, log), authHandler.Register)
	authGroup.Post("/login", RateLimit(deps.RateLimiter, "login", deps.RateLimit, limitRec, log), authHandler.Login)
	authGroup.Post("/logout", authn, authHandler.Logout)
	authGroup.Post("/refresh", authn, authHandler.Refresh)
	authGroup.Get("/me", authn, authHandler.Me)
	authGroup.Post("/password", authn, RateLimit(deps.RateLimiter, "password", deps.RateLimit, limitRec, log), authHandler.ChangePassword)
	authGroup.Get("/permissions", authn, authHandler.Permissions)

	// Navegación (sesión opcional)
	navHandler := NewNavigationHandler(deps.Guard)
	api.Get("/navigation", OptionalAuth(deps.AuthUC), navHandler.Decide)

	// Rutas protegidas (requieren Bearer Token)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	api.Get("/companies/me", authn, RequireResource(deps.Engine, rbac.APICompany, authzMetrics), companyHandler.Me)

	warehouses := api.Group("/warehouses", authn)
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	canRead := RequireResource(deps.Engine, rbac.APIStores, authzMetrics)
	canManage := RequireResource(deps.Engine, rbac.APIStoresManage, authzMetrics)
	warehouses.Get("/", canRead, warehouseHandler.List)
	warehouses.Get("/:id", canRead, warehouseHandler.GetByID)
	warehouses.Post("/", canManage, warehouseHandler.Create)
	warehouses.Put("/:id", canManage, warehouseHandler.Update)
	warehouses.Delete("/:id", canManage, warehouseHandler.Delete)

	users := api.Group("/users", authn, RequireResource(deps.Engine, rbac.APIUsers, authzMetrics))
	userHandler := NewUserHandler(deps.UserAdminUC)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Put("/:id/role", userHandler.SetRole)
	users.Put("/:id/store", userHandler.SetStore)
	users.Post("/:id/disable", userHandler.Disable)
	users.Post("/:id/enable", userHandler.Enable)
	users.Post("/:id/revoke", userHandler.Revoke)
}
