package http

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/invorya-auth/internal/application/dto"
	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/domain/rbac"
)

// Locals keys del principal autenticado en Fiber.
const (
	LocalPrincipal = "principal"
	LocalUserID    = "user_id"
	LocalCompanyID = "company_id"
	LocalStoreID   = "store_id"
	LocalRole      = "role"
)

// Authenticator resuelve un token en un principal vigente (lo implementa *auth.AuthUseCase).
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.Principal, error)
}

// AuthMiddleware valida el Bearer Token, comprueba la revocación y carga el principal en c.Locals.
// 401 si falta, es inválido, expiró o fue revocado; 403 si la cuenta está deshabilitada.
func AuthMiddleware(authn Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, errResp := bearerToken(c)
		if errResp != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(errResp)
		}
		principal, err := authn.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "ACCOUNT_DISABLED", Message: "la cuenta está deshabilitada"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		setPrincipal(c, principal)
		return c.Next()
	}
}

// OptionalAuth carga el principal si el token es válido y sigue sin sesión en cualquier otro caso.
func OptionalAuth(authn Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		token, errResp := bearerToken(c)
		if errResp != nil {
			return c.Next()
		}
		if principal, err := authn.Authenticate(c.UserContext(), token); err == nil {
			setPrincipal(c, principal)
		}
		return c.Next()
	}
}

// RequireResource exige que el rol del principal tenga acceso al recurso. Debe ir DESPUÉS de AuthMiddleware.
func RequireResource(engine *rbac.Engine, res rbac.Resource, metrics ports.AuthMetrics) fiber.Handler {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "sesión requerida"})
		}
		if !engine.CanAccess(p.Role, res) {
			metrics.Authorization("api", "deny")
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "no tiene permisos para este recurso"})
		}
		metrics.Authorization("api", "allow")
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, *dto.ErrorResponse) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", &dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"}
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", &dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"}
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", &dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"}
	}
	return token, nil
}

func setPrincipal(c *fiber.Ctx, p *entity.Principal) {
	c.Locals(LocalPrincipal, p)
	c.Locals(LocalUserID, p.UserID)
	c.Locals(LocalCompanyID, p.CompanyID)
	c.Locals(LocalRole, string(p.Role))
	if p.StoreID != nil {
		c.Locals(LocalStoreID, *p.StoreID)
	}
}

// GetPrincipal devuelve el principal autenticado o nil.
func GetPrincipal(c *fiber.Ctx) *entity.Principal {
	p, _ := c.Locals(LocalPrincipal).(*entity.Principal)
	return p
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	return localString(c, LocalUserID)
}

// GetCompanyID devuelve el CompanyID del contexto (después del middleware de auth).
func GetCompanyID(c *fiber.Ctx) string {
	return localString(c, LocalCompanyID)
}

// GetStoreID devuelve la tienda del principal; "" si no está limitado a una tienda.
func GetStoreID(c *fiber.Ctx) string {
	return localString(c, LocalStoreID)
}

// GetRole devuelve el rol del principal.
func GetRole(c *fiber.Ctx) string {
	return localString(c, LocalRole)
}

func localString(c *fiber.Ctx, key string) string {
	v := c.Locals(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
