package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/invorya-auth/internal/application/dto"
	"github.com/jhoicas/invorya-auth/internal/application/navigation"
	"github.com/jhoicas/invorya-auth/internal/domain/rbac"
)

// NavigationHandler expone la decisión del guard de páginas a los clientes web.
type NavigationHandler struct {
	guard *navigation.Guard
}

// NewNavigationHandler construye el handler.
func NewNavigationHandler(guard *navigation.Guard) *NavigationHandler {
	return &NavigationHandler{guard: guard}
}

// Decide godoc
// @Summary      Evaluar navegación a una página
// @Description  Sesión opcional: un token inválido se trata como visitante sin sesión.
// @Tags         navigation
// @Produce      json
// @Param        page  query  string  true  "Página (page:<nombre>)"
// @Success      200   {object}  dto.NavigationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/navigation [get]
func (h *NavigationHandler) Decide(c *fiber.Ctx) error {
	page := rbac.ParseResource(c.Query("page"))
	if page == "" || !page.IsPage() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "page debe tener la forma page:<nombre>"})
	}
	d := h.guard.Decide(GetPrincipal(c), page)
	return c.JSON(dto.NavigationResponse{
		Page:     string(page),
		Allowed:  d.Allowed,
		Redirect: string(d.Redirect),
		Logout:   d.Logout,
		Denied:   d.Denied,
	})
}
