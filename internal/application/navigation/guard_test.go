package navigation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-auth/internal/application/navigation"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/domain/rbac"
)

func newGuard(t *testing.T) *navigation.Guard {
	t.Helper()
	m, err := rbac.DefaultMatrix()
	require.NoError(t, err)
	return navigation.NewGuard(rbac.NewEngine(m), nil, nil)
}

func principal(role entity.Role) *entity.Principal {
	return &entity.Principal{UserID: "u1", CompanyID: "c1", Role: role}
}

func TestDecide_CajeroPideConfiguracion(t *testing.T) {
	g := newGuard(t)

	d := g.Decide(principal(entity.RoleCashier), rbac.PageSettings)
	assert.False(t, d.Allowed)
	assert.False(t, d.Denied)
	assert.Equal(t, rbac.PagePOS, d.Redirect, "primera página accesible según la prioridad configurada")

	d = g.Decide(principal(entity.RoleCashier), rbac.PagePOS)
	assert.True(t, d.Allowed)
}

func TestDecide_SinSesion(t *testing.T) {
	g := newGuard(t)

	for _, page := range []rbac.Resource{rbac.PageLogin, rbac.PageRegister, rbac.PageVerifyAccount, rbac.PageStorefront} {
		assert.True(t, g.Decide(nil, page).Allowed, "página pública %s", page)
	}
	d := g.Decide(nil, rbac.PageDashboard)
	assert.False(t, d.Allowed)
	assert.Equal(t, rbac.PageLogin, d.Redirect)

	d = g.Decide(nil, rbac.PageAccessDenied)
	assert.Equal(t, rbac.PageLogin, d.Redirect)
}

func TestDecide_VerificarCuentaConSesion(t *testing.T) {
	g := newGuard(t)
	d := g.Decide(principal(entity.RoleOwner), rbac.PageVerifyAccount)
	assert.False(t, d.Allowed)
	assert.True(t, d.Logout)
	assert.Equal(t, rbac.PageVerifyAccount, d.Redirect)
}

func TestDecide_LoginConSesionVaAlInicio(t *testing.T) {
	g := newGuard(t)
	d := g.Decide(principal(entity.RoleStocker), rbac.PageLogin)
	assert.False(t, d.Allowed)
	assert.False(t, d.Logout)
	assert.Equal(t, rbac.PageInventory, d.Redirect)

	assert.True(t, g.Decide(principal(entity.RoleStocker), rbac.PageStorefront).Allowed)
}

func TestDecide_PaginasExcluidasNuncaSonDestino(t *testing.T) {
	// Matriz donde el único recurso del cajero son páginas excluidas.
	m, err := rbac.NewMatrix(map[entity.Role][]rbac.Resource{
		entity.RoleCashier: {rbac.PageStorefront, rbac.PageVerifyAccount},
		entity.RoleOwner:   {rbac.PageDashboard},
	})
	require.NoError(t, err)
	landing := []rbac.Resource{rbac.PageStorefront, rbac.PageVerifyAccount, rbac.PageDashboard}
	g := navigation.NewGuard(rbac.NewEngine(m), landing, nil)

	d := g.Decide(principal(entity.RoleCashier), rbac.PageOrders)
	assert.True(t, d.Denied, "sin destinos válidos el estado es terminal")
	assert.Equal(t, rbac.PageAccessDenied, d.Redirect)
	assert.True(t, g.Decide(principal(entity.RoleCashier), rbac.PageAccessDenied).Allowed)

	d = g.Decide(principal(entity.RoleOwner), rbac.PageOrders)
	assert.Equal(t, rbac.PageDashboard, d.Redirect)
}

func TestDecide_PaginaDesconocidaSeDeniega(t *testing.T) {
	g := newGuard(t)
	d := g.Decide(principal(entity.RoleOwner), rbac.Resource("page:no-existe"))
	assert.False(t, d.Allowed)
	assert.Equal(t, rbac.PageDashboard, d.Redirect)
}

func TestLanding_PorRol(t *testing.T) {
	g := newGuard(t)
	cases := map[entity.Role]rbac.Resource{
		entity.RoleOwner:   rbac.PageDashboard,
		entity.RoleManager: rbac.PageDashboard,
		entity.RoleCashier: rbac.PagePOS,
		entity.RoleStocker: rbac.PageInventory,
	}
	for role, want := range cases {
		got, ok := g.Landing(role)
		assert.True(t, ok)
		assert.Equal(t, want, got, "rol %s", role)
	}
}
