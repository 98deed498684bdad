package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-auth/internal/application/dto"
	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/infrastructure/memory"
)

func (h *harness) principal(t *testing.T, token string) *entity.Principal {
	t.Helper()
	p, err := h.auth.Authenticate(context.Background(), token)
	require.NoError(t, err)
	return p
}

func TestAdmin_CrearYListar(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.principal(t, h.register(t, "owner@x.com", "passw0rd1", "Co1").Token)
	other := h.principal(t, h.register(t, "owner@y.com", "passw0rd1", "Co2").Token)

	created, err := h.admin.CreateUser(ctx, owner, dto.CreateUserRequest{Email: "caja@x.com", Password: "passw0rd3", Name: "Caja 1", Role: "cashier"})
	require.NoError(t, err)
	assert.Equal(t, owner.CompanyID, created.CompanyID, "la empresa sale del principal")
	assert.Equal(t, "Caja 1", created.Name)

	list, err := h.admin.ListUsers(ctx, owner, 20, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	list, err = h.admin.ListUsers(ctx, other, 20, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1, "no ve usuarios de otra empresa")

	_, err = h.admin.CreateUser(ctx, owner, dto.CreateUserRequest{Email: "x@x.com", Password: "passw0rd3", Role: "root"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Contains(t, h.events.types(), ports.EventUserCreated)
}

func TestAdmin_ReglasDeRol(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.principal(t, h.register(t, "owner@x.com", "passw0rd1", "Co1").Token)

	mgr, err := h.admin.CreateUser(ctx, owner, dto.CreateUserRequest{Email: "mgr@x.com", Password: "passw0rd3", Role: "manager"})
	require.NoError(t, err)
	caja, err := h.admin.CreateUser(ctx, owner, dto.CreateUserRequest{Email: "caja@x.com", Password: "passw0rd3", Role: "cashier"})
	require.NoError(t, err)

	// Un manager con permiso de administración no puede crear ni tocar owners.
	manager := &entity.Principal{UserID: mgr.ID, CompanyID: owner.CompanyID, Role: entity.RoleManager}
	_, err = h.admin.SetRole(ctx, manager, caja.ID, "owner")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = h.admin.Disable(ctx, manager, owner.UserID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = h.admin.CreateUser(ctx, manager, dto.CreateUserRequest{Email: "o2@x.com", Password: "passw0rd3", Role: "owner"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Nadie cambia su propio rol o estado.
	_, err = h.admin.SetRole(ctx, owner, owner.UserID, "cashier")
	assert.ErrorIs(t, err, domain.ErrSelfModification)
	_, err = h.admin.Disable(ctx, owner, owner.UserID)
	assert.ErrorIs(t, err, domain.ErrSelfModification)

	updated, err := h.admin.SetRole(ctx, owner, caja.ID, "stocker")
	require.NoError(t, err)
	assert.Equal(t, "stocker", updated.Role)

	disabled, err := h.admin.Disable(ctx, owner, caja.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.UserStatusDisabled, disabled.Status)
	enabled, err := h.admin.Enable(ctx, owner, caja.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.UserStatusActive, enabled.Status)

	assert.NoError(t, h.admin.Revoke(ctx, owner, owner.UserID), "revocar las propias sesiones está permitido")
}

func TestAdmin_OtraEmpresaEsInexistente(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner1 := h.principal(t, h.register(t, "owner@x.com", "passw0rd1", "Co1").Token)
	owner2 := h.register(t, "owner@y.com", "passw0rd1", "Co2")

	_, err := h.admin.Disable(ctx, owner1, owner2.User.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, h.admin.Revoke(ctx, owner1, owner2.User.ID), domain.ErrNotFound)
}

func TestAdmin_AsignarTienda(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.principal(t, h.register(t, "owner@x.com", "passw0rd1", "Co1").Token)
	stores := memory.NewWarehouseRepository(h.db)
	require.NoError(t, stores.Create(ctx, &entity.Warehouse{ID: "11111111-1111-1111-1111-111111111111", CompanyID: owner.CompanyID, Name: "Centro"}))
	storeID := "11111111-1111-1111-1111-111111111111"

	caja, err := h.admin.CreateUser(ctx, owner, dto.CreateUserRequest{Email: "caja@x.com", Password: "passw0rd3", Role: "cashier"})
	require.NoError(t, err)
	login, err := h.auth.Login(ctx, dto.LoginRequest{Email: "caja@x.com", Password: "passw0rd3"})
	require.NoError(t, err)

	updated, err := h.admin.SetStore(ctx, owner, caja.ID, &storeID)
	require.NoError(t, err)
	require.NotNil(t, updated.StoreID)
	assert.Equal(t, storeID, *updated.StoreID)

	_, err = h.auth.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "el cambio de tienda revoca el token")

	relogin, err := h.auth.Login(ctx, dto.LoginRequest{Email: "caja@x.com", Password: "passw0rd3"})
	require.NoError(t, err)
	p := h.principal(t, relogin.Token)
	require.True(t, p.StoreScoped())
	assert.Equal(t, storeID, *p.StoreID)

	missing := "22222222-2222-2222-2222-222222222222"
	_, err = h.admin.SetStore(ctx, owner, caja.ID, &missing)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
