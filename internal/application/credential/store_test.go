package credential_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/invorya-auth/internal/application/credential"
	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/infrastructure/memory"
)

const testPassword = "s3cretoSeguro"

type fixture struct {
	store      *credential.Store
	warehouses *memory.WarehouseRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := memory.NewDB()
	warehouses := memory.NewWarehouseRepository(db)
	st, err := credential.NewStore(
		memory.NewCompanyRepository(db),
		memory.NewUserRepository(db),
		warehouses,
		credential.Policy{BcryptCost: bcrypt.MinCost, MinLength: 8},
	)
	require.NoError(t, err)
	return fixture{store: st, warehouses: warehouses}
}

func TestCreateTenant_NombreUnico(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c1, err := f.store.CreateTenant(ctx, "  Tienda   Uno ")
	require.NoError(t, err)
	assert.Equal(t, "Tienda Uno", c1.Name)
	assert.NotEmpty(t, c1.ID)

	_, err = f.store.CreateTenant(ctx, "tienda uno")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.store.CreateTenant(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateUser_HasheaYValida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	company, err := f.store.CreateTenant(ctx, "co1")
	require.NoError(t, err)

	user, err := f.store.CreateUser(ctx, company.ID, " A@Co1.com ", testPassword, entity.RoleCashier, nil)
	require.NoError(t, err)
	assert.Equal(t, "a@co1.com", user.Email, "el email se normaliza")
	assert.NotEqual(t, testPassword, user.PasswordHash)
	assert.True(t, f.store.VerifyPassword(user, testPassword))
	assert.False(t, f.store.VerifyPassword(user, "otraClave123"))
	assert.Equal(t, entity.UserStatusActive, user.Status)
	assert.Zero(t, user.TokenVersion)

	cases := []struct {
		name     string
		email    string
		password string
		role     entity.Role
	}{
		{"email mal formado", "no-es-email", testPassword, entity.RoleCashier},
		{"password corta", "b@co1.com", "abc1", entity.RoleCashier},
		{"password sin dígitos", "b@co1.com", "solamenteletras", entity.RoleCashier},
		{"password muy larga", "b@co1.com", string(make([]byte, 80)), entity.RoleCashier},
		{"rol libre", "b@co1.com", testPassword, entity.Role("superadmin")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.store.CreateUser(ctx, company.ID, tc.email, tc.password, tc.role, nil)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCreateUser_EmailUnicoPorEmpresa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co1, err := f.store.CreateTenant(ctx, "co1")
	require.NoError(t, err)
	co2, err := f.store.CreateTenant(ctx, "co2")
	require.NoError(t, err)

	u1, err := f.store.CreateUser(ctx, co1.ID, "a@x.com", testPassword, entity.RoleOwner, nil)
	require.NoError(t, err)

	_, err = f.store.CreateUser(ctx, co1.ID, "A@X.COM", testPassword, entity.RoleCashier, nil)
	assert.ErrorIs(t, err, domain.ErrConflict)

	u2, err := f.store.CreateUser(ctx, co2.ID, "a@x.com", "otraClave456", entity.RoleOwner, nil)
	require.NoError(t, err, "el mismo email en otra empresa no colisiona")

	got1, err := f.store.FindUserByEmail(ctx, co1.ID, "a@x.com")
	require.NoError(t, err)
	got2, err := f.store.FindUserByEmail(ctx, co2.ID, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, got1.ID)
	assert.Equal(t, u2.ID, got2.ID)
	assert.True(t, f.store.VerifyPassword(got1, testPassword))
	assert.False(t, f.store.VerifyPassword(got2, testPassword), "credenciales independientes por empresa")

	missing, err := f.store.FindUserByEmail(ctx, co1.ID, "nadie@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := f.store.FindUsersByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateUser_ConcurrenteSoloUnoGana(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co, err := f.store.CreateTenant(ctx, "co1")
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.store.CreateUser(ctx, co.ID, "race@co1.com", testPassword, entity.RoleCashier, nil)
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Errorf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestCreateUser_TiendaDeOtraEmpresa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co1, _ := f.store.CreateTenant(ctx, "co1")
	co2, _ := f.store.CreateTenant(ctx, "co2")
	store := &entity.Warehouse{ID: "w-co2", CompanyID: co2.ID, Name: "Centro"}
	require.NoError(t, f.warehouses.Create(ctx, store))

	_, err := f.store.CreateUser(ctx, co1.ID, "a@co1.com", testPassword, entity.RoleCashier, &store.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	u, err := f.store.CreateUser(ctx, co2.ID, "a@co2.com", testPassword, entity.RoleCashier, &store.ID)
	require.NoError(t, err)
	require.NotNil(t, u.WarehouseID)
	assert.Equal(t, store.ID, *u.WarehouseID)
}

func TestMutaciones_IncrementanVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co, _ := f.store.CreateTenant(ctx, "co1")
	u, err := f.store.CreateUser(ctx, co.ID, "a@co1.com", testPassword, entity.RoleCashier, nil)
	require.NoError(t, err)

	u, err = f.store.SetRole(ctx, co.ID, u.ID, entity.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleManager, u.Role)
	assert.Equal(t, 1, u.TokenVersion)

	u, err = f.store.DisableUser(ctx, co.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, u.IsActive())
	assert.Equal(t, 2, u.TokenVersion)

	u, err = f.store.EnableUser(ctx, co.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, u.IsActive())
	assert.Equal(t, 3, u.TokenVersion)

	u, err = f.store.ChangePassword(ctx, co.ID, u.ID, "nuevaClave789")
	require.NoError(t, err)
	assert.Equal(t, 4, u.TokenVersion)
	assert.True(t, f.store.VerifyPassword(u, "nuevaClave789"))

	u, err = f.store.IncrementTokenVersion(ctx, co.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, u.TokenVersion)

	_, err = f.store.SetRole(ctx, co.ID, u.ID, entity.Role("dios"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMutaciones_AcotadasPorEmpresa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co1, _ := f.store.CreateTenant(ctx, "co1")
	co2, _ := f.store.CreateTenant(ctx, "co2")
	u, err := f.store.CreateUser(ctx, co1.ID, "a@co1.com", testPassword, entity.RoleCashier, nil)
	require.NoError(t, err)

	_, err = f.store.DisableUser(ctx, co2.ID, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "otra empresa no puede tocar al usuario")

	got, err := f.store.FindUserInCompany(ctx, co2.ID, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVerifyPassword_UsuarioNil(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.store.VerifyPassword(nil, testPassword))
}
