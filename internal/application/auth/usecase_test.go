package auth_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/invorya-auth/internal/application/auth"
	"github.com/jhoicas/invorya-auth/internal/application/credential"
	"github.com/jhoicas/invorya-auth/internal/application/dto"
	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/infrastructure/memory"
	"github.com/jhoicas/invorya-auth/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests-0123456789"

// flakyUsers simula un store lento o caído en la resolución del principal.
type flakyUsers struct {
	*memory.UserRepo
	failures atomic.Int32
	calls    atomic.Int32
	block    atomic.Bool
}

func (f *flakyUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	f.calls.Add(1)
	if f.block.Load() {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.failures.Add(-1) >= 0 {
		return nil, errors.New("conexión reiniciada")
	}
	return f.UserRepo.GetByID(ctx, id)
}

// recorder guarda los eventos publicados.
type recorder struct {
	mu     sync.Mutex
	events []ports.AuthEvent
}

func (r *recorder) Publish(_ context.Context, ev ports.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type harness struct {
	auth   *auth.AuthUseCase
	admin  *auth.UserAdminUseCase
	store  *credential.Store
	users  *flakyUsers
	tokens *jwt.Manager
	events *recorder
	db     *memory.DB
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := memory.NewDB()
	users := &flakyUsers{UserRepo: memory.NewUserRepository(db)}
	store, err := credential.NewStore(memory.NewCompanyRepository(db), users, memory.NewWarehouseRepository(db),
		credential.Policy{BcryptCost: bcrypt.MinCost, MinLength: 8})
	require.NoError(t, err)
	tokens, err := jwt.NewManager(jwt.Config{Secret: testSecret, Issuer: "test", TTL: time.Hour})
	require.NoError(t, err)
	events := &recorder{}
	return &harness{
		auth: auth.NewAuthUseCase(store, memory.NewTxRunner(db), tokens, auth.Options{
			RevocationTimeout: 50 * time.Millisecond,
			Events:            events,
		}),
		admin:  auth.NewUserAdminUseCase(store, events, nil),
		store:  store,
		users:  users,
		tokens: tokens,
		events: events,
		db:     db,
	}
}

func (h *harness) register(t *testing.T, email, password, company string) *dto.LoginResponse {
	t.Helper()
	resp, err := h.auth.Register(context.Background(), dto.RegisterRequest{Email: email, Password: password, CompanyName: company})
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro
// ──────────────────────────────────────────────────────────────────────────────

func TestRegister_CreaEmpresaYOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp := h.register(t, "a@x.com", "passw0rd1", "Co1")
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "owner", resp.User.Role)
	assert.Equal(t, "a@x.com", resp.User.Name, "sin nombre se usa el email")
	assert.Nil(t, resp.User.StoreID)

	p, err := h.auth.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, p.UserID)
	assert.Equal(t, resp.User.CompanyID, p.CompanyID)
	assert.Equal(t, entity.RoleOwner, p.Role)
	assert.Nil(t, p.StoreID)

	assert.Equal(t, []string{ports.EventTenantRegistered}, h.events.types())
}

func TestRegister_EmpresaDuplicada(t *testing.T) {
	h := newHarness(t)
	h.register(t, "a@x.com", "passw0rd1", "Co1")

	_, err := h.auth.Register(context.Background(), dto.RegisterRequest{Email: "b@x.com", Password: "passw0rd2", CompanyName: "co1"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// El usuario del registro fallido no quedó creado.
	list, err := h.store.FindUsersByEmail(context.Background(), "b@x.com")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegister_EntradaInvalida(t *testing.T) {
	h := newHarness(t)
	cases := []dto.RegisterRequest{
		{Email: "no-es-email", Password: "passw0rd1", CompanyName: "Co1"},
		{Email: "a@x.com", Password: "corta1", CompanyName: "Co1"},
		{Email: "a@x.com", Password: "passw0rd1", CompanyName: " "},
	}
	for _, in := range cases {
		_, err := h.auth.Register(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", in)
	}
}

func TestRegister_ConcurrenteUnSoloGanador(t *testing.T) {
	h := newHarness(t)
	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.auth.Register(context.Background(), dto.RegisterRequest{Email: "a@x.com", Password: "passw0rd1", CompanyName: "Carrera"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, ok)
}

// ──────────────────────────────────────────────────────────────────────────────
// Login
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_MismoEmailEnDosEmpresas(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r1 := h.register(t, "a@x.com", "passw0rd1", "Co1")
	r2 := h.register(t, "a@x.com", "passw0rd2", "Co2")

	// Sin empresa: gana la cuenta cuya password coincide.
	resp, err := h.auth.Login(ctx, dto.LoginRequest{Email: "a@x.com", Password: "passw0rd2"})
	require.NoError(t, err)
	assert.Equal(t, r2.User.CompanyID, resp.User.CompanyID)

	// Con empresa por nombre o por id.
	resp, err = h.auth.Login(ctx, dto.LoginRequest{Email: "A@X.com", Password: "passw0rd1", Company: "co1"})
	require.NoError(t, err)
	assert.Equal(t, r1.User.CompanyID, resp.User.CompanyID)
	resp, err = h.auth.Login(ctx, dto.LoginRequest{Email: "a@x.com", Password: "passw0rd2", Company: r2.User.CompanyID})
	require.NoError(t, err)
	assert.Equal(t, r2.User.ID, resp.User.ID)

	// La password de otra empresa no sirve.
	_, err = h.auth.Login(ctx, dto.LoginRequest{Email: "a@x.com", Password: "passw0rd2", Company: "Co1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_ErroresIndistinguibles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "a@x.com", "passw0rd1", "Co1")

	cases := []dto.LoginRequest{
		{Email: "a@x.com", Password: "incorrecta1"},
		{Email: "nadie@x.com", Password: "passw0rd1"},
		{Email: "a@x.com", Password: "passw0rd1", Company: "NoExiste"},
		{Email: "nadie@x.com", Password: "passw0rd1", Company: "Co1"},
	}
	for _, in := range cases {
		_, err := h.auth.Login(ctx, in)
		assert.Equal(t, domain.ErrUnauthorized, err, "%+v", in)
	}
}

func TestLogin_UsuarioDeshabilitado(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "owner@x.com", "passw0rd1", "Co1")
	cashier, err := h.store.CreateUser(ctx, owner.User.CompanyID, "caja@x.com", "passw0rd3", entity.RoleCashier, nil)
	require.NoError(t, err)
	_, err = h.store.DisableUser(ctx, owner.User.CompanyID, cashier.ID)
	require.NoError(t, err)

	_, err = h.auth.Login(ctx, dto.LoginRequest{Email: "caja@x.com", Password: "passw0rd3"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.auth.Login(ctx, dto.LoginRequest{Email: "caja@x.com", Password: "otra0000"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "sin password correcta no se revela el estado")
}

// ──────────────────────────────────────────────────────────────────────────────
// Authenticate / revocación
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthenticate_CambioDeRolRevocaToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "owner@x.com", "passw0rd1", "Co1")
	_, err := h.store.CreateUser(ctx, owner.User.CompanyID, "caja@x.com", "passw0rd3", entity.RoleCashier, nil)
	require.NoError(t, err)
	login, err := h.auth.Login(ctx, dto.LoginRequest{Email: "caja@x.com", Password: "passw0rd3"})
	require.NoError(t, err)

	p, err := h.auth.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleCashier, p.Role)

	actor, err := h.auth.Authenticate(ctx, owner.Token)
	require.NoError(t, err)
	_, err = h.admin.SetRole(ctx, actor, login.User.ID, "manager")
	require.NoError(t, err)

	_, err = h.auth.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "el token anterior al cambio de rol ya no es válido")

	relogin, err := h.auth.Login(ctx, dto.LoginRequest{Email: "caja@x.com", Password: "passw0rd3"})
	require.NoError(t, err)
	p, err = h.auth.Authenticate(ctx, relogin.Token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleManager, p.Role)
}

func TestAuthenticate_LogoutYDeshabilitar(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.register(t, "a@x.com", "passw0rd1", "Co1")

	p, err := h.auth.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	require.NoError(t, h.auth.Logout(ctx, p))
	_, err = h.auth.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	again, err := h.auth.Login(ctx, dto.LoginRequest{Email: "a@x.com", Password: "passw0rd1"})
	require.NoError(t, err)
	_, err = h.store.DisableUser(ctx, resp.User.CompanyID, resp.User.ID)
	require.NoError(t, err)
	// Deshabilitar también sube la versión, pero el estado se reporta primero.
	_, err = h.auth.Authenticate(ctx, again.Token)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAuthenticate_TokenInvalido(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.auth.Authenticate(ctx, "no.es.token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)

	other, err := jwt.NewManager(jwt.Config{Secret: "otro-secreto-de-prueba-0123456789", Issuer: "test", TTL: time.Hour})
	require.NoError(t, err)
	forged, _, err := other.Issue(&entity.User{ID: "u1", CompanyID: "c1", Role: entity.RoleOwner})
	require.NoError(t, err)
	_, err = h.auth.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Firma válida para un usuario que no existe.
	ghost, _, err := h.tokens.Issue(&entity.User{ID: "u1", CompanyID: "c1", Role: entity.RoleOwner})
	require.NoError(t, err)
	_, err = h.auth.Authenticate(ctx, ghost)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_ReintentaUnaVez(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.register(t, "a@x.com", "passw0rd1", "Co1")

	h.users.failures.Store(1)
	h.users.calls.Store(0)
	_, err := h.auth.Authenticate(ctx, resp.Token)
	require.NoError(t, err, "un fallo transitorio se absorbe con el reintento")
	assert.Equal(t, int32(2), h.users.calls.Load())

	h.users.failures.Store(2)
	h.users.calls.Store(0)
	_, err = h.auth.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "si el store no responde se rechaza")
	assert.Equal(t, int32(2), h.users.calls.Load())
}

func TestAuthenticate_TimeoutFallaCerrado(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.register(t, "a@x.com", "passw0rd1", "Co1")

	h.users.block.Store(true)
	start := time.Now()
	_, err := h.auth.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Less(t, time.Since(start), 2*time.Second, "la consulta está acotada")
}

// ──────────────────────────────────────────────────────────────────────────────
// Sesión
// ──────────────────────────────────────────────────────────────────────────────

func TestChangePassword_RotaSesion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.register(t, "a@x.com", "passw0rd1", "Co1")
	p, err := h.auth.Authenticate(ctx, resp.Token)
	require.NoError(t, err)

	_, err = h.auth.ChangePassword(ctx, p, dto.ChangePasswordRequest{CurrentPassword: "incorrecta1", NewPassword: "nuevaClave9"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = h.auth.ChangePassword(ctx, p, dto.ChangePasswordRequest{CurrentPassword: "passw0rd1", NewPassword: "corta"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	fresh, err := h.auth.ChangePassword(ctx, p, dto.ChangePasswordRequest{CurrentPassword: "passw0rd1", NewPassword: "nuevaClave9"})
	require.NoError(t, err)

	_, err = h.auth.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "el token anterior queda revocado")
	_, err = h.auth.Authenticate(ctx, fresh.Token)
	assert.NoError(t, err)

	_, err = h.auth.Login(ctx, dto.LoginRequest{Email: "a@x.com", Password: "nuevaClave9"})
	assert.NoError(t, err)
}

func TestRefreshYMe(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	resp := h.register(t, "a@x.com", "passw0rd1", "Co1")
	p, err := h.auth.Authenticate(ctx, resp.Token)
	require.NoError(t, err)

	me, err := h.auth.Me(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", me.Email)

	refreshed, err := h.auth.Refresh(ctx, p)
	require.NoError(t, err)
	p2, err := h.auth.Authenticate(ctx, refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, p.TokenVersion, p2.TokenVersion)

	_, err = h.auth.Me(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
