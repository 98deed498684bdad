package credential

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jhoicas/invorya-auth/internal/domain"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
	"github.com/jhoicas/invorya-auth/internal/domain/repository"
	"golang.org/x/crypto/bcrypt"
)

const maxCompanyNameLength = 120

// Store persiste empresas y usuarios con credenciales hasheadas.
// Las unicidades (nombre de empresa, email por empresa) las garantiza el repositorio;
// aquí solo se valida la entrada y se traduce a errores de dominio.
type Store struct {
	companies  repository.CompanyRepository
	users      repository.UserRepository
	warehouses repository.WarehouseRepository
	policy     Policy
	validate   *validator.Validate
	dummyHash  []byte
	now        func() time.Time
}

// NewStore construye el Credential Store. warehouses puede ser nil si no se asignan tiendas.
func NewStore(companies repository.CompanyRepository, users repository.UserRepository, warehouses repository.WarehouseRepository, policy Policy) (*Store, error) {
	policy = policy.withDefaults()
	// Hash de relleno para igualar tiempos cuando el usuario no existe.
	dummy, err := bcrypt.GenerateFromPassword([]byte("invorya-dummy-password-0"), policy.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("credential: hash de relleno: %w", err)
	}
	return &Store{
		companies:  companies,
		users:      users,
		warehouses: warehouses,
		policy:     policy,
		validate:   validator.New(),
		dummyHash:  dummy,
		now:        time.Now,
	}, nil
}

// InTx devuelve una copia del store que escribe con repositorios atados a una transacción.
func (s *Store) InTx(companies repository.CompanyRepository, users repository.UserRepository) *Store {
	cp := *s
	cp.companies = companies
	cp.users = users
	return &cp
}

// Policy política vigente.
func (s *Store) Policy() Policy { return s.policy }

// CreateTenant crea una empresa nueva. ErrConflict si el nombre ya está registrado.
func (s *Store) CreateTenant(ctx context.Context, name string) (*entity.Company, error) {
	name = strings.Join(strings.Fields(name), " ")
	if len(name) < 2 || len(name) > maxCompanyNameLength {
		return nil, fmt.Errorf("%w: nombre de empresa debe tener entre 2 y %d caracteres", domain.ErrInvalidInput, maxCompanyNameLength)
	}
	now := s.now().UTC()
	company := &entity.Company{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    entity.CompanyStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// PrepareUser valida y hashea sin persistir, para no mantener una transacción abierta durante bcrypt.
func (s *Store) PrepareUser(email, rawPassword string, role entity.Role, storeID *string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		return nil, fmt.Errorf("%w: email inválido", domain.ErrInvalidInput)
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: rol desconocido %q", domain.ErrInvalidInput, role)
	}
	if storeID != nil && *storeID == "" {
		storeID = nil
	}
	if err := s.policy.CheckPassword(rawPassword); err != nil {
		return nil, err
	}
	hash, err := s.policy.hash(rawPassword)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return &entity.User{
		ID:           uuid.New().String(),
		WarehouseID:  storeID,
		Email:        email,
		PasswordHash: hash,
		Name:         email,
		Role:         role,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// InsertUser persiste un usuario preparado dentro de la empresa indicada.
func (s *Store) InsertUser(ctx context.Context, companyID string, user *entity.User) error {
	if companyID == "" {
		return fmt.Errorf("%w: empresa requerida", domain.ErrInvalidInput)
	}
	if user.WarehouseID != nil {
		if err := s.checkStore(ctx, companyID, *user.WarehouseID); err != nil {
			return err
		}
	}
	user.CompanyID = companyID
	return s.users.Create(ctx, user)
}

// CreateUser valida, hashea y persiste. ErrConflict si el email ya existe en la empresa.
func (s *Store) CreateUser(ctx context.Context, companyID, email, rawPassword string, role entity.Role, storeID *string) (*entity.User, error) {
	user, err := s.PrepareUser(email, rawPassword, role, storeID)
	if err != nil {
		return nil, err
	}
	if err := s.InsertUser(ctx, companyID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindTenant resuelve una empresa por ID o, si no es un UUID, por nombre.
func (s *Store) FindTenant(ctx context.Context, hint string) (*entity.Company, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(hint); err == nil {
		return s.companies.GetByID(ctx, hint)
	}
	return s.companies.GetByName(ctx, hint)
}

// FindUserByEmail busca dentro de una sola empresa; (nil, nil) si no existe.
func (s *Store) FindUserByEmail(ctx context.Context, companyID, email string) (*entity.User, error) {
	return s.users.GetByEmailAndCompany(ctx, entity.NormalizeEmail(email), companyID)
}

// FindUsersByEmail busca en todas las empresas (login sin empresa indicada).
func (s *Store) FindUsersByEmail(ctx context.Context, email string) ([]*entity.User, error) {
	return s.users.ListByEmail(ctx, entity.NormalizeEmail(email))
}

// FindUserByID resolución del principal.
func (s *Store) FindUserByID(ctx context.Context, id string) (*entity.User, error) {
	return s.users.GetByID(ctx, id)
}

// FindUserInCompany lectura acotada a la empresa del principal.
func (s *Store) FindUserInCompany(ctx context.Context, companyID, id string) (*entity.User, error) {
	return s.users.GetByIDAndCompany(ctx, id, companyID)
}

// ListUsers usuarios de la empresa.
func (s *Store) ListUsers(ctx context.Context, companyID string, limit, offset int) ([]*entity.User, error) {
	return s.users.ListByCompany(ctx, companyID, limit, offset)
}

// VerifyPassword comparación en tiempo constante contra el hash almacenado.
func (s *Store) VerifyPassword(user *entity.User, rawPassword string) bool {
	if user == nil {
		s.VerifyDummy(rawPassword)
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(rawPassword)) == nil
}

// VerifyDummy consume el mismo coste que una verificación real.
func (s *Store) VerifyDummy(rawPassword string) {
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(rawPassword))
}

// SetRole cambia el rol e invalida las sesiones del usuario.
func (s *Store) SetRole(ctx context.Context, companyID, userID string, role entity.Role) (*entity.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: rol desconocido %q", domain.ErrInvalidInput, role)
	}
	return s.users.UpdateRole(ctx, companyID, userID, role)
}

// SetStore asigna (o quita, con nil) la tienda del usuario e invalida sus sesiones.
func (s *Store) SetStore(ctx context.Context, companyID, userID string, storeID *string) (*entity.User, error) {
	if storeID != nil && *storeID == "" {
		storeID = nil
	}
	if storeID != nil {
		if err := s.checkStore(ctx, companyID, *storeID); err != nil {
			return nil, err
		}
	}
	return s.users.UpdateWarehouse(ctx, companyID, userID, storeID)
}

// DisableUser deshabilita la cuenta e invalida sus sesiones.
func (s *Store) DisableUser(ctx context.Context, companyID, userID string) (*entity.User, error) {
	return s.users.UpdateStatus(ctx, companyID, userID, entity.UserStatusDisabled)
}

// EnableUser reactiva la cuenta. También incrementa la versión: los tokens previos siguen inválidos.
func (s *Store) EnableUser(ctx context.Context, companyID, userID string) (*entity.User, error) {
	return s.users.UpdateStatus(ctx, companyID, userID, entity.UserStatusActive)
}

// ChangePassword aplica la política, rehashea e invalida las sesiones.
func (s *Store) ChangePassword(ctx context.Context, companyID, userID, rawPassword string) (*entity.User, error) {
	if err := s.policy.CheckPassword(rawPassword); err != nil {
		return nil, err
	}
	hash, err := s.policy.hash(rawPassword)
	if err != nil {
		return nil, err
	}
	return s.users.UpdatePassword(ctx, companyID, userID, hash)
}

// IncrementTokenVersion revoca todos los tokens emitidos para el usuario.
func (s *Store) IncrementTokenVersion(ctx context.Context, companyID, userID string) (*entity.User, error) {
	return s.users.IncrementTokenVersion(ctx, companyID, userID)
}

func (s *Store) checkStore(ctx context.Context, companyID, storeID string) error {
	if s.warehouses == nil {
		return fmt.Errorf("%w: asignación de tienda no disponible", domain.ErrInvalidInput)
	}
	w, err := s.warehouses.GetByID(ctx, companyID, storeID)
	if err != nil {
		return err
	}
	if w == nil {
		return fmt.Errorf("%w: la tienda no pertenece a la empresa", domain.ErrInvalidInput)
	}
	return nil
}
