package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jhoicas/invorya-auth/internal/domain/entity"
)

// Errores de verificación. El guard los colapsa en 401.
var (
	ErrTokenExpired          = errors.New("jwt: token expirado")
	ErrTokenMalformed        = errors.New("jwt: token mal formado")
	ErrTokenSignatureInvalid = errors.New("jwt: firma inválida")
)

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// TokenVersion se compara contra el usuario en cada petición para detectar revocación.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string      `json:"user_id"`
	CompanyID    string      `json:"company_id"`
	StoreID      *string     `json:"store_id,omitempty"`
	Role         entity.Role `json:"role"`
	TokenVersion int         `json:"token_version"`
}

// Config parámetros del emisor de tokens.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Now reloj inyectable para tests; nil = time.Now.
	Now func() time.Time
}

// Manager emite y verifica tokens HS256 con un secreto de proceso.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager valida la configuración y construye el servicio de tokens.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("jwt: TTL debe ser positivo")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: cfg.TTL, now: now}, nil
}

// TTL duración fija de los tokens emitidos.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue genera un token firmado para el usuario y devuelve su expiración.
func (m *Manager) Issue(user *entity.User) (string, time.Time, error) {
	if user == nil || user.ID == "" || user.CompanyID == "" {
		return "", time.Time{}, fmt.Errorf("jwt: usuario incompleto")
	}
	now := m.now().UTC().Truncate(time.Second)
	exp := now.Add(m.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		UserID:       user.ID,
		CompanyID:    user.CompanyID,
		StoreID:      user.WarehouseID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: firmar token: %w", err)
	}
	return signed, exp, nil
}

// Verify valida firma, expiración, emisor y forma de los claims.
// Devuelve ErrTokenExpired, ErrTokenMalformed o ErrTokenSignatureInvalid envolviendo la causa.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMalformed
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if err := checkShape(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

func checkShape(c *Claims) error {
	switch {
	case c.UserID == "" || c.CompanyID == "":
		return fmt.Errorf("%w: faltan user_id o company_id", ErrTokenMalformed)
	case c.Subject != c.UserID:
		return fmt.Errorf("%w: sub no coincide con user_id", ErrTokenMalformed)
	case !c.Role.IsValid():
		return fmt.Errorf("%w: rol %q", ErrTokenMalformed, c.Role)
	case c.TokenVersion < 0:
		return fmt.Errorf("%w: token_version negativo", ErrTokenMalformed)
	case c.StoreID != nil && *c.StoreID == "":
		return fmt.Errorf("%w: store_id vacío", ErrTokenMalformed)
	}
	return nil
}
