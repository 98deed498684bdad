package credential

import (
	"fmt"
	"unicode"

	"github.com/jhoicas/invorya-auth/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignora lo que pasa de 72 bytes; se rechaza en vez de truncar en silencio.
const maxPasswordBytes = 72

// Policy política de contraseñas y coste de hash.
type Policy struct {
	BcryptCost int
	MinLength  int
}

func (p Policy) withDefaults() Policy {
	if p.BcryptCost == 0 {
		p.BcryptCost = bcrypt.DefaultCost
	}
	if p.MinLength < 8 {
		p.MinLength = 8
	}
	return p
}

// CheckPassword valida la contraseña en texto plano contra la política.
func (p Policy) CheckPassword(raw string) error {
	if len(raw) < p.MinLength {
		return fmt.Errorf("%w: password debe tener al menos %d caracteres", domain.ErrInvalidInput, p.MinLength)
	}
	if len(raw) > maxPasswordBytes {
		return fmt.Errorf("%w: password supera %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}
	var letter, digit bool
	for _, r := range raw {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return fmt.Errorf("%w: password debe combinar letras y números", domain.ErrInvalidInput)
	}
	return nil
}

func (p Policy) hash(raw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), p.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
