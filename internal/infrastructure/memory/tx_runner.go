package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/invorya-auth/internal/domain/repository"
)

// txLog registra lo creado dentro de una "transacción" para deshacerlo si falla.
type txLog struct {
	mu        sync.Mutex
	companies []string
	users     []string
}

func (l *txLog) addCompany(id string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.companies = append(l.companies, id)
	l.mu.Unlock()
}

func (l *txLog) addUser(id string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.users = append(l.users, id)
	l.mu.Unlock()
}

// TxRunner ejecuta el registro de forma atómica sobre la base en memoria.
type TxRunner struct {
	db *DB
}

// NewTxRunner construye el runner.
func NewTxRunner(db *DB) *TxRunner {
	return &TxRunner{db: db}
}

// RunRegistration ejecuta fn y deshace las altas si devuelve error.
func (r *TxRunner) RunRegistration(ctx context.Context, fn func(companies repository.CompanyRepository, users repository.UserRepository) error) error {
	log := &txLog{}
	companies := &CompanyRepo{db: r.db, tx: log}
	users := &UserRepo{db: r.db, tx: log}
	if err := fn(companies, users); err != nil {
		r.rollback(log)
		return err
	}
	return nil
}

func (r *TxRunner) rollback(log *txLog) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, id := range log.users {
		delete(r.db.users, id)
	}
	for _, id := range log.companies {
		delete(r.db.companies, id)
	}
}
