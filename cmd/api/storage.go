package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/invorya-auth/internal/application/auth"
	"github.com/jhoicas/invorya-auth/internal/domain/rbac"
	"github.com/jhoicas/invorya-auth/internal/domain/repository"
	"github.com/jhoicas/invorya-auth/internal/infrastructure/memory"
	"github.com/jhoicas/invorya-auth/internal/infrastructure/postgres"
	"github.com/jhoicas/invorya-auth/pkg/config"
	"github.com/jhoicas/invorya-auth/pkg/logger"
)

// storage repositorios del driver elegido (STORAGE_DRIVER).
type storage struct {
	Companies  repository.CompanyRepository
	Users      repository.UserRepository
	Warehouses repository.WarehouseRepository
	Tx         auth.RegistrationTxRunner
	Close      func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.DB.Driver == "memory" {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		db := memory.NewDB()
		return &storage{
			Companies:  memory.NewCompanyRepository(db),
			Users:      memory.NewUserRepository(db),
			Warehouses: memory.NewWarehouseRepository(db),
			Tx:         memory.NewTxRunner(db),
			Close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.DB.AutoMigrate {
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		for _, v := range applied {
			log.Info().Str("version", v).Msg("migración aplicada")
		}
	}
	return &storage{
		Companies:  postgres.NewCompanyRepository(pool),
		Users:      postgres.NewUserRepository(pool),
		Warehouses: postgres.NewWarehouseRepository(pool),
		Tx:         postgres.NewTxRunner(pool),
		Close:      pool.Close,
	}, nil
}

// loadMatrix lee PERMISSIONS_FILE o, si está vacío, la matriz embebida.
func loadMatrix(path string) (*rbac.Matrix, error) {
	if path == "" {
		return rbac.DefaultMatrix()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return rbac.LoadMatrix(f)
}
