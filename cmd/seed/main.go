// seed crea una empresa y su usuario owner sin pasar por la API HTTP.
//
// Uso: go run ./cmd/seed -company "Mi Tienda" -email owner@mitienda.com [-name "Ana"]
// La contraseña se lee de SEED_PASSWORD para no dejarla en el historial del shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/invorya-auth/internal/application/auth"
	"github.com/jhoicas/invorya-auth/internal/application/credential"
	"github.com/jhoicas/invorya-auth/internal/application/dto"
	"github.com/jhoicas/invorya-auth/internal/infrastructure/postgres"
	"github.com/jhoicas/invorya-auth/pkg/config"
	pkgjwt "github.com/jhoicas/invorya-auth/pkg/jwt"
	"github.com/jhoicas/invorya-auth/pkg/logger"
)

func main() {
	company := flag.String("company", "", "nombre de la empresa")
	email := flag.String("email", "", "email del owner")
	name := flag.String("name", "", "nombre del owner (opcional)")
	flag.Parse()

	password := os.Getenv("SEED_PASSWORD")
	if *company == "" || *email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "uso: SEED_PASSWORD=... seed -company <nombre> -email <email> [-name <nombre>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if _, err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	store, err := credential.NewStore(
		postgres.NewCompanyRepository(pool),
		postgres.NewUserRepository(pool),
		postgres.NewWarehouseRepository(pool),
		credential.Policy{BcryptCost: cfg.Auth.BcryptCost, MinLength: cfg.Auth.PasswordMinLength},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("credential store")
	}
	tokens, err := pkgjwt.NewManager(pkgjwt.Config{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()})
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	uc := auth.NewAuthUseCase(store, postgres.NewTxRunner(pool), tokens, auth.Options{Logger: log})
	out, err := uc.Register(ctx, dto.RegisterRequest{
		Email:       *email,
		Password:    password,
		CompanyName: *company,
		Name:        *name,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("registrar empresa")
	}
	fmt.Printf("empresa %s creada; owner %s (%s)\n", out.User.CompanyID, out.User.ID, out.User.Email)
}
