package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jhoicas/invorya-auth/docs"
	"github.com/jhoicas/invorya-auth/internal/application/auth"
	"github.com/jhoicas/invorya-auth/internal/application/credential"
	"github.com/jhoicas/invorya-auth/internal/application/navigation"
	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/internal/application/usecase"
	"github.com/jhoicas/invorya-auth/internal/domain/rbac"
	"github.com/jhoicas/invorya-auth/internal/infrastructure/events"
	"github.com/jhoicas/invorya-auth/internal/infrastructure/metrics"
	"github.com/jhoicas/invorya-auth/internal/infrastructure/ratelimit"
	httpRouter "github.com/jhoicas/invorya-auth/internal/interfaces/http"
	"github.com/jhoicas/invorya-auth/pkg/config"
	pkgjwt "github.com/jhoicas/invorya-auth/pkg/jwt"
	"github.com/jhoicas/invorya-auth/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	storage, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer storage.Close()

	matrix, err := loadMatrix(cfg.Auth.PermissionsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Auth.PermissionsFile).Msg("cargar matriz de permisos")
	}
	engine := rbac.NewEngine(matrix)

	credStore, err := credential.NewStore(storage.Companies, storage.Users, storage.Warehouses, credential.Policy{
		BcryptCost: cfg.Auth.BcryptCost,
		MinLength:  cfg.Auth.PasswordMinLength,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("credential store")
	}

	tokens, err := pkgjwt.NewManager(pkgjwt.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	authMetrics := metrics.NewAuthMetrics(prometheus.DefaultRegisterer)

	publisher, closePublisher := openPublisher(cfg.AMQP, log)
	defer closePublisher()

	limiter, closeLimiter := openLimiter(ctx, cfg, log)
	defer closeLimiter()

	authUC := auth.NewAuthUseCase(credStore, storage.Tx, tokens, auth.Options{
		RevocationTimeout: cfg.Auth.RevocationTimeout,
		Events:            publisher,
		Metrics:           authMetrics,
		Logger:            log.Component("auth"),
	})
	adminUC := auth.NewUserAdminUseCase(credStore, publisher, log.Component("users"))
	guard := navigation.NewGuard(engine, landingOrder(cfg.Auth.LandingOrder), authMetrics)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Invorya Auth API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		UserAdminUC: adminUC,
		CompanyUC:   usecase.NewCompanyUseCase(storage.Companies),
		WarehouseUC: usecase.NewWarehouseUseCase(storage.Warehouses),
		Engine:      engine,
		Guard:       guard,
		RateLimiter: limiter,
		RateLimit: httpRouter.RateLimitConfig{
			Limit:  cfg.RateLimit.Limit,
			Window: cfg.RateLimit.Window,
			Prefix: cfg.RateLimit.Prefix,
		},
		Metrics: authMetrics,
		Logger:  log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openPublisher usa RabbitMQ si AMQP_URL está definido; si no, o si la conexión falla, el log.
func openPublisher(cfg config.AMQPConfig, log *logger.Logger) (ports.EventPublisher, func()) {
	fallback := events.NewLogPublisher(log.Component("events"))
	if cfg.URL == "" {
		return fallback, func() {}
	}
	pub, err := events.NewAMQPPublisher(cfg.URL, cfg.Exchange, log.Component("events"))
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ no disponible, eventos solo en el log")
		return fallback, func() {}
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar publicador AMQP")
		}
	}
}

// openLimiter usa Redis si REDIS_ADDR está definido; si no, un limitador en memoria por proceso.
func openLimiter(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.RateLimiter, func()) {
	if !cfg.RateLimit.Enabled {
		return nil, func() {}
	}
	if cfg.Redis.Addr == "" {
		return ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{}), func() {}
	}
	limiter, client, err := ratelimit.NewRedisLimiter(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
	}
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no disponible, limitador en memoria")
		if client != nil {
			_ = client.Close()
		}
		return ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{}), func() {}
	}
	return limiter, func() { _ = client.Close() }
}

func landingOrder(raw []string) []rbac.Resource {
	out := make([]rbac.Resource, 0, len(raw))
	for _, s := range raw {
		if r := rbac.ParseResource(s); r != "" {
			out = append(out, r)
		}
	}
	return out
}
