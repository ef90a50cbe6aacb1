package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"userapi/docs"
	"userapi/internal/cache"
	"userapi/internal/config"
	"userapi/internal/database"
	"userapi/internal/database/migration"
	handlers "userapi/internal/http/handler"
	"userapi/internal/http/middleware"
	"userapi/internal/logger"
	"userapi/internal/otel"
	"userapi/internal/repository"
	"userapi/internal/repository/sqlmapper"
	mapperotel "userapi/internal/repository/sqlmapper/middleware/opentelemetry"
	mapperprom "userapi/internal/repository/sqlmapper/middleware/prometheus"
	"userapi/internal/repository/sqlmapper/middleware/querylog"
	"userapi/internal/repository/sqlmapper/middleware/slowquery"
	"userapi/internal/service"
	"userapi/internal/storage"
)

// @title User API
// @version 1.0
// @description CRUD endpoints over the users table.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.LogLevel, cfg.Location())

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.AppConfig, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	dialect, err := sqlmapper.DialectFor(cfg.Database.Kind)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, dialect.Name(), log); err != nil {
		return err
	}
	if err := seed(ctx, cfg, db, log); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	userMapper, err := newUserMapper(cfg, db, dialect, reg, log)
	if err != nil {
		return err
	}

	userCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	userSvc := service.NewUserService(userMapper, userCache, cfg.Cache.TTL(), log)

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	// Register global middleware
	app.Use(recover.New())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == middleware.MetricsPath
	})))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMiddleware.Handler())

	app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, db, userSvc)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("db_kind", cfg.Database.Kind).Str("cache_kind", cfg.Cache.Kind).Msg("server listening")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return err
	}
	return nil
}

// newUserMapper wires the statement middlewares, outermost first: tracing, metrics, slow-query
// warnings, then debug logging.
func newUserMapper(cfg *config.AppConfig, db *sql.DB, dialect sqlmapper.Dialect, reg prometheus.Registerer, log zerolog.Logger) (repository.UserMapper, error) {
	metrics, err := (&mapperprom.MiddlewareBuilder{Namespace: "userapi"}).Build(reg)
	if err != nil {
		return nil, err
	}

	mdls := []sqlmapper.Middleware{
		mapperotel.MiddlewareBuilder{}.Build(),
		metrics,
	}
	if cfg.Database.SlowQueryMS > 0 {
		threshold := time.Duration(cfg.Database.SlowQueryMS) * time.Millisecond
		mdls = append(mdls, slowquery.NewMiddlewareBuilder(threshold, log).Build())
	}
	qlog := querylog.NewMiddlewareBuilder(log)
	if cfg.Database.LogArgs {
		qlog.WithArgs()
	}
	mdls = append(mdls, qlog.Build())

	m, err := sqlmapper.NewUserMapper(db,
		sqlmapper.WithDialect(dialect),
		sqlmapper.WithMiddlewares(mdls...),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// seed applies DB_INIT_SQL. A script that was already applied collides on primary keys; that is
// reported and startup continues.
func seed(ctx context.Context, cfg *config.AppConfig, db *sql.DB, log zerolog.Logger) error {
	var store storage.Storage
	if storage.IsObjectURL(cfg.Database.InitSQL) {
		s, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return err
		}
		store = s
	}

	_, err := migration.NewSeeder(db, store, log).Run(ctx, cfg.Database.InitSQL)
	if errors.Is(err, repository.ErrDuplicateKey) {
		log.Warn().Err(err).Str("source", cfg.Database.InitSQL).Msg("seed script already applied, skipping")
		return nil
	}
	return err
}
