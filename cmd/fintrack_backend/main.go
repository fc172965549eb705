package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EnesEfeTokta/fintrack-backend/internal/adapters/cache"
	"github.com/EnesEfeTokta/fintrack-backend/internal/adapters/database/pgsql"
	"github.com/EnesEfeTokta/fintrack-backend/internal/adapters/provider/currencyfreaks"
	portsrepo "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/repositories"
	"github.com/EnesEfeTokta/fintrack-backend/internal/core/services"
	"github.com/EnesEfeTokta/fintrack-backend/internal/handlers"
	"github.com/EnesEfeTokta/fintrack-backend/internal/metrics"
	"github.com/EnesEfeTokta/fintrack-backend/internal/middleware"
	"github.com/EnesEfeTokta/fintrack-backend/internal/platform/config"
	"github.com/EnesEfeTokta/fintrack-backend/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
)

// cacheGracePeriod extends the cache TTL past the refresh interval so a
// single slow or failed refresh does not empty the cache.
const cacheGracePeriod = 5 * time.Minute

// @title FinTrack Backend API
// @version 1.0
// @description Currency exchange rate aggregation and history API for the FinTrack backend.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Wire the domain: repositories, provider, cache, services.
	repos := portsrepo.RepositoryProvider{
		CurrencyRepo: pgsql.NewPgxCurrencyRepository(dbPool),
		SnapshotRepo: pgsql.NewPgxSnapshotRepository(dbPool),
	}
	rateCache := cache.NewMemoryRateCache(cfg.RateRefreshInterval + cacheGracePeriod)
	container := services.NewServiceContainer(repos, rateCache)

	rateProvider := currencyfreaks.NewProvider(
		cfg.RateProviderBaseURL,
		cfg.RateProviderAPIKey,
		cfg.SupportedCurrenciesURL,
		cfg.RateProviderTimeout,
		logger,
	)
	refreshService := services.NewRateRefreshService(
		rateProvider,
		rateCache,
		repos.SnapshotRepo,
		container.Currency,
		cfg.RateRefreshInterval,
		logger,
		m,
	)

	// Background refresh loop, stopped on shutdown via context cancellation.
	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	go refreshService.Run(refreshCtx)

	r := gin.New()

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("rate_limit", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	limiterInstance := limiter.New(limitermemory.NewStore(), rate)

	// Global middleware (logging, recovery, CORS, rate limiting, metrics)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.Default(),
		middleware.RateLimit(limiterInstance),
		middleware.MetricsMiddleware(m),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, m)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Block until an interrupt, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	stopRefresh()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Server exited")
}

// runMigrations applies all pending "up" migrations from the migrations
// directory using a temporary database/sql connection.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	if err := migrationDB.Ping(); err != nil {
		migrationDB.Close()
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	mig, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = mig.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	sourceErr, dbErr := mig.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
