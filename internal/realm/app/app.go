package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/realmguard/internal/realm/http"
	"github.com/aussiebroadwan/realmguard/internal/realm/service"
	"github.com/aussiebroadwan/realmguard/internal/realm/store/drivers/postgres"
	"github.com/aussiebroadwan/realmguard/internal/realm/store/drivers/sqlite"
	"github.com/aussiebroadwan/realmguard/internal/realm/store/sqlstore"
	"github.com/aussiebroadwan/realmguard/pkg/cryptox"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the realm service with all its dependencies
type Application struct {
	cfg       Config
	logger    *slog.Logger
	logCloser io.Closer

	// Core dependencies
	db *sqlstore.Store

	// Services
	throttle            *service.LoginThrottle
	ledger              *service.RevocationLedger
	authenticator       *service.Authenticator
	verifier            *service.CredentialVerifier
	provisioning        *service.ProvisioningService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	logger, closer, err := slogx.New(slogx.Config{
		Service: "realm-service",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		File:    cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app := &Application{
		cfg:       cfg,
		logger:    logger,
		logCloser: closer,
	}

	if err := cryptox.LoadPepper(app.cfg.PepperFile); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		_ = closer.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the HTTP surface without starting a listener.
func (app *Application) Handler() http.Handler { return app.server.Handler }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("realm service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"database", app.cfg.DatabaseDriver,
		"bootstrap_enabled", app.cfg.BootstrapToken != "",
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeResources()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down realm service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	app.logger.Info("realm service stopped")
	return app.closeResources()
}

// Close releases the database and log sink without touching the server.
func (app *Application) Close() error {
	return app.closeResources()
}

func (app *Application) closeResources() error {
	dbErr := app.db.Close()
	if dbErr != nil {
		app.logger.Error("error closing database", "error", dbErr)
	}
	return errors.Join(dbErr, app.logCloser.Close())
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase() error {
	var (
		db  *sqlstore.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case "", sqlite.DriverName:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	case postgres.DriverName:
		if app.cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
		db, err = postgres.NewStore(app.cfg.DatabaseURL)
	default:
		return fmt.Errorf("unknown database driver %q", app.cfg.DatabaseDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.throttle = service.NewLoginThrottle(app.db, app.cfg.LoginMaxAttempts, app.cfg.LoginLockoutWindow)
	app.ledger = &service.RevocationLedger{
		Store: app.db,
		TTL:   app.cfg.CredentialTTL,
	}
	app.authenticator = &service.Authenticator{
		Store:      app.db,
		Throttle:   app.throttle,
		Aggregator: &service.Aggregator{Store: app.db},
		Ledger:     app.ledger,
	}
	app.verifier = &service.CredentialVerifier{Store: app.db}
	app.provisioning = &service.ProvisioningService{
		Store:  app.db,
		Ledger: app.ledger,
	}
	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Token: app.cfg.BootstrapToken,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:             app.logger,
		Version:            BuildVersion,
		Store:              app.db,
		Authenticator:      app.authenticator,
		Verifier:           app.verifier,
		Ledger:             app.ledger,
		Provisioning:       app.provisioning,
		Bootstrap:          app.bootstrapService,
		TrustProxyHeaders:  app.cfg.TrustProxyHeaders,
		CORSAllowedOrigins: app.cfg.CORSAllowedOrigins,
		LoginIPRequests:    app.cfg.LoginIPRequests,
		LoginIPWindow:      app.cfg.LoginIPWindow,
	})

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
