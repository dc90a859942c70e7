package main // Entry point package

import (
	"context"   // cancellation for shutdown and the consumer
	"errors"    // errors.Is on the server's closed error
	"fmt"       // fmt prints fatal startup errors before the logger exists
	"net/http"  // http.ErrServerClosed
	"os"        // exit codes
	"os/signal" // SIGINT/SIGTERM handling
	"syscall"   // SIGTERM
	"time"      // timeouts

	"github.com/labstack/echo/v4"                     // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // panic recovery
	"github.com/spf13/pflag"                          // command line flags
	"go.uber.org/zap"                                 // structured logging

	"github.com/iliyamo/equipment-control/internal/config"     // Internal config loader
	"github.com/iliyamo/equipment-control/internal/database"   // MySQL connection and migrations
	"github.com/iliyamo/equipment-control/internal/handler"    // HTTP handlers
	"github.com/iliyamo/equipment-control/internal/logger"     // zap logger construction
	"github.com/iliyamo/equipment-control/internal/middleware" // request logging
	"github.com/iliyamo/equipment-control/internal/queue"      // dispatch audit consumer
	"github.com/iliyamo/equipment-control/internal/repository" // data access
	"github.com/iliyamo/equipment-control/internal/router"     // Internal router setup
	"github.com/iliyamo/equipment-control/internal/service"    // business logic
)

func main() {
	envFile := pflag.String("env-file", ".env", "path to a .env file to load before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	auditLog := pflag.String("dispatch-log", "logs/dispatch.log", "file the dispatch audit consumer appends to")
	pflag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil { // Merge .env into the environment
		fmt.Fprintf(os.Stderr, "load env file: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load() // Load environment config
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "equipment-control")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log, *migrateOnly, *auditLog); err != nil {
		log.Error("server stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger, migrateOnly bool, auditLog string) error {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName) // Connect to MySQL
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := database.ApplyMigrations(db); err != nil { // Bring the schema up to date
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Info("database ready", zap.String("host", cfg.DBHost), zap.String("name", cfg.DBName))
	if migrateOnly {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional infrastructure.  Missing Redis or RabbitMQ degrades features
	// rather than failing startup.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
		log.Info("redis connected")
	} else {
		log.Warn("redis unavailable; using in-process rate limiter and no response cache")
	}

	users := repository.NewUserRepo(db)
	equipment := repository.NewEquipmentRepo(db)
	commands := repository.NewIRCommandRepo(db)

	var events service.EventPublisher
	if pub := service.NewPublisher(config.RabbitURL(), log); pub.Enabled() {
		events = pub
		go func() {
			if err := pub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("dispatch publisher stopped", zap.Error(err))
			}
		}()
		consumer := &queue.DispatchConsumer{URL: config.RabbitURL(), LogPath: auditLog, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("dispatch consumer stopped", zap.Error(err))
			}
		}()
		log.Info("dispatch audit enabled", zap.String("log_path", auditLog))
	}

	auth := service.NewAuthService(users, cfg.SessionSecret, time.Duration(cfg.SessionTTLHours)*time.Hour, cfg.BcryptCost, log)
	dispatcher := service.NewDispatcher(equipment, commands, service.NewESPClient(cfg.ESPTimeout, log), events, log)

	renderer, err := handler.NewRenderer()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	cacheCfg := config.LoadCacheConfig()
	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, router.Handlers{ // Register application routes
		Auth:     handler.NewAuthHandler(auth, equipment, cfg.Env == "prod", log),
		Views:    handler.NewViewHandler(equipment, log),
		Admin:    handler.NewAdminHandler(equipment, commands, cacheCfg, rdb, log),
		Dispatch: handler.NewDispatchHandler(dispatcher),
		Health:   handler.Health(db),
	}, router.Options{
		Sessions:  auth,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     cacheCfg,
		Redis:     rdb,
		Log:       log,
	})

	addr := ":" + cfg.Port // Address string with port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env)) // Print startup info
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
