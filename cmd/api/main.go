package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/srgjo27/event_ledger/internal/adapter/handler"
	"github.com/srgjo27/event_ledger/internal/adapter/payment"
	"github.com/srgjo27/event_ledger/internal/adapter/repository/memory"
	"github.com/srgjo27/event_ledger/internal/adapter/repository/postgres"
	redisrepo "github.com/srgjo27/event_ledger/internal/adapter/repository/redis"
	"github.com/srgjo27/event_ledger/internal/adapter/session"
	"github.com/srgjo27/event_ledger/internal/config"
	"github.com/srgjo27/event_ledger/internal/core/ports"
	"github.com/srgjo27/event_ledger/internal/core/services"
	"github.com/srgjo27/event_ledger/internal/platform/cache"
	"github.com/srgjo27/event_ledger/internal/platform/database"
	"github.com/srgjo27/event_ledger/internal/platform/logger"
	"github.com/srgjo27/event_ledger/internal/platform/monitoring"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	migrateOnly := pflag.Bool("migrate-only", false, "create the catalog tables and exit")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, *migrateOnly, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, migrateOnly bool, log *slog.Logger) error {
	ctx := context.Background()
	checks := make(map[string]handler.HealthCheck)

	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor()
	}

	var (
		events ports.EventCatalog
		users  ports.UserDirectory
	)
	switch cfg.CatalogDriver {
	case "postgres":
		db, err := database.NewPostgresDB(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.Name,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to connect to db after retries: %w", err)
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		if migrateOnly {
			log.Info("catalog migrations applied")
			return nil
		}

		events = postgres.NewEventCatalog(db)
		users = postgres.NewUserDirectory(db)
		checks["postgres"] = db.PingContext

	case "memory":
		if migrateOnly {
			log.Warn("nothing to migrate for the memory catalog")
			return nil
		}

		seed, err := memory.LoadSeed(cfg.CatalogSeed)
		if err != nil {
			return err
		}
		catalog := memory.NewCatalog(seed)
		events, users = catalog, catalog
		log.Info("catalog seeded", "path", cfg.CatalogSeed, "events", len(seed.Events), "users", len(seed.Users))
	}

	var kv ports.KVStore
	switch cfg.StorageDriver {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cache.Config{
			URL:      cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()

		kv = redisrepo.NewKVStore(client)
		checks["redis"] = func(ctx context.Context) error { return cache.HealthCheck(ctx, client) }

	case "memory":
		log.Warn("using in-process ledger storage; bookings are lost on restart")
		kv = memory.NewKVStore()
	}

	keys := services.NewPrefixNamespace(cfg.LedgerPrefix)
	identity := session.NewIdentity(kv, log)
	ledger := services.NewLedgerService(kv, keys, log, monitor)
	lifecycle := services.NewLifecycleService(kv, keys, identity, services.CleanupMode(cfg.CleanupMode), log, monitor)
	lifecycle.UseLedger(ledger)
	lifecycle.CleanupOnStartup(ctx)

	bookingService := services.NewBookingService(
		ledger,
		events,
		payment.NewSimulated(cfg.PaymentDelay, log),
		services.NewTicketIDGenerator(),
		services.BookingOptions{
			ServiceFee:           cfg.Fee(),
			MaxTicketsPerBooking: cfg.MaxTicketsPerBooking,
		},
		log,
		monitor,
	)

	router := handler.NewRouter(handler.RouterConfig{
		Bookings: bookingService,
		Catalog:  services.NewCatalogService(events, users, monitor),
		Sessions: session.NewStore(kv, lifecycle, cfg.ClearLedgerOnLogout, log),
		Checks:   checks,
		Monitor:  monitor,
		Log:      log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "environment", cfg.Environment,
			"storage", cfg.StorageDriver, "catalog", cfg.CatalogDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server startup failed: %w", err)
	case <-quit:
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exiting")
	return nil
}
