package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"catalog_sync/internal/cache"
	"catalog_sync/internal/config"
	"catalog_sync/internal/httpapi"
	"catalog_sync/internal/publisher"
	"catalog_sync/internal/scheduler"
	"catalog_sync/internal/service"
	"catalog_sync/internal/source/marketplace"
	"catalog_sync/internal/storage/postgres"
	"catalog_sync/internal/vault"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("syncer stopped with error", "error", err)
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanups complete before main exits.
func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	cipher, err := vault.NewCipher(cfg.Secrets.EncryptionKey)
	if err != nil {
		return fmt.Errorf("initialize token cipher: %w", err)
	}

	// Initialize stores
	integrationStore := postgres.NewIntegrationStore(db)
	itemStore := postgres.NewCatalogItemStore(db)
	syncLogStore := postgres.NewSyncLogStore(db)

	client := marketplace.New(marketplace.Config{
		BaseURL:            cfg.API.BaseURL,
		TokenURL:           cfg.API.TokenURL,
		ClientID:           cfg.API.ClientID,
		ClientSecret:       cfg.Secrets.OAuthClientSecret,
		Timeout:            cfg.API.Timeout,
		MaxRetries:         cfg.API.Retry.MaxRetries,
		InitialBackoff:     cfg.API.Retry.InitialBackoff,
		MaxBackoff:         cfg.API.Retry.MaxBackoff,
		Jitter:             cfg.API.Retry.Jitter,
		RequestsPerSecond:  cfg.API.RateLimit.RequestsPerSecond,
		Burst:              cfg.API.RateLimit.Burst,
		BreakerFailures:    cfg.API.Breaker.ConsecutiveFailures,
		BreakerOpenTimeout: cfg.API.Breaker.OpenTimeout,
	}, logger)

	tokens := vault.New(integrationStore, client, cipher, cfg.Sync.RefreshBuffer, logger)

	backend, err := newCacheBackend(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("initialize %s cache: %w", cfg.Cache.Type, err)
	}
	defer backend.Close()
	pages := cache.NewReadThrough(backend, cfg.Cache.TTL, logger)

	// Left as a nil interface when events are disabled.
	var events service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	}

	catalog := service.NewCatalogSyncService(
		tokens,
		integrationStore,
		client,
		itemStore,
		syncLogStore,
		pages,
		events,
		logger,
		cfg.Sync,
	)

	sched := scheduler.NewScheduler(integrationStore, catalog, cfg.Sync.Interval, cfg.Sync.RunTimeout, logger)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(httpapi.NewHandler(catalog, tokens, db, logger), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting catalog syncer",
		"source", client.Name(),
		"addr", cfg.HTTP.Addr,
		"interval", cfg.Sync.Interval,
		"cache", cfg.Cache.Type,
		"events", cfg.RabbitMQ.Enabled,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newCacheBackend(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Type == "redis" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	}
	return cache.NewMemoryCache(time.Minute), nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
