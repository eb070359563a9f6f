package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	offerservice "offerhub/contexts/offer-catalog/offer-service"
	postgresadapter "offerhub/contexts/offer-catalog/offer-service/adapters/postgres"
	redisadapter "offerhub/contexts/offer-catalog/offer-service/adapters/redis"
	workerapp "offerhub/contexts/offer-catalog/offer-service/application/workers"
	"offerhub/contexts/offer-catalog/offer-service/ports"
	"offerhub/internal/platform/config"
	"offerhub/internal/platform/db"
	"offerhub/internal/platform/httpserver"
	"offerhub/internal/platform/messaging"

	goredis "github.com/redis/go-redis/v9"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	redis    *goredis.Client
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	publisher    *messaging.Kafka
	outboxRelay  workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	pg, err := connectPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	if cfg.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
	}

	var idempotency ports.IdempotencyStore = repo
	var redisClient *goredis.Client
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisClient, err = redisadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			_ = pg.Close()
			return nil, err
		}
		idempotency = redisadapter.NewIdempotencyStore(redisClient)
		logger.Info("redis idempotency store enabled",
			"event", "bootstrap_redis_idempotency_enabled",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	module := offerservice.NewModule(offerservice.Dependencies{
		Offers:                    repo,
		Influencers:               repo,
		CustomPayouts:             repo,
		Idempotency:               idempotency,
		Outbox:                    repo,
		Clock:                     postgresadapter.SystemClock{},
		IDGenerator:               postgresadapter.UUIDGenerator{},
		IdempotencyTTL:            cfg.IdempotencyTTL,
		DisableOfferEventEmission: !cfg.EnableOfferEventEmission,
		EventsTopic:               cfg.OfferEventsTopic,
		OutboxBatchSize:           cfg.OutboxBatchSize,
		Logger:                    logger,
	})

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		redis:    redisClient,
		logger:   logger,
	}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	pg, err := connectPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres:  pg,
		publisher: kafka,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			Topic:     cfg.OfferEventsTopic,
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return <-errCh
	}
}

func (a *APIApp) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if _, err := w.outboxRelay.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// A broker outage leaves rows pending; the next tick retries them.
			w.logger.Warn("outbox relay pass failed",
				"event", "bootstrap_worker_relay_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.publisher != nil {
		errs = append(errs, w.publisher.Close())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

func connectPostgres(ctx context.Context, cfg config.Config) (*db.Postgres, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	return db.Connect(ctx, cfg.PostgresDSN, db.DefaultPoolOptions())
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
