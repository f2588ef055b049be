package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	battleengine "reelrivals/contexts/battle-arena/battle-engine"
	gcsadapter "reelrivals/contexts/battle-arena/battle-engine/adapters/gcs"
	"reelrivals/contexts/battle-arena/battle-engine/adapters/memory"
	postgresadapter "reelrivals/contexts/battle-arena/battle-engine/adapters/postgres"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
	"reelrivals/internal/platform/auth"
	"reelrivals/internal/platform/config"
	"reelrivals/internal/platform/db"
	"reelrivals/internal/platform/httpserver"
	"reelrivals/internal/platform/messaging"
	"reelrivals/internal/platform/metrics"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const (
	idempotencyTTL  = 24 * time.Hour
	dedupTTL        = 7 * 24 * time.Hour
	workerBatchSize = 100
	shutdownTimeout = 10 * time.Second
)

type eventBus interface {
	ports.EventPublisher
	ports.EventSubscriber
}

// runtime holds the adapters shared by the API and the worker.
type runtime struct {
	module   battleengine.Module
	metrics  *metrics.Recorder
	postgres *db.Postgres
	closers  []io.Closer
}

type APIApp struct {
	server   *httpserver.Server
	worker   *WorkerApp
	postgres *db.Postgres
	closers  []io.Closer
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	module       battleengine.Module
	runConsumer  bool
	runSweeper   bool
	pollInterval time.Duration
	closers      []io.Closer
	logger       *slog.Logger
}

// NewLogger installs a JSON handler at level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func BuildAPI(ctx context.Context, cfg config.Config, base *slog.Logger) (*APIApp, error) {
	logger := base.With("service", cfg.ServiceName, "process", "api")

	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	authenticator, err := buildAuthenticator(cfg, logger)
	if err != nil {
		rt.close()
		return nil, err
	}

	server := httpserver.New(rt.module, httpserver.Options{
		Authenticator:  authenticator,
		Metrics:        rt.metrics,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, logger, normalizeAddr(cfg.HTTPPort))

	app := &APIApp{
		server:   server,
		postgres: rt.postgres,
		closers:  rt.closers,
		logger:   logger,
	}
	if cfg.EnableEmbeddedWorker {
		app.worker = newWorkerApp(cfg, rt, logger.With("component", "embedded-worker"))
		// The embedded worker shares the API's adapters; only the API closes them.
		app.worker.postgres = nil
		app.worker.closers = nil
	}
	return app, nil
}

func BuildWorker(ctx context.Context, cfg config.Config, base *slog.Logger) (*WorkerApp, error) {
	logger := base.With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required for a standalone worker")
	}

	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return newWorkerApp(cfg, rt, logger), nil
}

func newWorkerApp(cfg config.Config, rt *runtime, logger *slog.Logger) *WorkerApp {
	return &WorkerApp{
		postgres:     rt.postgres,
		module:       rt.module,
		runConsumer:  cfg.EnableMatchmakingConsumer,
		runSweeper:   cfg.EnableBattleSweeper,
		pollInterval: cfg.WorkerPollInterval,
		closers:      rt.closers,
		logger:       logger,
	}
}

func buildRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (rt *runtime, err error) {
	rt = &runtime{metrics: metrics.NewRecorder("reelrivals")}
	defer func() {
		if err != nil {
			rt.close()
		}
	}()

	bus, err := buildBus(cfg, logger)
	if err != nil {
		return nil, err
	}
	if closer, ok := bus.(io.Closer); ok {
		rt.closers = append(rt.closers, closer)
	}

	var (
		media       ports.MediaStore
		memoryMedia *memory.MediaStore
	)
	switch cfg.MediaBackend {
	case config.MediaBackendGCS:
		store, err := gcsadapter.NewMediaStore(ctx, cfg.GCSBucket, cfg.MediaPublicBaseURL, logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store)
		media = store
	default:
		memoryMedia = memory.NewMediaStore(cfg.MediaPublicBaseURL)
		media = memoryMedia
	}

	deps := battleengine.Dependencies{
		Media:                 media,
		Publisher:             bus,
		Subscriber:            bus,
		Metrics:               rt.metrics,
		BattleDuration:        cfg.BattleDuration,
		FairnessMarginPercent: cfg.FairnessMarginPct,
		IdempotencyTTL:        idempotencyTTL,
		DedupTTL:              dedupTTL,
		WorkerBatchSize:       workerBatchSize,
		Logger:                logger,
	}

	var store *memory.Store
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Warn("POSTGRES_DSN not set, using in-memory battle store",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		store = memory.NewStore(nil, logger)
		deps.Videos = store
		deps.Battles = store
		deps.Votes = store
		deps.Idempotency = store
		deps.Outbox = store
		deps.Dedup = store
		deps.Clock = store
		deps.IDGenerator = postgresadapter.UUIDGenerator{}
		deps.Random = postgresadapter.SystemRandom{}
	} else {
		pg, err := db.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		rt.postgres = pg

		repo := postgresadapter.NewRepository(pg.DB, logger)
		if cfg.DBAutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				return nil, err
			}
		}
		deps.Videos = repo
		deps.Battles = repo
		deps.Votes = repo
		deps.Idempotency = repo
		deps.Outbox = repo
		deps.Dedup = repo
		deps.Clock = postgresadapter.SystemClock{}
		deps.IDGenerator = postgresadapter.UUIDGenerator{}
		deps.Random = postgresadapter.SystemRandom{}
	}

	rt.module = battleengine.NewModule(deps)
	rt.module.Store = store
	rt.module.Media = memoryMedia
	return rt, nil
}

func buildBus(cfg config.Config, logger *slog.Logger) (eventBus, error) {
	switch cfg.MessageBroker {
	case config.BrokerRabbitMQ:
		return messaging.DialRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
	default:
		return messaging.NewInProcess(logger), nil
	}
}

func buildAuthenticator(cfg config.Config, logger *slog.Logger) (auth.Authenticator, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		logger.Warn("JWT_SECRET not set, trusting X-User-Id headers",
			"event", "bootstrap_header_auth",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return auth.HeaderAuthenticator{}, nil
	}
	return auth.NewJWTAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i].Close()
	}
	if rt.postgres != nil {
		_ = rt.postgres.Close()
	}
}

// Run serves HTTP until ctx ends, then shuts the server down gracefully.
func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"embedded_worker", a.worker != nil,
	)

	var wg sync.WaitGroup
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer func() {
		stopWorker()
		wg.Wait()
	}()
	if a.worker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.worker.Run(workerCtx); err != nil {
				a.logger.Error("embedded worker stopped",
					"event", "bootstrap_embedded_worker_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.Start()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return <-serveErr
}

func (a *APIApp) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

// Run relays the outbox and sweeps expired battles every poll interval until
// ctx ends. Cycle failures are logged and retried on the next tick.
func (w *WorkerApp) Run(ctx context.Context) error {
	if w.runConsumer {
		if err := w.module.Consumer.Start(ctx); err != nil {
			return err
		}
	}

	interval := w.pollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", interval.String(),
		"matchmaking_consumer", w.runConsumer,
		"battle_sweeper", w.runSweeper,
	)

	for {
		w.RunCycle(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunCycle performs one sweep and one relay pass.
func (w *WorkerApp) RunCycle(ctx context.Context) {
	if w.runSweeper {
		if err := w.module.Sweeper.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("battle sweep failed",
				"event", "bootstrap_worker_sweep_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}
	if err := w.module.Relay.RunOnce(ctx); err != nil && ctx.Err() == nil {
		w.logger.Warn("outbox relay cycle failed",
			"event", "bootstrap_worker_relay_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func (w *WorkerApp) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		errs = append(errs, w.closers[i].Close())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":3001"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
