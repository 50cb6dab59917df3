package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/okian/talentmatch/internal/adapters/http/api"
	"github.com/okian/talentmatch/internal/adapters/http/swagger"
	"github.com/okian/talentmatch/internal/adapters/messaging"
	"github.com/okian/talentmatch/internal/adapters/repository"
	"github.com/okian/talentmatch/internal/adapters/scoringapi"
	app "github.com/okian/talentmatch/internal/app"
	"github.com/okian/talentmatch/internal/config"
	"github.com/okian/talentmatch/internal/domain/scoring"
	"github.com/okian/talentmatch/internal/domain/skills"
	"github.com/okian/talentmatch/pkg/logger"
	"github.com/okian/talentmatch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	httpShutdownTimeout       = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, cleanup, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc),
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		// WriteTimeout must outlast the batch deadline a trigger may wait for.
		WriteTimeout: cfg.BatchDeadline() + readTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildService wires the configured collaborators into a service. The
// returned cleanup releases connections opened here.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, func(), error) {
	cleanup := func() {}

	registry, err := skills.NewRegistry(skills.MergeAliases(skills.Builtin(), cfg.SkillAliases)...)
	if err != nil {
		return nil, cleanup, fmt.Errorf("skill registry: %w", err)
	}

	bands := make([]scoring.Band, 0, len(cfg.Bands))
	for _, b := range cfg.Bands {
		bands = append(bands, scoring.Band{Min: b.Min, Label: b.Label})
	}
	combiner, err := scoring.NewCombiner(
		scoring.WithWeights(cfg.SemanticWeight, cfg.TFIDFWeight),
		scoring.WithBands(bands),
	)
	if err != nil {
		return nil, cleanup, fmt.Errorf("score combiner: %w", err)
	}

	scorer := scoringapi.New(
		scoringapi.WithBaseURL(cfg.ScoringServiceURL),
		scoringapi.WithMode(cfg.ScoringMode),
		scoringapi.WithTimeout(cfg.ScoringTimeout()),
		scoringapi.WithRetryAttempts(cfg.ScoringRetryAttempts),
		scoringapi.WithRegistry(registry),
		scoringapi.WithCombiner(combiner),
		scoringapi.WithLogger(log.Named("scoring")),
	)
	if cfg.ScoringServiceURL == "" {
		log.Warn(ctx, "no scoring_service_url configured; all scores use the local fallback")
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithRegistry(registry),
		app.WithCombiner(combiner),
		app.WithScorer(scorer),
		app.WithWorkerCount(cfg.DeliveryWorkers),
		app.WithQueueSize(cfg.DeliveryQueueSize),
		app.WithDedupe(cfg.NotifyDedupe, cfg.DedupeSize),
		app.WithNotifyThreshold(cfg.NotifyThreshold),
		app.WithBatchDeadline(cfg.BatchDeadline()),
		app.WithShutdownTimeout(cfg.ShutdownTimeout()),
		app.WithMatchConcurrency(cfg.MatchConcurrency),
		app.WithMessenger(newMessenger(cfg, log)),
	}

	if cfg.SnapshotBackend == config.SnapshotBackendRedis {
		ropts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("redis_url: %w", err)
		}
		client := redis.NewClient(ropts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, cleanup, fmt.Errorf("redis ping: %w", err)
		}
		cleanup = func() { _ = client.Close() }
		opts = append(opts, app.WithSnapshotStore(
			repository.NewRedisSnapshotStore(client, repository.WithRedisLogger(log.Named("snapshots"))),
		))
		log.Info(ctx, "using redis snapshot store", logger.String("addr", ropts.Addr))
	}

	return app.New(opts...), cleanup, nil
}

func newMessenger(cfg *config.Config, log logger.Logger) messaging.Messenger {
	if cfg.SMTPHost == "" {
		return messaging.NewLogMessenger(log.Named("messenger"))
	}
	return messaging.NewEmailMessenger(messaging.EmailConfig{
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		SMTPUser: cfg.SMTPUser,
		SMTPPass: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	}, log.Named("email"))
}

// newHandler mounts the business API and the API docs on one router.
func newHandler(ctx context.Context, svc *app.Service) http.Handler {
	r := chi.NewRouter()
	swagger.Register(ctx, r)
	api.NewServer(svc, svc).Register(ctx, r)
	return r
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges that are only known to the service.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if running, ok := stats["runningTasks"].(int); ok {
		metrics.UpdateBackgroundTasks(running)
	}
}
