package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ESDMMonitor/internal/config"
	"ESDMMonitor/internal/infrastructure/dingtalk"
	"ESDMMonitor/internal/infrastructure/fetcher"
	"ESDMMonitor/internal/infrastructure/llm"
	"ESDMMonitor/internal/infrastructure/parser"
	"ESDMMonitor/internal/infrastructure/scheduler"
	"ESDMMonitor/internal/infrastructure/storage"
	"ESDMMonitor/internal/keyword"
	"ESDMMonitor/internal/logging"
	"ESDMMonitor/internal/metrics"
	"ESDMMonitor/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.SQLRepository
	metrics   *metrics.Metrics
	monitor   *usecase.Monitor
	scheduler *usecase.Scheduler
}

// New validates cfg, opens the seen-set store and builds the monitor.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Fetcher.SkipTLSVerify() {
		baseLogger.Warn("TLS certificate verification is disabled for page fetches")
	}

	store, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DataSource())
	if err != nil {
		return nil, fmt.Errorf("open seen store: %w", err)
	}

	m := metrics.New()
	pageFetcher := fetcher.NewHTTPFetcher(cfg.Fetcher, baseLogger.With("component", "fetcher"),
		fetcher.WithFailureHook(m.FetchFailed))
	source := parser.NewESDMSource(pageFetcher, cfg.TargetURL, cfg.SiteOrigin, baseLogger.With("component", "source"))

	if cfg.DingTalk.WebhookURL == "" {
		baseLogger.Warn("no DingTalk webhook configured, hits will only be logged")
	}

	monitor := usecase.NewMonitor(usecase.MonitorDeps{
		Source:     source,
		Store:      store,
		Translator: llm.NewTranslator(cfg.LLM, baseLogger.With("component", "translator")),
		Notifier:   dingtalk.NewNotifier(cfg.DingTalk, baseLogger.With("component", "dingtalk")),
		Keywords:   keyword.NewSet(cfg.Keywords),
		Metrics:    m,
		Logger:     baseLogger.With("component", "monitor"),
	})

	driver := scheduler.NewCronScheduler(
		cfg.Scheduler.CronExpression,
		cfg.Scheduler.Location(),
		cfg.Scheduler.ShouldRunOnStart(),
		baseLogger.With("component", "scheduler"),
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		metrics:   m,
		monitor:   monitor,
		scheduler: usecase.NewScheduler(driver, monitor, baseLogger.With("component", "scheduler")),
	}, nil
}

// RunOnce performs a single monitor run.
func (a *Application) RunOnce(ctx context.Context) (usecase.RunReport, error) {
	return a.monitor.RunOnce(ctx)
}

// Serve runs the monitor on its schedule until ctx is cancelled. When a
// metrics address is configured the Prometheus endpoint is served alongside.
func (a *Application) Serve(ctx context.Context) error {
	var srv *http.Server
	errCh := make(chan error, 1)

	if a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv = &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.logger.Info("metrics endpoint listening", "addr", a.cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "schedule", a.cfg.Scheduler.CronExpression)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	if srv != nil {
		_ = srv.Shutdown(shutdownCtx)
	}
	a.logger.Info("scheduler stopped")
	return serveErr
}

// Close releases the seen-set store.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
