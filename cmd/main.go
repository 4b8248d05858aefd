package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/medalboard/internal/adapters/http/api"
	"github.com/okian/medalboard/internal/adapters/http/site"
	"github.com/okian/medalboard/internal/adapters/http/swagger"
	"github.com/okian/medalboard/internal/adapters/repository"
	app "github.com/okian/medalboard/internal/app"
	"github.com/okian/medalboard/internal/config"
	"github.com/okian/medalboard/internal/domain/reconcile"
	"github.com/okian/medalboard/pkg/logger"
	"github.com/okian/medalboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	configureLogger(ctx, cfg)
	loggerInstance := logger.Get()

	store, err := repository.Open(ctx, cfg.Locator())
	if err != nil {
		loggerInstance.Fatal(ctx, "failed to open store", logger.String("store", cfg.Store), logger.Error(err))
	}

	svc, err := newService(cfg, store, loggerInstance)
	if err != nil {
		loggerInstance.Fatal(ctx, "invalid service configuration", logger.Error(err))
	}

	// The single load of the session; a failure here is fatal.
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Fatal(ctx, "failed to load medal table", logger.Error(err))
	}
	defer svc.Stop()

	go metrics.RunRuntimeSampler(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.StoreTimeout() + readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(context.Background(), "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(shutdownCtx, "server stopped")
}

// configureLogger applies the configured level and format, falling back to
// info and text on invalid input.
func configureLogger(ctx context.Context, cfg *config.Config) {
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		logger.Get().Warn(ctx, "invalid log_format; falling back to text", logger.String("log_format", cfg.LogFormat), logger.Error(err))
		_ = logger.SetFormat(logger.FormatText)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
}

// newService builds the session service from configuration.
func newService(cfg *config.Config, store repository.Store, l logger.Logger) (*app.Service, error) {
	mode, err := reconcile.ParseMode(cfg.SaveMode)
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(l),
		app.WithStore(store),
		app.WithSaveMode(mode),
		app.WithTopN(cfg.TopN),
		app.WithStoreTimeout(cfg.StoreTimeout()),
		app.WithIdempotencySize(cfg.IdempotencySize),
		app.WithQueueCapacity(cfg.SaveQueueSize),
	), nil
}

// newMux registers every HTTP surface against svc.
func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()

	// Register API docs under /api-docs and the spec at /openapi.yaml
	swagger.Register(ctx, mux)

	// Static assets and the root redirect
	site.Register(ctx, mux)

	// Register business API routes with the service dependency.
	api.NewServer(svc, svc).Register(ctx, mux)

	return mux
}
