package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firestudio/config"
	"firestudio/handler"
	"firestudio/handler/platforms"
	"firestudio/health"
	"firestudio/observability"
	"firestudio/observability/monitor"
	"firestudio/storage"
	storagetypes "firestudio/storage/types"
	"firestudio/workers/camera"
)

func main() {
	cfg := loadConfiguration()

	deps := initializeDependencies(cfg)
	defer deps.provider.Close()

	app := buildApplication(cfg, deps)

	startApplication(cfg, app, deps)
}

// Dependencies holds all initialized infrastructure components
type Dependencies struct {
	provider *observability.DefaultProvider
	monitor  *monitor.Monitor
	storage  storagetypes.ObjectStorage
	health   *health.Aggregator
}

// Application holds the complete application stack
type Application struct {
	handler *handler.Handler
}

// loadConfiguration loads and validates the application configuration
func loadConfiguration() *config.Config {
	config.MustLoad()
	return config.MustGet()
}

// initializeDependencies sets up observability, storage and health tracking
func initializeDependencies(cfg *config.Config) *Dependencies {
	provider := observability.NewProvider(&observability.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
	})

	logger := provider.Logger("main")

	mon, err := monitor.NewMonitor(provider.Registry(), provider.Logger("monitor"))
	if err != nil {
		log.Fatalf("Failed to initialize monitor: %v", err)
	}

	logger.Info(context.Background(), "Starting application", observability.Fields{
		"service":     cfg.ServiceName,
		"version":     cfg.Version,
		"environment": cfg.Environment,
	})

	store, err := storage.New(&cfg.Storage, provider.Logger("storage"), provider.Registry())
	if err != nil {
		logger.Error(context.Background(), "Failed to initialize storage", err, nil)
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	aggregator := health.NewAggregator(cfg.Version, cfg.Health.Services)

	return &Dependencies{
		provider: provider,
		monitor:  mon,
		storage:  store,
		health:   aggregator,
	}
}

// buildApplication assembles the worker and handler chain
func buildApplication(cfg *config.Config, deps *Dependencies) *Application {
	worker := camera.NewWorker(deps.storage, deps.provider.Logger("worker.camera"), deps.monitor)

	h := handler.NewInstrumented(worker, deps.provider, deps.monitor, &cfg.Handler)

	return &Application{handler: h}
}

// startApplication starts the configured platform adapter
func startApplication(cfg *config.Config, app *Application, deps *Dependencies) {
	switch cfg.Handler.Platform {
	case "lambda":
		adapter := platforms.NewLambdaAdapter(app.handler, nil)
		adapter.Start()
	default:
		runHTTP(cfg, app, deps)
	}
}

// runHTTP serves the API and metrics listeners until interrupted
func runHTTP(cfg *config.Config, app *Application, deps *Dependencies) {
	logger := deps.provider.Logger("main")
	ctx := context.Background()

	adapter := platforms.NewHTTPAdapter(app.handler, deps.monitor, deps.health, cfg.HTTP.AllowedOrigins)

	apiServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      adapter,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", deps.provider.MetricRegistry().HTTPHandler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}

		go func() {
			logger.Info(ctx, "Metrics server listening", observability.Fields{"addr": cfg.Metrics.Addr})
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "Metrics server failed", err, nil)
			}
		}()
	}

	go func() {
		logger.Info(ctx, "API server listening", observability.Fields{"addr": cfg.HTTP.Addr})
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "API server failed", err, nil)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info(ctx, "Shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "API server shutdown failed", err, nil)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Metrics server shutdown failed", err, nil)
		}
	}
}
