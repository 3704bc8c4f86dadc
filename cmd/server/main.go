package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"climate-platform/internal/config"
	"climate-platform/internal/handlers"
	"climate-platform/internal/nasa"
	"climate-platform/internal/repository"
	"climate-platform/internal/services"
	"climate-platform/pkg/database"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("climate-api", version, logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[STARTUP] Starting climate data API server", logging.Fields{
		"version":           version,
		"server_host":       cfg.Server.Host,
		"server_port":       cfg.Server.Port,
		"db_host":           cfg.Database.Host,
		"db_name":           cfg.Database.Database,
		"scheduler_enabled": cfg.Scheduler.Enabled,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("climate_platform")

	// Initialize database
	db, err := database.NewPostgresDB(cfg.Database.PostgresConfig(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository and services
	repo := repository.NewClimateRepository(db, logger)

	fetcher := nasa.NewClient(nasa.Config{
		BaseURL:           cfg.NASA.BaseURL,
		Community:         cfg.NASA.Community,
		Timeout:           cfg.NASA.Timeout,
		RequestsPerSecond: cfg.NASA.RequestsPerSecond,
		Burst:             cfg.NASA.Burst,
	}, logger, metricsCollector)

	clock := clockwork.NewRealClock()
	importService := services.NewDataImportService(repo, fetcher, services.NewSampleGenerator(clock, nil), logger, metricsCollector)
	weatherService := services.NewWeatherService(repo, logger)

	// Setup router
	router := handlers.NewRouter(
		handlers.NewImportHandler(importService, logger, metricsCollector),
		handlers.NewWeatherHandler(weatherService, logger, metricsCollector),
		promhttp.Handler(),
		logger,
		metricsCollector,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	var scheduler *services.SyncScheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = services.NewSyncScheduler(services.SyncConfig{
			Spec:         cfg.Scheduler.Spec,
			LookbackDays: cfg.Scheduler.LookbackDays,
			RunTimeout:   cfg.Scheduler.RunTimeout,
		}, repo, importService, clock, logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to create sync scheduler", logging.Fields{}, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if scheduler != nil {
		g.Go(func() error {
			scheduler.Start()
			<-gctx.Done()
			<-scheduler.Stop().Done()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		logger.Info(context.Background(), "[SHUTDOWN] Shutting down server...", logging.Fields{})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "[SHUTDOWN_ERROR] Server stopped with error", logging.Fields{}, err)
		db.Close()
		os.Exit(1)
	}

	logger.Info(context.Background(), "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
