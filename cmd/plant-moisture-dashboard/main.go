package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpapi "github.com/i474232898/plant-moisture-dashboard/internal/api/http"
	"github.com/i474232898/plant-moisture-dashboard/internal/config"
	"github.com/i474232898/plant-moisture-dashboard/internal/dashboard"
	"github.com/i474232898/plant-moisture-dashboard/internal/logging"
	"github.com/i474232898/plant-moisture-dashboard/internal/plants"
	"github.com/i474232898/plant-moisture-dashboard/internal/plants/sources"
)

const serviceName = "plant-moisture-dashboard"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(serviceName, cfg.LogLevel, os.Stdout)
	cfg.Log(logger)

	// Shared HTTP client for backend calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Readings source with resilience (backoff + circuit breaker).
	source, err := sources.NewHTTPSource(httpClient, cfg.BackendURL, cfg.ReadingsPath, sources.RetryConfig{
		MaxRetries: cfg.FetchMaxRetries,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build readings source")
	}
	logger.Info().Str("endpoint", source.Endpoint()).Msg("polling backend")

	formatter, err := plants.NewFormatter(cfg.DisplayLocale, cfg.DisplayTimezone)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build formatter")
	}
	normalizer := plants.NewNormalizer(formatter, logger)

	// Controller owning the refresh cadence and the current snapshot.
	ctrl := dashboard.New(source, normalizer, logger, dashboard.Options{
		Interval: cfg.PollInterval,
		Timeout:  source.FetchBudget(cfg.HTTPTimeout),
	})
	stopExport := dashboard.ExportMetrics(ctrl)

	if _, err := ctrl.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start dashboard")
	}

	app := httpapi.NewApp(serviceName, logger)
	httpapi.RegisterDashboardRoutes(app, ctrl)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error().Err(err).Msg("fiber server stopped")
		}
	}()
	logger.Info().Str("port", cfg.Port).Msg("dashboard listening")

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	ctrl.Teardown()
	stopExport()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}
