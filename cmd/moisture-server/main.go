package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	httpapi "github.com/i474232898/plant-moisture-dashboard/internal/api/http"
	"github.com/i474232898/plant-moisture-dashboard/internal/logging"
	"github.com/i474232898/plant-moisture-dashboard/internal/store"
)

const serviceName = "moisture-server"

// Version is set at build time.
var Version = "dev"

type ProgramArgs struct {
	Host     string `short:"H" long:"host" default:"0.0.0.0" description:"IP to listen on"`
	Port     uint16 `short:"P" long:"port" default:"8080" description:"Port to listen on"`
	LogLevel string `short:"l" long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level (trace, debug, info, warn, error)"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	args := ProgramArgs{}
	argParser := flags.NewParser(&args, flags.Default)
	if _, err := argParser.Parse(); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	logger := logging.New(serviceName, args.LogLevel, os.Stdout)
	logger.Info().Str("version", Version).Msg("starting")

	readings := store.NewMemoryStore()

	app := httpapi.NewApp(serviceName, logger)
	httpapi.RegisterBackendRoutes(app, readings, logger, time.Now)

	addr := fmt.Sprintf("%s:%d", args.Host, args.Port)
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		if err := app.Listen(addr); err != nil {
			logger.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
	logger.Info().Int("plants", readings.Len()).Msg("stopped")
}
