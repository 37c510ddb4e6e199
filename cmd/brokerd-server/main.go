package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcalder/brokerd/internal/app"
	"github.com/jcalder/brokerd/internal/common"
	"github.com/jcalder/brokerd/internal/server"
)

func main() {
	config, err := common.LoadConfig("brokerd.toml", os.Getenv("BROKERD_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	a, err := app.NewApp(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize app")
	}

	// Background job processing and the daily report scheduler.
	a.Start()

	srv := server.NewServer(a)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", config.Server.Port)).
		Str("env", config.Environment).
		Msg("Server ready")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	if err := a.Close(); err != nil {
		logger.Error().Err(err).Msg("App shutdown failed")
	}
	logger.Info().Msg("Server stopped")
}
