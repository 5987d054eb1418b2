package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ecotrack/internal/bootstrap"
	"ecotrack/internal/config"
	energyhttp "ecotrack/internal/energy/interfaces/http"
	"ecotrack/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.Error().Err(err).Msg("config error")
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("http server stopped")
}

// run serves until a signal arrives or the listener fails. Deferred cleanup
// always runs before it returns.
func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn().Err(err).Msg("store close error")
		}
	}()
	rt.RegisterMetrics()

	handler, err := energyhttp.NewHandler(rt.Tracker,
		energyhttp.WithLogger(logger.With().Str("component", "http").Logger()),
	)
	if err != nil {
		return fmt.Errorf("http handler: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           energyhttp.NewServerHandler(handler, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("http shutdown error")
		}
	}()

	logger.Info().
		Str("addr", cfg.HTTPAddr).
		Str("store", cfg.Store.Backend).
		Bool("oracle", rt.Gemini != nil).
		Msg("http listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
