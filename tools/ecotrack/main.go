package main

import (
	"context"
	"os"

	"ecotrack/internal/bootstrap"
	"ecotrack/internal/config"
	"ecotrack/internal/platform/logging"
)

func main() {
	if err := newRootCmd(buildRuntime).Execute(); err != nil {
		os.Exit(1)
	}
}

// buildRuntime loads configuration and wires the tracker. Logs go to stderr so
// command output stays clean on stdout.
func buildRuntime(ctx context.Context) (*bootstrap.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return bootstrap.Build(ctx, cfg, logger)
}
