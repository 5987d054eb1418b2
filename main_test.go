package main

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"ecotrack/internal/config"
	"ecotrack/internal/energy/infrastructure/store"
)

func testConfig() config.Config {
	cfg := config.FromEnv()
	cfg.Store = config.StoreConfig{Backend: store.BackendMemory}
	cfg.Oracle = config.OracleConfig{FixedPrice: 0.2}
	cfg.S3.Bucket = ""
	cfg.Influx.URL = ""
	cfg.ColumnsFile = ""
	return cfg
}

func TestRunReturnsBootstrapError(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Backend = "floppy"

	err := run(cfg, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected bootstrap error")
	}
	if !strings.Contains(err.Error(), "bootstrap") {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}

func TestRunReturnsListenError(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = "no-port"

	err := run(cfg, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected listen error")
	}
	if !strings.Contains(err.Error(), "http server") {
		t.Fatalf("expected http server error, got %v", err)
	}
}
