package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"ecotrack/internal/config"
	"ecotrack/internal/energy/infrastructure/store"
	"ecotrack/internal/forecast/infrastructure/pricing"
)

func memoryConfig() config.Config {
	cfg := config.FromEnv()
	cfg.Store = config.StoreConfig{Backend: store.BackendMemory}
	cfg.Oracle.APIKey = ""
	cfg.S3.Bucket = ""
	cfg.Influx.URL = ""
	cfg.ColumnsFile = ""
	return cfg
}

func TestBuildOffline(t *testing.T) {
	ctx := context.Background()
	rt, err := Build(ctx, memoryConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer rt.Close()

	if _, ok := rt.Oracle.(*pricing.FixedOracle); !ok {
		t.Fatalf("expected fixed oracle without key, got %T", rt.Oracle)
	}
	if rt.Gemini != nil {
		t.Fatalf("expected no gemini client without key")
	}
	if _, err := rt.Tracker.AddMeter(ctx, "Casa", ""); err != nil {
		t.Fatalf("add meter: %v", err)
	}
	if _, err := rt.Archive(ctx); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("expected ErrArchiveDisabled, got %v", err)
	}
	if _, err := rt.Influx(ctx); !errors.Is(err, ErrInfluxDisabled) {
		t.Fatalf("expected ErrInfluxDisabled, got %v", err)
	}
	rt.RegisterMetrics()
}

func TestBuildWithKeyAndColumns(t *testing.T) {
	dir := t.TempDir()
	columns := filepath.Join(dir, "columns.yaml")
	if err := os.WriteFile(columns, []byte("columns:\n  grid_kwh: [\"lectura\"]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := memoryConfig()
	cfg.Oracle.APIKey = "key"
	cfg.ColumnsFile = columns
	rt, err := Build(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer rt.Close()
	if rt.Gemini == nil {
		t.Fatalf("expected gemini client with key")
	}

	cfg.ColumnsFile = filepath.Join(dir, "missing.yaml")
	if _, err := Build(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for missing columns file")
	}
}
