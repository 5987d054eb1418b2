package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	energy "ecotrack/internal/energy/domain"
)

type failingKV struct {
	getErr error
	setErr error
}

func (f failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.getErr }
func (f failingKV) Set(context.Context, string, []byte) error { return f.setErr }
func (f failingKV) Delete(context.Context, string) error { return nil }

func sampleDataset() energy.Dataset {
	return energy.Dataset{
		Meters: []energy.Meter{{ID: "m1", Name: "Casa", Location: "ES00", CreatedAt: 1700000000000}},
		Readings: []energy.Reading{
			{ID: "r1", MeterID: "m1", Date: "2024-01", Kwh: 120, SolarKwh: energy.Float(30), Cost: 18.5, Notes: "enero"},
			{ID: "r2", MeterID: "m1", Date: "2024-02", Kwh: 100, Cost: 15},
		},
		SubMeters:   []energy.SubMeter{{ID: "s1", Name: "Garaje", CreatedAt: 1700000000001}},
		SubReadings: []energy.SubReading{energy.NewSubReading("sr1", "s1", "2024-01", 40, 6)},
	}
}

func exerciseCollections(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()
	c := NewCollections(kv)
	ds := sampleDataset()

	if got := c.Meters(ctx); len(got) != 0 {
		t.Fatalf("expected empty meters, got %d", len(got))
	}
	if err := c.SaveMeters(ctx, ds.Meters); err != nil {
		t.Fatalf("save meters: %v", err)
	}
	if err := c.SaveReadings(ctx, ds.Readings); err != nil {
		t.Fatalf("save readings: %v", err)
	}
	if err := c.SaveSubMeters(ctx, ds.SubMeters); err != nil {
		t.Fatalf("save sub-meters: %v", err)
	}
	if err := c.SaveSubReadings(ctx, ds.SubReadings); err != nil {
		t.Fatalf("save sub-readings: %v", err)
	}

	loaded := energy.LoadDataset(ctx, c)
	if len(loaded.Meters) != 1 || loaded.Meters[0] != ds.Meters[0] {
		t.Fatalf("unexpected meters %+v", loaded.Meters)
	}
	if len(loaded.Readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(loaded.Readings))
	}
	if loaded.Readings[0].SolarKwh == nil || *loaded.Readings[0].SolarKwh != 30 {
		t.Fatalf("expected solar 30, got %v", loaded.Readings[0].SolarKwh)
	}
	if loaded.Readings[1].SolarKwh != nil {
		t.Fatalf("expected unset solar to stay unset")
	}
	if len(loaded.SubReadings) != 1 || loaded.SubReadings[0].PriceUsed != 0.15 {
		t.Fatalf("unexpected sub-readings %+v", loaded.SubReadings)
	}

	if err := c.SaveReadings(ctx, ds.Readings[:1]); err != nil {
		t.Fatalf("replace readings: %v", err)
	}
	if got := c.Readings(ctx); len(got) != 1 {
		t.Fatalf("expected save to replace collection, got %d", len(got))
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared := energy.LoadDataset(ctx, c); len(cleared.Meters)+len(cleared.Readings)+len(cleared.SubMeters)+len(cleared.SubReadings) != 0 {
		t.Fatalf("expected empty dataset after clear, got %+v", cleared)
	}
}

func TestCollectionsMemory(t *testing.T) {
	exerciseCollections(t, NewMemoryKV())
}

func TestCollectionsSQLite(t *testing.T) {
	kv, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "ecotrack.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer kv.Close()
	exerciseCollections(t, kv)
}

func TestCollectionsPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	kv, err := OpenPostgres(context.Background(), dsn, WithTable("ecotrack_collections_test"))
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer kv.Close()
	exerciseCollections(t, kv)
}

func TestCollectionsRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	kv, err := OpenRedis(context.Background(), RedisOptions{Addr: addr, Prefix: "ecotrack_test:"})
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer kv.Close()
	exerciseCollections(t, kv)
}

func TestCorruptCollectionReadsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	if err := kv.Set(ctx, KeyReadings, []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var logs bytes.Buffer
	c := NewCollections(kv, WithLogger(zerolog.New(&logs)))

	readings := c.Readings(ctx)
	if readings == nil || len(readings) != 0 {
		t.Fatalf("expected empty non-nil readings, got %#v", readings)
	}
	if !bytes.Contains(logs.Bytes(), []byte(KeyReadings)) {
		t.Fatalf("expected warning log naming the collection, got %s", logs.String())
	}
}

func TestBackendErrorsReadEmptyAndSaveFails(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	c := NewCollections(failingKV{getErr: boom, setErr: boom})

	if got := c.Meters(ctx); len(got) != 0 {
		t.Fatalf("expected empty meters on backend error, got %d", len(got))
	}
	if err := c.SaveMeters(ctx, nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Config{Backend: "cassandra"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	backend, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("open default backend: %v", err)
	}
	if _, ok := backend.(*MemoryKV); !ok {
		t.Fatalf("expected memory backend by default, got %T", backend)
	}
}
