// Package store persists the tracker collections as whole JSON arrays in a
// key-value backend.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	energy "ecotrack/internal/energy/domain"
	"ecotrack/internal/observability/metrics"
)

// Fixed storage keys, one per collection.
const (
	KeyMeters      = "ecotrack_meters"
	KeyReadings    = "ecotrack_readings"
	KeySubMeters   = "ecotrack_submeters"
	KeySubReadings = "ecotrack_subreadings"
)

// Keys lists every collection key.
var Keys = []string{KeyMeters, KeyReadings, KeySubMeters, KeySubReadings}

// KV is a byte-oriented key-value backend.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Collections implements energy.Store over a KV backend.
type Collections struct {
	kv     KV
	logger zerolog.Logger
}

// Option configures Collections.
type Option func(*Collections)

// WithLogger sets the logger used for read failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Collections) {
		c.logger = logger
	}
}

// NewCollections wraps kv.
func NewCollections(kv KV, opts ...Option) *Collections {
	c := &Collections{kv: kv, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ energy.Store = (*Collections)(nil)

// Meters returns the stored meters.
func (c *Collections) Meters(ctx context.Context) []energy.Meter {
	return load[energy.Meter](ctx, c, KeyMeters)
}

// SaveMeters replaces the stored meters.
func (c *Collections) SaveMeters(ctx context.Context, meters []energy.Meter) error {
	return save(ctx, c, KeyMeters, meters)
}

// Readings returns the stored readings.
func (c *Collections) Readings(ctx context.Context) []energy.Reading {
	return load[energy.Reading](ctx, c, KeyReadings)
}

// SaveReadings replaces the stored readings.
func (c *Collections) SaveReadings(ctx context.Context, readings []energy.Reading) error {
	return save(ctx, c, KeyReadings, readings)
}

// SubMeters returns the stored sub-meters.
func (c *Collections) SubMeters(ctx context.Context) []energy.SubMeter {
	return load[energy.SubMeter](ctx, c, KeySubMeters)
}

// SaveSubMeters replaces the stored sub-meters.
func (c *Collections) SaveSubMeters(ctx context.Context, subMeters []energy.SubMeter) error {
	return save(ctx, c, KeySubMeters, subMeters)
}

// SubReadings returns the stored sub-readings.
func (c *Collections) SubReadings(ctx context.Context) []energy.SubReading {
	return load[energy.SubReading](ctx, c, KeySubReadings)
}

// SaveSubReadings replaces the stored sub-readings.
func (c *Collections) SaveSubReadings(ctx context.Context, subReadings []energy.SubReading) error {
	return save(ctx, c, KeySubReadings, subReadings)
}

// Clear removes every collection.
func (c *Collections) Clear(ctx context.Context) error {
	for _, key := range Keys {
		if err := c.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("store: clear %s: %w", key, err)
		}
	}
	return nil
}

// load never fails: a missing key is empty, and a backend or decode error is
// logged and also treated as empty.
func load[T any](ctx context.Context, c *Collections, key string) []T {
	data, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		c.readFailed(key, err)
		return []T{}
	}
	if !ok || len(data) == 0 {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.readFailed(key, err)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func save[T any](ctx context.Context, c *Collections, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := c.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("store: save %s: %w", key, err)
	}
	return nil
}

func (c *Collections) readFailed(key string, err error) {
	c.logger.Warn().Err(err).Str("collection", key).Msg("unreadable collection treated as empty")
	metrics.IncStoreReadFailure(key)
}
