// Package bootstrap wires configuration into a running tracker. It is shared
// by the server and the command line tool.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	s3archive "ecotrack/internal/backup/infrastructure/s3"
	"ecotrack/internal/config"
	"ecotrack/internal/energy/application"
	"ecotrack/internal/energy/infrastructure/influx"
	"ecotrack/internal/energy/infrastructure/store"
	"ecotrack/internal/energy/normalize"
	forecast "ecotrack/internal/forecast/domain"
	"ecotrack/internal/forecast/infrastructure/gemini"
	"ecotrack/internal/forecast/infrastructure/pricing"
	"ecotrack/internal/observability/metrics"
)

var (
	// ErrArchiveDisabled is returned when no S3 bucket is configured.
	ErrArchiveDisabled = errors.New("bootstrap: S3_BUCKET is not configured")
	// ErrInfluxDisabled is returned when no InfluxDB URL is configured.
	ErrInfluxDisabled = errors.New("bootstrap: INFLUX_URL is not configured")
)

// Runtime holds the wired components.
type Runtime struct {
	Config  config.Config
	Logger  zerolog.Logger
	Tracker *application.Tracker
	Oracle  forecast.Oracle
	// Gemini is nil when no API key is configured.
	Gemini *gemini.Client

	backend store.Backend
}

// Build opens the store, selects the oracle and loads the working set.
func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Runtime, error) {
	var normalizerOpts []normalize.Option
	if cfg.ColumnsFile != "" {
		matchers, err := normalize.LoadMatchers(cfg.ColumnsFile)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: columns file: %w", err)
		}
		normalizerOpts = append(normalizerOpts, normalize.WithMatchers(matchers))
	}

	backend, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open store: %w", err)
	}
	collections := store.NewCollections(backend, store.WithLogger(logger.With().Str("component", "store").Logger()))

	rt := &Runtime{Config: cfg, Logger: logger, backend: backend}
	if cfg.Oracle.APIKey != "" {
		rt.Gemini = gemini.NewClient(cfg.Oracle.APIKey,
			gemini.WithBaseURL(cfg.Oracle.BaseURL),
			gemini.WithModel(cfg.Oracle.Model),
			gemini.WithTimeout(cfg.Oracle.Timeout),
			gemini.WithLogger(logger.With().Str("component", "oracle").Logger()),
		)
		rt.Oracle = rt.Gemini
	} else {
		fixed, err := pricing.NewFixedOracle(cfg.Oracle.FixedPrice)
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("bootstrap: fixed oracle: %w", err)
		}
		logger.Warn().Msg("no oracle API key configured, prices are fixed and analysis is unavailable")
		rt.Oracle = fixed
	}

	tracker, err := application.NewTracker(collections, rt.Oracle,
		application.WithNormalizer(normalize.NewNormalizer(normalizerOpts...)),
		application.WithLogger(logger.With().Str("component", "tracker").Logger()),
	)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	tracker.Load(ctx)
	rt.Tracker = tracker
	return rt, nil
}

// RegisterMetrics registers the process metrics and the collection gauges.
func (rt *Runtime) RegisterMetrics() {
	metrics.Init()
	metrics.RegisterCollectionGauges(func(collection string) int {
		snap := rt.Tracker.Snapshot()
		switch collection {
		case store.KeyMeters:
			return len(snap.Meters)
		case store.KeyReadings:
			return len(snap.Readings)
		case store.KeySubMeters:
			return len(snap.SubMeters)
		case store.KeySubReadings:
			return len(snap.SubReadings)
		}
		return 0
	}, store.Keys...)
}

// Archive opens the configured S3 backup archive.
func (rt *Runtime) Archive(ctx context.Context) (*s3archive.Archive, error) {
	if rt.Config.S3.Bucket == "" {
		return nil, ErrArchiveDisabled
	}
	return s3archive.Open(ctx, rt.Config.S3.Region, rt.Config.S3.Bucket, s3archive.WithPrefix(rt.Config.S3.Prefix))
}

// Influx connects to the configured InfluxDB bucket. Close the connection
// when done.
func (rt *Runtime) Influx(ctx context.Context) (*influx.Connection, error) {
	c := rt.Config.Influx
	if c.URL == "" {
		return nil, ErrInfluxDisabled
	}
	return influx.Connect(ctx, c.URL, c.Token, c.Org, c.Bucket, rt.Logger.With().Str("component", "influx").Logger())
}

// Close releases the store connection.
func (rt *Runtime) Close() error {
	if rt.backend == nil {
		return nil
	}
	return rt.backend.Close()
}
