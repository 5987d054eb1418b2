// Package config loads process configuration from the environment, an
// optional .env file and an optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ecotrack/internal/energy/infrastructure/store"
	"ecotrack/internal/forecast/infrastructure/gemini"
)

// Config is the process configuration.
type Config struct {
	HTTPAddr    string   `yaml:"http_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	ColumnsFile string   `yaml:"columns_file"`

	Store  StoreConfig  `yaml:"store"`
	Oracle OracleConfig `yaml:"oracle"`
	S3     S3Config     `yaml:"s3"`
	Influx InfluxConfig `yaml:"influx"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// StoreConfig selects the collection store backend.
type StoreConfig struct {
	Backend       string `yaml:"backend"`
	SQLitePath    string `yaml:"sqlite_path"`
	DatabaseURL   string `yaml:"database_url"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// OracleConfig configures the price and forecast oracle.
type OracleConfig struct {
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	FixedPrice float64       `yaml:"fixed_price_per_kwh"`
}

// S3Config configures the backup archive. An empty bucket disables it.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

// InfluxConfig configures the readings export. An empty URL disables it.
type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// Load reads an optional .env file, then the environment, then the YAML file
// named by ECOTRACK_CONFIG. Values in the YAML file win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	cfg := FromEnv()
	if path := os.Getenv("ECOTRACK_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := cfg.Overlay(data); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FromEnv builds a config from environment variables only.
func FromEnv() Config {
	return Config{
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		CORSOrigins: splitCSV(os.Getenv("CORS_ORIGINS")),
		ColumnsFile: os.Getenv("COLUMNS_FILE"),
		Store: StoreConfig{
			Backend:       getenvDefault("STORE_BACKEND", store.BackendSQLite),
			SQLitePath:    getenvDefault("SQLITE_PATH", "ecotrack.db"),
			DatabaseURL:   getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getenvIntDefault("REDIS_DB", 0),
			RedisPrefix:   os.Getenv("REDIS_PREFIX"),
		},
		Oracle: OracleConfig{
			APIKey:     getenvDefault("GEMINI_API_KEY", os.Getenv("API_KEY")),
			Model:      getenvDefault("GEMINI_MODEL", gemini.DefaultModel),
			BaseURL:    getenvDefault("GEMINI_BASE_URL", gemini.DefaultBaseURL),
			Timeout:    getenvDuration("ORACLE_TIMEOUT", 60*time.Second),
			FixedPrice: getenvFloatDefault("FIXED_PRICE_PER_KWH", 0),
		},
		S3: S3Config{
			Bucket: os.Getenv("S3_BUCKET"),
			Region: os.Getenv("AWS_REGION"),
			Prefix: getenvDefault("S3_PREFIX", "backups/"),
		},
		Influx: InfluxConfig{
			URL:    os.Getenv("INFLUX_URL"),
			Token:  os.Getenv("INFLUX_TOKEN"),
			Org:    os.Getenv("INFLUX_ORG"),
			Bucket: getenvDefault("INFLUX_BUCKET", "ecotrack"),
		},
		LogLevel:  getenvDefault("LOG_LEVEL", "info"),
		LogFormat: getenvDefault("LOG_FORMAT", "json"),
	}
}

// Overlay applies YAML on top of c. Keys absent from the document keep their
// current value.
func (c *Config) Overlay(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}
	return nil
}

// Validate rejects unknown backends and backends missing their address.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendMemory:
	case store.BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("config: SQLITE_PATH is required for the sqlite backend")
		}
	case store.BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres backend")
		}
	case store.BackendRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Oracle.FixedPrice < 0 {
		return errors.New("config: FIXED_PRICE_PER_KWH must not be negative")
	}
	if c.Influx.URL != "" && c.Influx.Org == "" {
		return errors.New("config: INFLUX_ORG is required when INFLUX_URL is set")
	}
	return nil
}

// StoreOptions converts the backend settings for store.Open.
func (c Config) StoreOptions() store.Config {
	return store.Config{
		Backend:       c.Store.Backend,
		SQLitePath:    c.Store.SQLitePath,
		DatabaseURL:   c.Store.DatabaseURL,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		RedisPrefix:   c.Store.RedisPrefix,
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
