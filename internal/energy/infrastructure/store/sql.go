package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const defaultTable = "ecotrack_collections"

// SQLKV stores collections as rows of a single key/value table. The same
// statements serve SQLite and Postgres; placeholders are rebound per driver.
type SQLKV struct {
	db    *sqlx.DB
	table string
	now   func() time.Time
}

// SQLOption configures SQLKV.
type SQLOption func(*SQLKV)

// WithTable overrides the default table name.
func WithTable(table string) SQLOption {
	return func(s *SQLKV) {
		if table != "" {
			s.table = table
		}
	}
}

// NewSQLKV wraps an open database.
func NewSQLKV(db *sqlx.DB, opts ...SQLOption) *SQLKV {
	s := &SQLKV{db: db, table: defaultTable, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSQLite opens (creating if needed) a SQLite file and its schema.
func OpenSQLite(ctx context.Context, path string, opts ...SQLOption) (*SQLKV, error) {
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	kv := NewSQLKV(db, opts...)
	if err := kv.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// OpenPostgres connects through pgx and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string, opts ...SQLOption) (*SQLKV, error) {
	if dsn == "" {
		return nil, errors.New("store: empty database url")
	}
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	kv := NewSQLKV(db, opts...)
	if err := kv.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// EnsureSchema creates the collections table.
func (s *SQLKV) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	collection TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at BIGINT NOT NULL
)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// Get loads the value stored under key.
func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := s.db.Rebind(fmt.Sprintf(`SELECT payload FROM %s WHERE collection = ?`, s.table))
	var value string
	err := s.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Set upserts value under key.
func (s *SQLKV) Set(ctx context.Context, key string, value []byte) error {
	query := s.db.Rebind(fmt.Sprintf(`
INSERT INTO %s (collection, payload, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (collection) DO UPDATE SET
	payload = excluded.payload,
	updated_at = excluded.updated_at`, s.table))
	_, err := s.db.ExecContext(ctx, query, key, string(value), s.now().UnixMilli())
	return err
}

// Delete removes key.
func (s *SQLKV) Delete(ctx context.Context, key string) error {
	query := s.db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE collection = ?`, s.table))
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}

// Close closes the database.
func (s *SQLKV) Close() error {
	return s.db.Close()
}
