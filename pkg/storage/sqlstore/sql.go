// Package sqlstore implements storage.Store on a single SQL table.
// SQLite (mattn/go-sqlite3) and PostgreSQL (lib/pq) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/platinummonkey/pluginlinks/pkg/storage"
)

// Dialect selects placeholder and column syntax
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

var tableNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQLStore stores keys in a table (name, value, expires_at).
// expires_at is unix milliseconds, 0 meaning the key never expires.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
	now     func() time.Time
}

// Open opens the database for the given dialect and ensures the schema
func Open(ctx context.Context, dialect Dialect, dsn, table string, maxConns int) (*SQLStore, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect, err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if dialect == DialectSQLite {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}

	store, err := New(ctx, db, dialect, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an open database and creates the table if needed
func New(ctx context.Context, db *sql.DB, dialect Dialect, table string) (*SQLStore, error) {
	if !tableNameRegex.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	s := &SQLStore{db: db, dialect: dialect, table: table, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// WithClock replaces the time source
func (s *SQLStore) WithClock(now func() time.Time) *SQLStore {
	s.now = now
	return s
}

func (s *SQLStore) migrate(ctx context.Context) error {
	valueType := "BLOB"
	if s.dialect == DialectPostgres {
		valueType = "BYTEA"
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		name TEXT PRIMARY KEY,
		value %s NOT NULL,
		expires_at BIGINT NOT NULL DEFAULT 0
	)`, s.table, valueType)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// ph returns the n-th (1-based) placeholder for the dialect
func (s *SQLStore) ph(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Get implements storage.Store.Get
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf("SELECT value, expires_at FROM %s WHERE name = %s", s.table, s.ph(1))

	var value []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	if expiresAt != 0 && s.now().UnixMilli() >= expiresAt {
		if err := s.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, storage.ErrNotFound
	}
	return value, nil
}

// Set implements storage.Store.Set
func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixMilli()
	}
	if value == nil {
		value = []byte{}
	}

	query := fmt.Sprintf(`INSERT INTO %s (name, value, expires_at) VALUES (%s, %s, %s)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		s.table, s.ph(1), s.ph(2), s.ph(3))

	if _, err := s.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Add implements storage.Store.Add. An expired row is overwritten in the
// same statement; a live row leaves RowsAffected at zero.
func (s *SQLStore) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	now := s.now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixMilli()
	}
	if value == nil {
		value = []byte{}
	}

	query := fmt.Sprintf(`INSERT INTO %s (name, value, expires_at) VALUES (%s, %s, %s)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
		WHERE %s.expires_at <> 0 AND %s.expires_at <= %s`,
		s.table, s.ph(1), s.ph(2), s.ph(3), s.table, s.table, s.ph(4))

	res, err := s.db.ExecContext(ctx, query, key, value, expiresAt, now.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("failed to add %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to add %s: %w", key, err)
	}
	return n > 0, nil
}

// Delete implements storage.Store.Delete
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE name = %s", s.table, s.ph(1))
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes every expired transient and returns the count
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at <> 0 AND expires_at <= %s", s.table, s.ph(1))
	res, err := s.db.ExecContext(ctx, query, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired keys: %w", err)
	}
	return res.RowsAffected()
}

// Ping checks database connectivity
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the handle for health checks
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
