package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a key is absent or has expired
var ErrNotFound = errors.New("storage: key not found")

// Store is a durable key-value store with optional per-key expiry.
// A ttl of zero stores the value without expiry (an "option"); a positive
// ttl stores a "transient".
//
// Add stores value only when key is absent or expired and reports whether it
// did. The check and the write are atomic.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pinger is implemented by stores backed by a remote service
type Pinger interface {
	Ping(ctx context.Context) error
}

// Purger is implemented by stores that do not expire keys on their own
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Config for storage backend
type Config struct {
	Type string `yaml:"type" toml:"type"` // "memory", "filesystem", "redis", "sqlite", "postgres"

	// Memory config
	MemoryMaxEntries int `yaml:"memory_max_entries" toml:"memory_max_entries"`

	// Filesystem config
	FilesystemRoot string `yaml:"filesystem_root" toml:"filesystem_root"`

	// SQL config (sqlite and postgres)
	SQLitePath       string `yaml:"sqlite_path" toml:"sqlite_path"`
	PostgresURL      string `yaml:"postgres_url" toml:"postgres_url"`
	PostgresMaxConns int    `yaml:"postgres_max_conns" toml:"postgres_max_conns"`
	TableName        string `yaml:"table_name" toml:"table_name"`

	// Redis config
	RedisURL        string `yaml:"redis_url" toml:"redis_url"`
	RedisPassword   string `yaml:"redis_password" toml:"redis_password"`
	RedisDB         int    `yaml:"redis_db" toml:"redis_db"`
	RedisMaxRetries int    `yaml:"redis_max_retries" toml:"redis_max_retries"`
	RedisPoolSize   int    `yaml:"redis_pool_size" toml:"redis_pool_size"`
	RedisKeyPrefix  string `yaml:"redis_key_prefix" toml:"redis_key_prefix"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Type:             "filesystem",
		MemoryMaxEntries: 1024,
		FilesystemRoot:   "/tmp/pluginlinks/store",
		SQLitePath:       "/tmp/pluginlinks/options.db",
		PostgresMaxConns: 10,
		TableName:        "pluginlinks_options",
		RedisDB:          0,
		RedisMaxRetries:  3,
		RedisPoolSize:    10,
		RedisKeyPrefix:   "pluginlinks:",
	}
}

// GetJSON reads key and decodes it into v
func GetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, s Store, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}

// expiresAt converts a ttl into an absolute deadline, zero meaning never
func expiresAt(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// expired reports whether a deadline has passed
func expired(now, deadline time.Time) bool {
	return !deadline.IsZero() && !now.Before(deadline)
}
