// Package storage provides the durable key-value layer used for host options
// and transients.
//
// # Overview
//
// Every piece of persisted state in pluginlinks is a small value under a fixed
// key: the cached plugin snapshot (a transient with a 24 hour TTL), the change
// detector hashes and the activation lists (options, no TTL), and consumed
// nonce ids. Store is the single abstraction over all of them:
//
//	type Store interface {
//		Get(ctx context.Context, key string) ([]byte, error)
//		Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
//		Delete(ctx context.Context, key string) error
//		Close() error
//	}
//
// Get returns ErrNotFound for missing and expired keys alike.
//
// # Backends
//
// MemoryStore: bounded LRU (hashicorp/golang-lru), single process only.
//
// FileSystemStorage: one JSON file per key, written atomically.
//
// redisstore.RedisStore: Redis strings; expiry is delegated to Redis.
//
// sqlstore.SQLStore: one table in SQLite or PostgreSQL with an expires_at
// column, purged lazily on read and periodically through Purger.
package storage
