package storage

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore keeps options in a plain map and transients in a bounded LRU.
// Only transients are ever evicted.
type MemoryStore struct {
	mu         sync.Mutex
	options    map[string][]byte
	transients *lru.Cache[string, memoryEntry]
	now        func() time.Time
}

// NewMemoryStore creates a memory store holding at most maxEntries transients
func NewMemoryStore(maxEntries int) (*MemoryStore, error) {
	if maxEntries < 16 {
		maxEntries = 16
	}
	cache, err := lru.New[string, memoryEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{
		options:    make(map[string][]byte),
		transients: cache,
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source, used by tests to step past TTLs
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Get implements Store.Get
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	return clone(value), nil
}

// Set implements Store.Set
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store(key, clone(value), ttl)
	return nil
}

// Add implements Store.Add
func (s *MemoryStore) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(key); ok {
		return false, nil
	}
	s.store(key, clone(value), ttl)
	return true, nil
}

// Delete implements Store.Delete
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.options, key)
	s.transients.Remove(key)
	return nil
}

// Close releases resources
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.options = make(map[string][]byte)
	s.transients.Purge()
	return nil
}

// lookup returns the live value for key, dropping an expired transient.
// Callers hold s.mu.
func (s *MemoryStore) lookup(key string) ([]byte, bool) {
	if value, ok := s.options[key]; ok {
		return value, true
	}
	entry, ok := s.transients.Get(key)
	if !ok {
		return nil, false
	}
	if expired(s.now(), entry.expiresAt) {
		s.transients.Remove(key)
		return nil, false
	}
	return entry.value, true
}

// store writes key to the side matching ttl and clears the other. Callers
// hold s.mu.
func (s *MemoryStore) store(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		s.transients.Remove(key)
		s.options[key] = value
		return
	}
	delete(s.options, key)
	s.transients.Add(key, memoryEntry{value: value, expiresAt: expiresAt(s.now(), ttl)})
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
