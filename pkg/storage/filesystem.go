package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fileRecord is the on-disk representation of one key
type fileRecord struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// FileSystemStorage implements Store with one JSON file per key
type FileSystemStorage struct {
	rootDir string
	now     func() time.Time
	mu      sync.Mutex
}

// NewFileSystemStorage creates a new filesystem-based store
func NewFileSystemStorage(rootDir string) (*FileSystemStorage, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &FileSystemStorage{rootDir: rootDir, now: time.Now}, nil
}

// WithClock replaces the time source
func (s *FileSystemStorage) WithClock(now func() time.Time) *FileSystemStorage {
	s.now = now
	return s
}

func (s *FileSystemStorage) path(key string) string {
	return filepath.Join(s.rootDir, url.PathEscape(key)+".json")
}

// Get implements Store.Get
func (s *FileSystemStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupt record, drop it
		os.Remove(s.path(key))
		return nil, ErrNotFound
	}

	if expired(s.now(), rec.ExpiresAt) {
		os.Remove(s.path(key))
		return nil, ErrNotFound
	}

	return rec.Value, nil
}

// Set implements Store.Set
func (s *FileSystemStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := s.writeTemp(key, value, ttl)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Add implements Store.Add. The record is hard-linked into place, which fails
// when the key file already exists.
func (s *FileSystemStorage) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := s.writeTemp(key, value, ttl)
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp)

	for attempt := 0; attempt < 2; attempt++ {
		err = os.Link(tmp, s.path(key))
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return false, fmt.Errorf("failed to add %s: %w", key, err)
		}
		// An expired or corrupt record does not count as present
		if _, getErr := s.Get(ctx, key); getErr == nil {
			return false, nil
		} else if !errors.Is(getErr, ErrNotFound) {
			return false, getErr
		}
	}
	return false, fmt.Errorf("failed to add %s: %w", key, err)
}

// writeTemp writes the encoded record to a temp file in the store directory
func (s *FileSystemStorage) writeTemp(key string, value []byte, ttl time.Duration) (string, error) {
	data, err := json.Marshal(fileRecord{Value: value, ExpiresAt: expiresAt(s.now(), ttl)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.rootDir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close %s: %w", key, err)
	}
	return tmp.Name(), nil
}

// Delete implements Store.Delete
func (s *FileSystemStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PurgeExpired removes every expired record from disk
func (s *FileSystemStorage) PurgeExpired(ctx context.Context) (int64, error) {
	entries, err := os.ReadDir(s.rootDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read store directory: %w", err)
	}

	var purged int64
	now := s.now()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		full := filepath.Join(s.rootDir, name)
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		var rec fileRecord
		if err := json.Unmarshal(data, &rec); err != nil || expired(now, rec.ExpiresAt) {
			if os.Remove(full) == nil {
				purged++
			}
		}
	}
	return purged, nil
}

// Close releases resources
func (s *FileSystemStorage) Close() error {
	return nil
}
