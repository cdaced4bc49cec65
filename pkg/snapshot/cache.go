// Package snapshot caches the list of installed plugins between requests.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/pluginlinks/pkg/changedetect"
	"github.com/platinummonkey/pluginlinks/pkg/observability"
	"github.com/platinummonkey/pluginlinks/pkg/plugins"
	"github.com/platinummonkey/pluginlinks/pkg/storage"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is one day
const DefaultTTL = 24 * time.Hour

// Change detector keys
const (
	DirectoryKey     = "plugins"
	ActivePluginsKey = "active_plugins"
)

// Recompute reasons
const (
	ReasonAbsent  = "absent"
	ReasonFlushed = "flushed"
	ReasonExpired = "expired"
	ReasonCorrupt = "corrupt"
	ReasonChanged = "changed"
)

// Entry is the cached snapshot
type Entry struct {
	Items     []plugins.Descriptor `json:"items"`
	CreatedAt time.Time            `json:"created_at"`
	TTL       time.Duration        `json:"ttl"`
}

// Cache returns the installed plugin list, recomputing it from the host when
// the cached entry is absent, expired, flushed, or when either watched
// source changed.
//
// Recomputation is not serialised: concurrent misses may both enumerate the
// host and both write the entry, last write wins.
type Cache struct {
	host     plugins.Host
	detector *changedetect.Detector
	store    storage.Store
	key      string
	ttl      time.Duration
	now      func() time.Time
	metrics  *observability.Metrics
	log      *logrus.Logger
}

// Option configures a Cache
type Option func(*Cache)

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics records lookups and recomputes
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a cache storing its entry as the transient "<prefix>_plugins"
func New(host plugins.Host, detector *changedetect.Detector, store storage.Store, prefix string, opts ...Option) *Cache {
	c := &Cache{
		host:     host,
		detector: detector,
		store:    store,
		key:      prefix + "_plugins",
		ttl:      DefaultTTL,
		now:      time.Now,
		log:      logrus.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the transient name
func (c *Cache) Key() string {
	return c.key
}

// GetPlugins returns the plugin descriptors in host enumeration order
func (c *Cache) GetPlugins(ctx context.Context) ([]plugins.Descriptor, error) {
	// Always evaluated first: both detectors must observe every lookup.
	force, err := c.ForceRefresh(ctx)
	if err != nil {
		return nil, err
	}

	entry, reason := c.load(ctx)
	if reason == "" && force {
		reason = ReasonChanged
	}
	if reason == "" {
		c.metrics.RecordSnapshotLookup(true)
		return entry.Items, nil
	}

	c.metrics.RecordSnapshotLookup(false)
	return c.recompute(ctx, reason)
}

// Flush drops the cached entry so the next GetPlugins recomputes. A marker
// transient lets that recompute be reported as flushed rather than absent.
func (c *Cache) Flush(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("failed to flush plugin cache: %w", err)
	}
	if err := c.store.Set(ctx, c.flushedKey(), []byte("1"), c.ttl); err != nil {
		c.log.Warnf("Failed to mark plugin cache flushed: %v", err)
	}
	c.log.Debug("Plugin cache flushed")
	return nil
}

func (c *Cache) flushedKey() string {
	return c.key + "_flushed"
}

// ForceRefresh evaluates both change detectors and ORs the results. Both are
// always run: each records its own hash as a side effect.
func (c *Cache) ForceRefresh(ctx context.Context) (bool, error) {
	dirChanged, dirErr := c.pluginsChanged(ctx)
	activeChanged, activeErr := c.activePluginsChanged(ctx)
	if err := errors.Join(dirErr, activeErr); err != nil {
		return false, err
	}
	return dirChanged || activeChanged, nil
}

func (c *Cache) pluginsChanged(ctx context.Context) (bool, error) {
	listing, err := c.host.ListDirectory(ctx)
	if err != nil {
		return false, err
	}
	return c.detector.HasChanged(ctx, DirectoryKey, listing)
}

func (c *Cache) activePluginsChanged(ctx context.Context) (bool, error) {
	active, err := c.host.ActivePlugins(ctx)
	if err != nil {
		return false, err
	}
	return c.detector.HasChanged(ctx, ActivePluginsKey, active)
}

// load returns the cached entry, or the reason it cannot be used
func (c *Cache) load(ctx context.Context) (*Entry, string) {
	data, err := c.store.Get(ctx, c.key)
	if errors.Is(err, storage.ErrNotFound) {
		if _, err := c.store.Get(ctx, c.flushedKey()); err == nil {
			return nil, ReasonFlushed
		}
		return nil, ReasonAbsent
	}
	if err != nil {
		c.log.Warnf("Failed to read plugin cache: %v", err)
		return nil, ReasonAbsent
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || len(entry.Items) == 0 {
		return nil, ReasonCorrupt
	}

	if !c.now().Before(entry.CreatedAt.Add(entry.TTL)) {
		return nil, ReasonExpired
	}

	return &entry, ""
}

// recompute enumerates the host and stores a fresh entry
func (c *Cache) recompute(ctx context.Context, reason string) ([]plugins.Descriptor, error) {
	entries, err := c.host.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate plugins: %w", err)
	}

	items := make([]plugins.Descriptor, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.File] {
			continue
		}
		seen[e.File] = true

		d, err := plugins.NewDescriptor(ctx, c.host, e.File, e.Metadata)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}

	entry := Entry{Items: items, CreatedAt: c.now(), TTL: c.ttl}
	if err := storage.SetJSON(ctx, c.store, c.key, entry, c.ttl); err != nil {
		// The fresh list is still correct for this request
		c.log.Warnf("Failed to store plugin cache: %v", err)
	}
	if reason == ReasonFlushed {
		if err := c.store.Delete(ctx, c.flushedKey()); err != nil {
			c.log.Warnf("Failed to clear plugin cache flush marker: %v", err)
		}
	}

	c.metrics.RecordSnapshotRecompute(reason, len(items))
	c.log.Debugf("Plugin cache recomputed (%s): %d plugins", reason, len(items))
	return items, nil
}
