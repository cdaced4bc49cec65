// Package changedetect decides whether a watched data source changed since
// it was last observed.
package changedetect

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/pluginlinks/pkg/storage"
	"github.com/sirupsen/logrus"
)

// Detector compares a content hash of data against the hash recorded for a
// key. Each key has its own record, so sources never affect one another.
type Detector struct {
	store  storage.Store
	prefix string
	log    *logrus.Logger
}

// New creates a detector whose records are stored as "<prefix>_hash-<key>"
func New(store storage.Store, prefix string, log *logrus.Logger) *Detector {
	if log == nil {
		log = logrus.New()
	}
	return &Detector{store: store, prefix: prefix, log: log}
}

// OptionName returns the store key holding the hash for key
func (d *Detector) OptionName(key string) string {
	return fmt.Sprintf("%s_hash-%s", d.prefix, SanitizeKey(key))
}

// HasChanged reports whether data differs from the last data recorded for
// key. A missing record counts as changed. On change the new hash is written
// through before returning.
func (d *Detector) HasChanged(ctx context.Context, key string, data interface{}) (bool, error) {
	hash, err := Hash(data)
	if err != nil {
		return false, err
	}

	option := d.OptionName(key)
	previous, err := d.store.Get(ctx, option)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("failed to read %s: %w", option, err)
	}

	if err == nil && string(previous) == hash {
		return false, nil
	}

	if err := d.store.Set(ctx, option, []byte(hash), 0); err != nil {
		return true, fmt.Errorf("failed to record %s: %w", option, err)
	}

	d.log.Debugf("Change detected for %s", key)
	return true, nil
}

// Hash serialises data as JSON and returns its hex MD5 digest. encoding/json
// sorts map keys, so equal values always hash equally.
func Hash(data interface{}) (string, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialise data: %w", err)
	}
	sum := md5.Sum(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// SanitizeKey lowercases key and drops everything but [a-z0-9_-]
func SanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
