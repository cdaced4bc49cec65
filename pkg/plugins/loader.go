package plugins

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/platinummonkey/pluginlinks/pkg/storage"
	"github.com/sirupsen/logrus"
)

const (
	// ManifestFile is the header file of a directory plugin
	ManifestFile = "plugin.yaml"

	// ActivePluginsOption holds the sorted per-site active list
	ActivePluginsOption = "active_plugins"
	// SitewidePluginsOption holds the network-activated list
	SitewidePluginsOption = "active_sitewide_plugins"
)

// FilesystemHost is a Host backed by a plugin directory and a Store.
//
// A plugin is either a directory holding plugin.yaml (identifier
// "<dir>/plugin.yaml") or a single .yaml/.yml file at the root (identifier
// "<name>.yaml"). Activation lists are kept as JSON options in the store.
type FilesystemHost struct {
	root      string
	store     storage.Store
	multisite bool
	mu        sync.Mutex
	log       *logrus.Logger
}

// NewFilesystemHost creates a host rooted at root
func NewFilesystemHost(root string, store storage.Store, multisite bool, log *logrus.Logger) *FilesystemHost {
	if log == nil {
		log = logrus.New()
	}

	return &FilesystemHost{
		root:      root,
		store:     store,
		multisite: multisite,
		log:       log,
	}
}

// Root returns the plugin directory
func (h *FilesystemHost) Root() string {
	return h.root
}

// Multisite implements StatusReader
func (h *FilesystemHost) Multisite() bool {
	return h.multisite
}

// Enumerate scans the plugin root and returns every valid plugin ordered by
// name, case-insensitively.
func (h *FilesystemHost) Enumerate(ctx context.Context) ([]Entry, error) {
	if _, err := os.Stat(h.root); os.IsNotExist(err) {
		h.log.Debugf("Plugin directory does not exist: %s", h.root)
		return nil, nil
	}

	dirEntries, err := os.ReadDir(h.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin directory %s: %w", h.root, err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file, ok := h.candidateFile(de)
		if !ok {
			continue
		}

		meta, err := h.loadMetadata(file)
		if err != nil {
			h.log.Warnf("Failed to load plugin %s: %v", file, err)
			continue
		}

		entries = append(entries, Entry{File: file, Metadata: meta})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].Metadata.Name), strings.ToLower(entries[j].Metadata.Name)
		if a != b {
			return a < b
		}
		return entries[i].File < entries[j].File
	})

	return entries, nil
}

// candidateFile maps a root directory entry to a plugin identifier
func (h *FilesystemHost) candidateFile(de os.DirEntry) (string, bool) {
	name := de.Name()
	if strings.HasPrefix(name, ".") {
		return "", false
	}

	if de.IsDir() {
		if _, err := os.Stat(filepath.Join(h.root, name, ManifestFile)); err != nil {
			return "", false
		}
		return path.Join(name, ManifestFile), true
	}

	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return name, true
	}
	return "", false
}

// ReadMetadata implements MetadataReader
func (h *FilesystemHost) ReadMetadata(ctx context.Context, file string) (*Metadata, error) {
	if err := validateFile(file); err != nil {
		return nil, err
	}
	return h.loadMetadata(file)
}

func (h *FilesystemHost) loadMetadata(file string) (*Metadata, error) {
	meta, err := LoadMetadata(filepath.Join(h.root, filepath.FromSlash(file)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, file)
		}
		return nil, err
	}

	if validationErrors := ValidateMetadata(meta); len(validationErrors) > 0 {
		return nil, fmt.Errorf("manifest validation failed: %v", validationErrors)
	}

	return meta, nil
}

// ListDirectory implements Sources. The listing includes "." and "..".
func (h *FilesystemHost) ListDirectory(ctx context.Context) ([]string, error) {
	dirEntries, err := os.ReadDir(h.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list plugin directory: %w", err)
	}

	names := []string{".", ".."}
	for _, de := range dirEntries {
		names = append(names, de.Name())
	}
	sort.Strings(names)
	return names, nil
}

// PageOwner returns the plugin that registers the admin page slug
func (h *FilesystemHost) PageOwner(ctx context.Context, slug string) (string, bool, error) {
	entries, err := h.Enumerate(ctx)
	if err != nil {
		return "", false, err
	}

	for _, entry := range entries {
		for _, page := range entry.Metadata.AdminPages {
			if page == slug {
				return entry.File, true, nil
			}
		}
	}
	return "", false, nil
}

// validateFile rejects identifiers that are absolute or leave the root
func validateFile(file string) error {
	if file == "" || strings.Contains(file, "\\") || path.IsAbs(file) {
		return fmt.Errorf("%w: %q", ErrInvalidFile, file)
	}
	clean := path.Clean(file)
	if clean != file || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %q", ErrInvalidFile, file)
	}
	return nil
}
