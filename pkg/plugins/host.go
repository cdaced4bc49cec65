package plugins

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/platinummonkey/pluginlinks/pkg/storage"
)

// ActivePlugins implements Sources
func (h *FilesystemHost) ActivePlugins(ctx context.Context) ([]string, error) {
	return h.readList(ctx, ActivePluginsOption)
}

// IsActive implements StatusReader. Network-activated plugins count as
// active on every site.
func (h *FilesystemHost) IsActive(ctx context.Context, file string) (bool, error) {
	active, err := h.readList(ctx, ActivePluginsOption)
	if err != nil {
		return false, err
	}
	if contains(active, file) {
		return true, nil
	}
	return h.IsActiveForNetwork(ctx, file)
}

// IsActiveForNetwork implements StatusReader
func (h *FilesystemHost) IsActiveForNetwork(ctx context.Context, file string) (bool, error) {
	if !h.multisite {
		return false, nil
	}
	sitewide, err := h.readList(ctx, SitewidePluginsOption)
	if err != nil {
		return false, err
	}
	return contains(sitewide, file), nil
}

// IsNetworkOnly implements StatusReader
func (h *FilesystemHost) IsNetworkOnly(ctx context.Context, file string) (bool, error) {
	meta, err := h.ReadMetadata(ctx, file)
	if err != nil {
		return false, err
	}
	return meta.Network, nil
}

// Activate implements Toggler
func (h *FilesystemHost) Activate(ctx context.Context, file string) error {
	meta, err := h.ReadMetadata(ctx, file)
	if err != nil {
		return err
	}
	if h.multisite && meta.Network {
		return fmt.Errorf("%w: %s", ErrNetworkOnly, file)
	}

	changed, err := h.updateList(ctx, ActivePluginsOption, func(list []string) []string {
		if contains(list, file) {
			return list
		}
		return append(list, file)
	})
	if err != nil {
		return err
	}

	if changed {
		h.log.Infof("Activated plugin: %s (%s)", meta.Name, file)
	}
	return nil
}

// Deactivate implements Toggler. Deactivating an inactive plugin is a no-op.
func (h *FilesystemHost) Deactivate(ctx context.Context, file string) error {
	if err := validateFile(file); err != nil {
		return err
	}

	changed, err := h.updateList(ctx, ActivePluginsOption, func(list []string) []string {
		return remove(list, file)
	})
	if err != nil {
		return err
	}

	if changed {
		h.log.Infof("Deactivated plugin: %s", file)
	}
	return nil
}

// ActivateNetwork activates a plugin for every site of the network
func (h *FilesystemHost) ActivateNetwork(ctx context.Context, file string) error {
	if !h.multisite {
		return ErrNotMultisite
	}
	if _, err := h.ReadMetadata(ctx, file); err != nil {
		return err
	}

	_, err := h.updateList(ctx, SitewidePluginsOption, func(list []string) []string {
		if contains(list, file) {
			return list
		}
		return append(list, file)
	})
	return err
}

// DeactivateNetwork removes a network activation
func (h *FilesystemHost) DeactivateNetwork(ctx context.Context, file string) error {
	if !h.multisite {
		return ErrNotMultisite
	}

	_, err := h.updateList(ctx, SitewidePluginsOption, func(list []string) []string {
		return remove(list, file)
	})
	return err
}

// readList loads a sorted identifier list option, treating absence as empty
func (h *FilesystemHost) readList(ctx context.Context, option string) ([]string, error) {
	var list []string
	err := storage.GetJSON(ctx, h.store, option, &list)
	if errors.Is(err, storage.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", option, err)
	}
	sort.Strings(list)
	return list, nil
}

// updateList applies fn to a list option and persists the sorted result
func (h *FilesystemHost) updateList(ctx context.Context, option string, fn func([]string) []string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, err := h.readList(ctx, option)
	if err != nil {
		return false, err
	}

	before := len(list)
	updated := fn(append([]string(nil), list...))
	sort.Strings(updated)
	if len(updated) == before {
		return false, nil
	}

	if err := storage.SetJSON(ctx, h.store, option, updated, 0); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", option, err)
	}
	return true, nil
}

func contains(list []string, file string) bool {
	i := sort.SearchStrings(list, file)
	return i < len(list) && list[i] == file
}

func remove(list []string, file string) []string {
	out := list[:0]
	for _, f := range list {
		if f != file {
			out = append(out, f)
		}
	}
	return out
}
