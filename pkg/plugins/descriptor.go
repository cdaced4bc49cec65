package plugins

import (
	"context"
	"fmt"
)

// DescriptorSource is what NewDescriptor needs from the host
type DescriptorSource interface {
	MetadataReader
	StatusReader
}

// Descriptor is an immutable snapshot of one installed plugin
type Descriptor struct {
	Name          string        `json:"name"`
	File          string        `json:"file"`
	Status        Status        `json:"status"`
	NetworkStatus NetworkStatus `json:"network_status,omitempty"`
}

// NewDescriptor builds a descriptor for file. When meta is nil the header is
// read from the host.
func NewDescriptor(ctx context.Context, host DescriptorSource, file string, meta *Metadata) (Descriptor, error) {
	if meta == nil {
		var err error
		meta, err = host.ReadMetadata(ctx, file)
		if err != nil {
			return Descriptor{}, fmt.Errorf("failed to read metadata for %s: %w", file, err)
		}
	}

	d := Descriptor{
		Name:   meta.Name,
		File:   file,
		Status: StatusInactive,
	}

	active, err := host.IsActive(ctx, file)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to read status for %s: %w", file, err)
	}
	if active {
		d.Status = StatusActive
	}

	if !host.Multisite() {
		return d, nil
	}

	networkActive, err := host.IsActiveForNetwork(ctx, file)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to read network status for %s: %w", file, err)
	}
	if networkActive {
		d.NetworkStatus = NetworkActivated
		return d, nil
	}

	networkOnly, err := host.IsNetworkOnly(ctx, file)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to read network status for %s: %w", file, err)
	}
	if networkOnly {
		d.NetworkStatus = NetworkOnly
	}

	return d, nil
}

// IsActive reports whether the plugin is active on the current site
func (d Descriptor) IsActive() bool {
	return d.Status == StatusActive
}

// IsNetworkRelated reports whether the plugin must be hidden from site-level
// toggles in the given view.
func (d Descriptor) IsNetworkRelated(scope Scope) bool {
	return scope.Multisite && !scope.NetworkAdmin && d.NetworkStatus != NetworkNone
}

// ToggleAction is the action a toggle link for this plugin performs
func (d Descriptor) ToggleAction() string {
	if d.IsActive() {
		return "deactivate"
	}
	return "activate"
}
