package plugins

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a file identifier does not name an installed plugin
	ErrNotFound = errors.New("plugin not found")
	// ErrInvalidFile is returned for identifiers that escape the plugin root
	ErrInvalidFile = errors.New("invalid plugin file")
	// ErrNetworkOnly is returned when a network-only plugin is activated for a single site
	ErrNetworkOnly = errors.New("plugin can only be activated network wide")
	// ErrNotMultisite is returned for network operations on a single-site host
	ErrNotMultisite = errors.New("host is not a multisite network")
)

// Status is the per-site activation state of a plugin
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// NetworkStatus is only populated on multisite hosts
type NetworkStatus string

const (
	NetworkNone      NetworkStatus = ""
	NetworkActivated NetworkStatus = "network-activated"
	NetworkOnly      NetworkStatus = "network-only"
)

// Metadata is the plugin header read from a plugin's manifest file
type Metadata struct {
	Name        string   `yaml:"name" json:"name"`                                   // Display name
	PluginURI   string   `yaml:"plugin_uri,omitempty" json:"plugin_uri,omitempty"`   // Homepage URL
	Version     string   `yaml:"version,omitempty" json:"version,omitempty"`         // Semver
	Description string   `yaml:"description,omitempty" json:"description,omitempty"` // Short description
	Author      string   `yaml:"author,omitempty" json:"author,omitempty"`           // Author name
	AuthorURI   string   `yaml:"author_uri,omitempty" json:"author_uri,omitempty"`   // Author URL
	License     string   `yaml:"license,omitempty" json:"license,omitempty"`         // License (e.g., GPL-2.0+)
	TextDomain  string   `yaml:"text_domain,omitempty" json:"text_domain,omitempty"` // Translation domain
	Network     bool     `yaml:"network,omitempty" json:"network,omitempty"`         // Network-only activation
	AdminPages  []string `yaml:"admin_pages,omitempty" json:"admin_pages,omitempty"` // Admin page slugs owned by the plugin
}

// Entry is one installed plugin as enumerated by the host
type Entry struct {
	File     string
	Metadata *Metadata
}

// Scope describes the admin view a listing is rendered for
type Scope struct {
	Multisite    bool
	NetworkAdmin bool
}

// ValidationError represents a manifest validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Enumerator lists every installed plugin in host order
type Enumerator interface {
	Enumerate(ctx context.Context) ([]Entry, error)
}

// MetadataReader reads the header of a single plugin
type MetadataReader interface {
	ReadMetadata(ctx context.Context, file string) (*Metadata, error)
}

// StatusReader answers activation queries for the current site
type StatusReader interface {
	Multisite() bool
	IsActive(ctx context.Context, file string) (bool, error)
	IsActiveForNetwork(ctx context.Context, file string) (bool, error)
	IsNetworkOnly(ctx context.Context, file string) (bool, error)
}

// Toggler performs activation state changes
type Toggler interface {
	Activate(ctx context.Context, file string) error
	Deactivate(ctx context.Context, file string) error
}

// Sources exposes the raw data the change detector watches
type Sources interface {
	// ListDirectory returns the sorted listing of the plugin root
	ListDirectory(ctx context.Context) ([]string, error)
	// ActivePlugins returns the sorted active plugin identifiers
	ActivePlugins(ctx context.Context) ([]string, error)
}

// Host is the full plugin-management port
type Host interface {
	Enumerator
	MetadataReader
	StatusReader
	Toggler
	Sources
}
