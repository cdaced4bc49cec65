// Package plugins models the plugin host: enumerating installed plugins,
// reading their headers and reading or changing activation state.
//
// # Host Ports
//
// Host is split into small interfaces so consumers ask only for what they
// use:
//
//	Enumerator      installed plugins in host order
//	MetadataReader  the header of one plugin
//	StatusReader    per-site and network activation queries
//	Toggler         activate and deactivate
//	Sources         raw data watched by the change detector
//
// # Filesystem Host
//
// FilesystemHost is the reference Host. A plugin is either a directory with
// a plugin.yaml header or a single .yaml file at the plugin root:
//
//	plugins/
//	  hello/plugin.yaml     identifier "hello/plugin.yaml"
//	  akismet.yaml          identifier "akismet.yaml"
//
// A header looks like:
//
//	name: Hello Dolly
//	version: 1.7.2
//	network: false
//	admin_pages: [hello-settings]
//
// Activation lists are stored as JSON options ("active_plugins" and, on
// multisite hosts, "active_sitewide_plugins") in a storage.Store.
//
// # Descriptors
//
// NewDescriptor snapshots one plugin's name, file, status and network status.
// Descriptors are what the snapshot cache stores and the toolbar renders.
package plugins
