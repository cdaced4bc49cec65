// Package cli implements pluginctl, the command line companion of the
// pluginlinks server. Commands operate on the same configuration and store
// as the server:
//
//	pluginctl list [--status active|inactive] [--json]
//	pluginctl activate <file>
//	pluginctl deactivate <file>
//	pluginctl toolbar [--current URL] [--network] [--html]
//	pluginctl flush
//	pluginctl purge
package cli
