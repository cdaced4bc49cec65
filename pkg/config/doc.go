// Package config provides application configuration management from environment
// variables and an optional configuration file.
//
// # Overview
//
// Defaults come from Default. When PLUGINLINKS_CONFIG names a .yaml or .toml
// file it is applied on top of the defaults, and environment variables are
// applied last. Resolve picks the product Variant and validates the result.
//
// # Configuration Structure
//
// Server settings:
//
//	PLUGINLINKS_HOST="0.0.0.0"
//	PLUGINLINKS_PORT="8080"
//	PLUGINLINKS_HEALTH_PORT="9090"
//
// Storage settings:
//
//	PLUGINLINKS_STORAGE_TYPE="sqlite"  # memory, filesystem, sqlite, postgres, redis
//	PLUGINLINKS_FILESYSTEM_ROOT="/var/lib/pluginlinks/store"
//	PLUGINLINKS_SQLITE_PATH="/var/lib/pluginlinks/options.db"
//	PLUGINLINKS_POSTGRES_URL="postgres://localhost/pluginlinks"
//	PLUGINLINKS_REDIS_URL="redis://localhost:6379/0"
//
// Plugin host settings:
//
//	PLUGINLINKS_PLUGIN_ROOT="/var/lib/pluginlinks/plugins"
//	PLUGINLINKS_MULTISITE="false"
//	PLUGINLINKS_VARIANT="plugin-links"  # or smart-plugin-activate
//	PLUGINLINKS_WATCH="true"
//
// Admin and token settings:
//
//	PLUGINLINKS_ADMIN_URL="https://example.com/wp-admin/"
//	PLUGINLINKS_ALLOWED_HOSTS="example.com,www.example.com"
//	PLUGINLINKS_NONCE_SECRET="change-me"
//	PLUGINLINKS_NONCE_LIFETIME="24h"
//	PLUGINLINKS_CACHE_TTL="24h"
//
// Observability settings:
//
//	PLUGINLINKS_LOG_LEVEL="info"  # debug, info, warn, error
//	PLUGINLINKS_METRICS_ENABLED="true"
//	PLUGINLINKS_OTEL_ENABLED="true"
//	PLUGINLINKS_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Variant: %s\n", cfg.Variant.Slug)
//	fmt.Printf("Storage: %s\n", cfg.Storage.Type)
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/observability: Uses observability configuration
//   - pkg/app: Builds the service from a Config
package config
