package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/pluginlinks/pkg/observability"
	"github.com/platinummonkey/pluginlinks/pkg/storage"
)

// EnvConfigFile names the optional configuration file overlay
const EnvConfigFile = "PLUGINLINKS_CONFIG"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server" toml:"server"`

	// Storage configuration
	Storage storage.Config `yaml:"storage" toml:"storage"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability" toml:"observability"`

	// Plugin host configuration
	Plugins PluginsConfig `yaml:"plugins" toml:"plugins"`

	// Admin URL configuration
	Admin AdminConfig `yaml:"admin" toml:"admin"`

	// Nonce signing configuration
	Nonce NonceConfig `yaml:"nonce" toml:"nonce"`

	// Snapshot cache configuration
	Cache CacheConfig `yaml:"cache" toml:"cache"`

	// Variant is resolved from Plugins.Variant
	Variant Variant `yaml:"-" toml:"-"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" toml:"host"`
	Port            string        `yaml:"port" toml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" toml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" toml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port" toml:"health_port"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel `yaml:"-" toml:"-"`
	Level    string                 `yaml:"log_level" toml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled" toml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled" toml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint" toml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name" toml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version" toml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure" toml:"otel_insecure"` // Use insecure gRPC connection
}

// PluginsConfig describes the plugin host
type PluginsConfig struct {
	Root      string `yaml:"root" toml:"root"`
	Multisite bool   `yaml:"multisite" toml:"multisite"`
	Variant   string `yaml:"variant" toml:"variant"`
	Watch     bool   `yaml:"watch" toml:"watch"`
}

// AdminConfig describes where the admin area lives
type AdminConfig struct {
	// BaseURL is the self-admin URL, e.g. https://example.com/wp-admin/
	BaseURL string `yaml:"base_url" toml:"base_url"`
	// AllowedHosts are hosts an absolute redirect target may point at.
	// The BaseURL host is always allowed.
	AllowedHosts []string `yaml:"allowed_hosts" toml:"allowed_hosts"`
}

// NonceConfig holds token signing settings
type NonceConfig struct {
	Secret   string        `yaml:"secret" toml:"secret"`
	Lifetime time.Duration `yaml:"lifetime" toml:"lifetime"`
}

// CacheConfig holds snapshot cache settings
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" toml:"ttl"`
}

// LoadConfig loads configuration from environment variables, applying the
// file named by PLUGINLINKS_CONFIG first when set.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(getEnv(EnvConfigFile, ""))
}

// LoadConfigFrom is LoadConfig with an explicit file; an empty path skips
// the file.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Resolve(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Storage: storage.DefaultConfig(),
		Observability: ObservabilityConfig{
			Level:              "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "pluginlinks",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
		Plugins: PluginsConfig{
			Root:    "/var/lib/pluginlinks/plugins",
			Variant: PluginLinks.Slug,
		},
		Admin: AdminConfig{
			BaseURL: "http://localhost:8080/wp-admin/",
		},
		Nonce: NonceConfig{
			Lifetime: 24 * time.Hour,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
	}
}

// LoadFile overlays a YAML or TOML file onto the configuration
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file extension: %s", filepath.Ext(path))
	}

	return nil
}

func (c *Config) applyEnv() {
	c.Server = loadServerConfig(c.Server)
	c.Storage = loadStorageConfig(c.Storage)
	c.Observability = loadObservabilityConfig(c.Observability)

	c.Plugins.Root = getEnv("PLUGINLINKS_PLUGIN_ROOT", c.Plugins.Root)
	c.Plugins.Multisite = getEnvBool("PLUGINLINKS_MULTISITE", c.Plugins.Multisite)
	c.Plugins.Variant = getEnv("PLUGINLINKS_VARIANT", c.Plugins.Variant)
	c.Plugins.Watch = getEnvBool("PLUGINLINKS_WATCH", c.Plugins.Watch)

	c.Admin.BaseURL = getEnv("PLUGINLINKS_ADMIN_URL", c.Admin.BaseURL)
	if hosts := getEnv("PLUGINLINKS_ALLOWED_HOSTS", ""); hosts != "" {
		c.Admin.AllowedHosts = splitList(hosts)
	}

	c.Nonce.Secret = getEnv("PLUGINLINKS_NONCE_SECRET", c.Nonce.Secret)
	c.Nonce.Lifetime = getEnvDuration("PLUGINLINKS_NONCE_LIFETIME", c.Nonce.Lifetime)

	c.Cache.TTL = getEnvDuration("PLUGINLINKS_CACHE_TTL", c.Cache.TTL)
}

// loadServerConfig loads server configuration from environment
func loadServerConfig(cfg ServerConfig) ServerConfig {
	return ServerConfig{
		Host:            getEnv("PLUGINLINKS_HOST", cfg.Host),
		Port:            getEnv("PLUGINLINKS_PORT", cfg.Port),
		ReadTimeout:     getEnvDuration("PLUGINLINKS_READ_TIMEOUT", cfg.ReadTimeout),
		WriteTimeout:    getEnvDuration("PLUGINLINKS_WRITE_TIMEOUT", cfg.WriteTimeout),
		IdleTimeout:     getEnvDuration("PLUGINLINKS_IDLE_TIMEOUT", cfg.IdleTimeout),
		ShutdownTimeout: getEnvDuration("PLUGINLINKS_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout),
		HealthPort:      getEnv("PLUGINLINKS_HEALTH_PORT", cfg.HealthPort),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig(cfg storage.Config) storage.Config {
	// Storage type
	if storageType := getEnv("PLUGINLINKS_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = storageType
	}

	if maxEntries := getEnvInt("PLUGINLINKS_MEMORY_MAX_ENTRIES", 0); maxEntries > 0 {
		cfg.MemoryMaxEntries = maxEntries
	}

	// Filesystem config
	if fsRoot := getEnv("PLUGINLINKS_FILESYSTEM_ROOT", ""); fsRoot != "" {
		cfg.FilesystemRoot = fsRoot
	}

	// SQL config
	if sqlitePath := getEnv("PLUGINLINKS_SQLITE_PATH", ""); sqlitePath != "" {
		cfg.SQLitePath = sqlitePath
	}
	if pgURL := getEnv("PLUGINLINKS_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("PLUGINLINKS_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if table := getEnv("PLUGINLINKS_TABLE_NAME", ""); table != "" {
		cfg.TableName = table
	}

	// Redis config
	if redisURL := getEnv("PLUGINLINKS_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("PLUGINLINKS_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("PLUGINLINKS_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("PLUGINLINKS_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("PLUGINLINKS_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}
	if prefix := getEnv("PLUGINLINKS_REDIS_KEY_PREFIX", ""); prefix != "" {
		cfg.RedisKeyPrefix = prefix
	}

	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig(cfg ObservabilityConfig) ObservabilityConfig {
	return ObservabilityConfig{
		Level:              getEnv("PLUGINLINKS_LOG_LEVEL", cfg.Level),
		MetricsEnabled:     getEnvBool("PLUGINLINKS_METRICS_ENABLED", cfg.MetricsEnabled),
		OTelEnabled:        getEnvBool("PLUGINLINKS_OTEL_ENABLED", cfg.OTelEnabled),
		OTelEndpoint:       getEnv("PLUGINLINKS_OTEL_ENDPOINT", cfg.OTelEndpoint),
		OTelServiceName:    getEnv("PLUGINLINKS_OTEL_SERVICE_NAME", cfg.OTelServiceName),
		OTelServiceVersion: getEnv("PLUGINLINKS_OTEL_SERVICE_VERSION", cfg.OTelServiceVersion),
		OTelInsecure:       getEnvBool("PLUGINLINKS_OTEL_INSECURE", cfg.OTelInsecure),
	}
}

// Resolve fills derived fields and validates the result
func (c *Config) Resolve() error {
	c.Observability.LogLevel = parseLogLevel(c.Observability.Level)

	v, err := VariantByName(c.Plugins.Variant)
	if err != nil {
		return err
	}
	c.Variant = v

	return c.Validate()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate storage config based on type
	switch c.Storage.Type {
	case "memory":
	case "filesystem":
		if c.Storage.FilesystemRoot == "" {
			return fmt.Errorf("filesystem root is required for filesystem storage")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite storage")
		}
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory, filesystem, sqlite, postgres, or redis)", c.Storage.Type)
	}

	if c.Plugins.Root == "" {
		return fmt.Errorf("plugin root is required")
	}
	if c.Admin.BaseURL == "" {
		return fmt.Errorf("admin base URL is required")
	}
	if c.Nonce.Secret == "" {
		return fmt.Errorf("nonce secret is required")
	}
	if c.Nonce.Lifetime <= 0 {
		return fmt.Errorf("nonce lifetime must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
