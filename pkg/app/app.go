// Package app wires configuration into the plugin host, snapshot cache,
// toolbar presenter and redirect interceptor shared by the server and CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/pluginlinks/pkg/adminmenu"
	"github.com/platinummonkey/pluginlinks/pkg/changedetect"
	"github.com/platinummonkey/pluginlinks/pkg/config"
	"github.com/platinummonkey/pluginlinks/pkg/nonce"
	"github.com/platinummonkey/pluginlinks/pkg/observability"
	"github.com/platinummonkey/pluginlinks/pkg/plugins"
	"github.com/platinummonkey/pluginlinks/pkg/redirect"
	"github.com/platinummonkey/pluginlinks/pkg/snapshot"
	"github.com/platinummonkey/pluginlinks/pkg/storage"
	"github.com/platinummonkey/pluginlinks/pkg/storage/redisstore"
	"github.com/platinummonkey/pluginlinks/pkg/storage/sqlstore"
	"github.com/platinummonkey/pluginlinks/pkg/toolbar"
)

// Toggle actions
const (
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
)

// ErrUnknownAction is returned by Toggle for anything but activate/deactivate
var ErrUnknownAction = errors.New("unknown plugin action")

// App holds the wired components
type App struct {
	Config      *config.Config
	Variant     config.Variant
	Store       storage.Store
	Host        *plugins.FilesystemHost
	Cache       *snapshot.Cache
	Signer      *nonce.Signer
	Links       *toolbar.LinkBuilder
	Presenter   *toolbar.Presenter
	Interceptor *redirect.Interceptor
	Menu        adminmenu.Menu
	Registry    *prometheus.Registry
	Metrics     *observability.Metrics
	Log         *logrus.Logger
}

// Option configures New
type Option func(*options)

type options struct {
	store    storage.Store
	registry *prometheus.Registry
	otel     *observability.OTelMetrics
}

// WithStore uses store instead of opening the configured backend
func WithStore(store storage.Store) Option {
	return func(o *options) { o.store = store }
}

// WithRegistry registers metrics on registry instead of a fresh one
func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *options) { o.registry = registry }
}

// WithOTelMetrics mirrors the domain counters to OpenTelemetry
func WithOTelMetrics(m *observability.OTelMetrics) Option {
	return func(o *options) { o.otel = m }
}

// New builds the application from a resolved configuration
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = logrus.New()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = OpenStore(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		log.Infof("Storage initialized: %s", cfg.Storage.Type)
	}

	registry := o.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics := observability.NewMetrics(registry)
	if o.otel != nil {
		metrics.WithOTel(o.otel)
	}

	variant := cfg.Variant
	if variant.Slug == "" {
		variant = config.PluginLinks
	}

	host := plugins.NewFilesystemHost(cfg.Plugins.Root, store, cfg.Plugins.Multisite, log)
	detector := changedetect.New(store, variant.Prefix, log)
	cache := snapshot.New(host, detector, store, variant.Prefix,
		snapshot.WithTTL(cfg.Cache.TTL),
		snapshot.WithMetrics(metrics),
		snapshot.WithLogger(log),
	)

	signer, err := nonce.NewSigner([]byte(cfg.Nonce.Secret),
		nonce.WithLifetime(cfg.Nonce.Lifetime),
		nonce.WithStore(store, variant.Prefix+"_"),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	interceptor, err := redirect.New(variant, signer, cfg.Admin.BaseURL, cfg.Admin.AllowedHosts,
		redirect.WithLogger(log),
		redirect.WithMetrics(metrics),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	links := toolbar.NewLinkBuilder(cfg.Admin.BaseURL, variant.RedirectParam(), signer)

	return &App{
		Config:      cfg,
		Variant:     variant,
		Store:       store,
		Host:        host,
		Cache:       cache,
		Signer:      signer,
		Links:       links,
		Presenter:   toolbar.NewPresenter(variant, links, log),
		Interceptor: interceptor,
		Menu:        adminmenu.Build(variant, cfg.Admin.BaseURL),
		Registry:    registry,
		Metrics:     metrics,
		Log:         log,
	}, nil
}

// OpenStore opens the configured storage backend
func OpenStore(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	switch cfg.Type {
	case "memory":
		return storage.NewMemoryStore(cfg.MemoryMaxEntries)
	case "filesystem":
		return storage.NewFileSystemStorage(cfg.FilesystemRoot)
	case "sqlite":
		return sqlstore.Open(ctx, sqlstore.DialectSQLite, cfg.SQLitePath, cfg.TableName, 1)
	case "postgres":
		return sqlstore.Open(ctx, sqlstore.DialectPostgres, cfg.PostgresURL, cfg.TableName, cfg.PostgresMaxConns)
	case "redis":
		return redisstore.NewRedisStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// Plugins returns the cached plugin list, optionally filtered by status
func (a *App) Plugins(ctx context.Context, status plugins.Status) ([]plugins.Descriptor, error) {
	list, err := a.Cache.GetPlugins(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return list, nil
	}

	filtered := make([]plugins.Descriptor, 0, len(list))
	for _, d := range list {
		if d.Status == status {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

// RenderToolbar builds the toolbar for one admin request. requestURI is the
// page toggles should return to.
func (a *App) RenderToolbar(ctx context.Context, scope plugins.Scope, requestURI string) (_ *toolbar.Bar, err error) {
	ctx, span := startSpan(ctx, "toolbar.render", attribute.Bool("pluginlinks.network_admin", scope.NetworkAdmin))
	defer func() { endSpan(span, err) }()

	list, err := a.Cache.GetPlugins(ctx)
	if err != nil {
		return nil, err
	}

	bar := toolbar.NewBar()
	visible, err := a.Presenter.Render(bar, list, scope, a.Presenter.CurrentURL(requestURI))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("pluginlinks.visible_plugins", visible))
	return bar, nil
}

// Scope is the admin view of a request on this host
func (a *App) Scope(networkAdmin bool) plugins.Scope {
	return plugins.Scope{
		Multisite:    a.Host.Multisite(),
		NetworkAdmin: networkAdmin && a.Host.Multisite(),
	}
}

// Toggle activates or deactivates file on the current site
func (a *App) Toggle(ctx context.Context, action, file string) (err error) {
	ctx, span := startSpan(ctx, "plugins.toggle", toggleAttributes(action, file, false)...)
	defer func() { endSpan(span, err) }()

	switch action {
	case ActionActivate:
		err = a.Host.Activate(ctx, file)
	case ActionDeactivate:
		err = a.Host.Deactivate(ctx, file)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	a.Metrics.RecordToggle(action, err)
	return err
}

// ToggleNetwork activates or deactivates file for every site of a multisite
// network
func (a *App) ToggleNetwork(ctx context.Context, action, file string) (err error) {
	ctx, span := startSpan(ctx, "plugins.toggle", toggleAttributes(action, file, true)...)
	defer func() { endSpan(span, err) }()

	switch action {
	case ActionActivate:
		err = a.Host.ActivateNetwork(ctx, file)
	case ActionDeactivate:
		err = a.Host.DeactivateNetwork(ctx, file)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	a.Metrics.RecordToggle("network_"+action, err)
	if err != nil {
		return err
	}

	// The detectors do not watch the sitewide list
	return a.Cache.Flush(ctx)
}

func toggleAttributes(action, file string, network bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("pluginlinks.action", action),
		attribute.String("pluginlinks.plugin", file),
		attribute.Bool("pluginlinks.network", network),
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return observability.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Purge removes expired transients when the backend needs it
func (a *App) Purge(ctx context.Context) (int64, error) {
	purger, ok := a.Store.(storage.Purger)
	if !ok {
		return 0, nil
	}

	n, err := purger.PurgeExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired transients: %w", err)
	}
	a.Metrics.RecordPurge(n)
	return n, nil
}

// HealthChecker reports storage reachability and the plugin root
func (a *App) HealthChecker(version string) *observability.HealthChecker {
	checker := observability.NewHealthChecker(version)
	if pinger, ok := a.Store.(storage.Pinger); ok {
		checker.AddPinger("storage", true, pinger)
	}
	checker.AddCheck("plugins", false, func(ctx context.Context) error {
		_, err := a.Host.ListDirectory(ctx)
		return err
	})
	return checker
}

// Close releases the store
func (a *App) Close() error {
	return a.Store.Close()
}
