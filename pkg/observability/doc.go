// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, health checks and graceful shutdown.
//
// # Structured Logging
//
// Request handlers log through the slog-backed Logger carried on the request
// context:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).WithField("plugin", file).Info("toggled")
//
// Long-lived components (plugin host, snapshot cache, watcher) take a logrus
// logger built with NewLogrus at the same level.
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordSnapshotLookup(true)
//	metrics.RecordRedirect(false)
//
// The Record methods are safe on a nil *Metrics, so components accept an
// optional recorder. WithOTel mirrors the domain counters to an
// OpenTelemetry meter.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker("1.0.0")
//	checker.AddPinger("storage", true, store)
//	observability.RegisterHealthRoutes(mux, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "pluginlinks",
//	}, logger)
//	defer providers.Shutdown(ctx)
package observability
