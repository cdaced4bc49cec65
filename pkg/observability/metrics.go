package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Snapshot cache metrics
	SnapshotLookupsTotal    *prometheus.CounterVec
	SnapshotRecomputesTotal *prometheus.CounterVec
	SnapshotPlugins         prometheus.Gauge

	// Toggle and redirect metrics
	TogglesTotal         *prometheus.CounterVec
	RedirectsTotal       *prometheus.CounterVec
	ReviveRedirectsTotal *prometheus.CounterVec

	// Storage metrics
	StoragePurgedTotal prometheus.Counter

	otel *OTelMetrics
}

// WithOTel mirrors domain counters to o as well
func (m *Metrics) WithOTel(o *OTelMetrics) *Metrics {
	m.otel = o
	return m
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginlinks_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pluginlinks_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pluginlinks_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		SnapshotLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginlinks_snapshot_lookups_total",
				Help: "Plugin snapshot lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		SnapshotRecomputesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginlinks_snapshot_recomputes_total",
				Help: "Plugin snapshot recomputations by reason",
			},
			[]string{"reason"},
		),
		SnapshotPlugins: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pluginlinks_snapshot_plugins",
				Help: "Number of plugins in the most recent snapshot",
			},
		),

		TogglesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginlinks_toggles_total",
				Help: "Plugin activation toggles by action and status",
			},
			[]string{"action", "status"},
		),
		RedirectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginlinks_redirects_total",
				Help: "Post-toggle redirects by outcome (rewritten, unchanged)",
			},
			[]string{"outcome"},
		),
		ReviveRedirectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginlinks_revive_redirects_total",
				Help: "Access-denied revive attempts by outcome",
			},
			[]string{"outcome"},
		),

		StoragePurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pluginlinks_storage_purged_total",
				Help: "Expired transients removed by the janitor",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.SnapshotLookupsTotal,
		m.SnapshotRecomputesTotal,
		m.SnapshotPlugins,
		m.TogglesTotal,
		m.RedirectsTotal,
		m.ReviveRedirectsTotal,
		m.StoragePurgedTotal,
	)

	return m
}

// RecordSnapshotLookup counts a cache lookup. Safe on a nil receiver.
func (m *Metrics) RecordSnapshotLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.SnapshotLookupsTotal.WithLabelValues(result).Inc()
	if m.otel != nil {
		m.otel.add(m.otel.snapshotLookups, "result", result)
	}
}

// RecordSnapshotRecompute counts a recomputation and the resulting size
func (m *Metrics) RecordSnapshotRecompute(reason string, plugins int) {
	if m == nil {
		return
	}
	m.SnapshotRecomputesTotal.WithLabelValues(reason).Inc()
	if m.otel != nil {
		m.otel.add(m.otel.snapshotRecomputes, "reason", reason)
	}
	m.SnapshotPlugins.Set(float64(plugins))
}

// RecordToggle counts an activation change
func (m *Metrics) RecordToggle(action string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.TogglesTotal.WithLabelValues(action, status).Inc()
	if m.otel != nil {
		m.otel.add(m.otel.toggles, "action", action)
	}
}

// RecordRedirect counts a redirect interception outcome
func (m *Metrics) RecordRedirect(rewritten bool) {
	if m == nil {
		return
	}
	outcome := "unchanged"
	if rewritten {
		outcome = "rewritten"
	}
	m.RedirectsTotal.WithLabelValues(outcome).Inc()
	if m.otel != nil {
		m.otel.add(m.otel.redirects, "outcome", outcome)
	}
}

// RecordRevive counts an access-denied revive attempt
func (m *Metrics) RecordRevive(redirected bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if redirected {
		outcome = "redirected"
	}
	m.ReviveRedirectsTotal.WithLabelValues(outcome).Inc()
	if m.otel != nil {
		m.otel.add(m.otel.revives, "outcome", outcome)
	}
}

// RecordPurge counts purged transients
func (m *Metrics) RecordPurge(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.StoragePurgedTotal.Add(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
