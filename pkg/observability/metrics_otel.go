package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics mirrors the domain counters to an OpenTelemetry meter
type OTelMetrics struct {
	snapshotLookups    metric.Int64Counter
	snapshotRecomputes metric.Int64Counter
	toggles            metric.Int64Counter
	redirects          metric.Int64Counter
	revives            metric.Int64Counter
}

// NewOTelMetrics creates the instruments on the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	return NewOTelMetricsWithMeter(otel.Meter(InstrumentationName))
}

// NewOTelMetricsWithMeter creates the instruments on meter
func NewOTelMetricsWithMeter(meter metric.Meter) (*OTelMetrics, error) {
	m := &OTelMetrics{}
	var err error

	if m.snapshotLookups, err = meter.Int64Counter(
		"pluginlinks.snapshot.lookups",
		metric.WithDescription("Plugin snapshot lookups"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create snapshot lookups counter: %w", err)
	}

	if m.snapshotRecomputes, err = meter.Int64Counter(
		"pluginlinks.snapshot.recomputes",
		metric.WithDescription("Plugin snapshot recomputations"),
		metric.WithUnit("{recompute}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create snapshot recomputes counter: %w", err)
	}

	if m.toggles, err = meter.Int64Counter(
		"pluginlinks.toggles",
		metric.WithDescription("Plugin activation toggles"),
		metric.WithUnit("{toggle}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create toggles counter: %w", err)
	}

	if m.redirects, err = meter.Int64Counter(
		"pluginlinks.redirects",
		metric.WithDescription("Post-toggle redirect interceptions"),
		metric.WithUnit("{redirect}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create redirects counter: %w", err)
	}

	if m.revives, err = meter.Int64Counter(
		"pluginlinks.revives",
		metric.WithDescription("Access-denied revive attempts"),
		metric.WithUnit("{revive}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create revives counter: %w", err)
	}

	return m, nil
}

func (m *OTelMetrics) add(c metric.Int64Counter, key, value string) {
	c.Add(context.Background(), 1, metric.WithAttributes(attribute.String(key, value)))
}
