// Package observe provides application-wide observability primitives for
// quotecard: OpenTelemetry metrics, distributed tracing, and trace-aware
// structured logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all quotecard metrics.
const meterName = "quotecard"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// RenderDuration tracks quote-card render latency, from text fitting to
	// the encoded PNG.
	RenderDuration metric.Float64Histogram

	// --- Counters ---

	// SessionsStarted counts authoring sessions started.
	SessionsStarted metric.Int64Counter

	// QuotesPublished counts quotes finalized and published to the channel.
	QuotesPublished metric.Int64Counter

	// PreviewsRendered counts preview cards rendered mid-session.
	PreviewsRendered metric.Int64Counter

	// --- Error counters ---

	// StoreErrors counts speaker-store failures. Use with attribute:
	//   attribute.String("op", ...)
	StoreErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live authoring sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// software rasterisation of a full card.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RenderDuration, err = m.Float64Histogram("quotecard.render.duration",
		metric.WithDescription("Latency of quote-card rendering."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.SessionsStarted, err = m.Int64Counter("quotecard.sessions.started",
		metric.WithDescription("Total authoring sessions started."),
	); err != nil {
		return nil, err
	}
	if met.QuotesPublished, err = m.Int64Counter("quotecard.quotes.published",
		metric.WithDescription("Total quotes finalized and published."),
	); err != nil {
		return nil, err
	}
	if met.PreviewsRendered, err = m.Int64Counter("quotecard.previews.rendered",
		metric.WithDescription("Total preview cards rendered mid-session."),
	); err != nil {
		return nil, err
	}

	if met.StoreErrors, err = m.Int64Counter("quotecard.store.errors",
		metric.WithDescription("Total speaker-store failures by operation."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("quotecard.active_sessions",
		metric.WithDescription("Number of live authoring sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordStoreError is a convenience method that records a speaker-store
// failure counter increment for the given operation name.
func (m *Metrics) RecordStoreError(ctx context.Context, op string) {
	m.StoreErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("op", op)),
	)
}
