package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the compilation metric instruments.
type Metrics struct {
	compileDuration metric.Float64Histogram
	compileCount    metric.Int64Counter
	errorCount      metric.Int64Counter
	cacheHits       metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}

	// Instrument creation only fails on invalid parameters; fall back
	// to a bare instrument so partial metrics keep working.
	var err error

	m.compileDuration, err = meter.Float64Histogram(
		"optimade.compile.duration",
		metric.WithDescription("Duration of filter compilations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.compileDuration, _ = meter.Float64Histogram("optimade.compile.duration")
	}

	m.compileCount, err = meter.Int64Counter(
		"optimade.compile.count",
		metric.WithDescription("Total number of filter compilations"),
		metric.WithUnit("{compilation}"),
	)
	if err != nil {
		m.compileCount, _ = meter.Int64Counter("optimade.compile.count")
	}

	m.errorCount, err = meter.Int64Counter(
		"optimade.compile.errors",
		metric.WithDescription("Total number of failed filter compilations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter("optimade.compile.errors")
	}

	m.cacheHits, err = meter.Int64Counter(
		"optimade.compile.cache_hits",
		metric.WithDescription("Compilations served from the compile cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		m.cacheHits, _ = meter.Int64Counter("optimade.compile.cache_hits")
	}

	return m
}

// RecordCompile records one compilation outcome.
func (m *Metrics) RecordCompile(ctx context.Context, backend string, duration time.Duration, errKind string) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{BackendAttr(backend)}
	m.compileDuration.Record(ctx, float64(duration.Microseconds())/1000.0, metric.WithAttributes(attrs...))
	m.compileCount.Add(ctx, 1, metric.WithAttributes(attrs...))

	if errKind != "" {
		m.errorCount.Add(ctx, 1, metric.WithAttributes(append(attrs, ErrorKindAttr(errKind))...))
	}
}

// RecordCacheHit records a compilation served from the cache.
func (m *Metrics) RecordCacheHit(ctx context.Context, backend string) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(BackendAttr(backend)))
}
