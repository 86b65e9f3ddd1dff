package observability

import (
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// NewNoopTracer creates a tracer that does nothing.
func NewNoopTracer() *Tracer {
	return &Tracer{
		tracer:      tracenoop.NewTracerProvider().Tracer(""),
		serviceName: "",
	}
}

// NewNoopMetrics creates metrics that do nothing.
func NewNoopMetrics() *Metrics {
	meter := noop.NewMeterProvider().Meter("")
	m := &Metrics{}

	// The noop meter never returns errors.
	m.compileDuration, _ = meter.Float64Histogram("optimade.compile.duration") //nolint:errcheck
	m.compileCount, _ = meter.Int64Counter("optimade.compile.count")           //nolint:errcheck
	m.errorCount, _ = meter.Int64Counter("optimade.compile.errors")            //nolint:errcheck
	m.cacheHits, _ = meter.Int64Counter("optimade.compile.cache_hits")         //nolint:errcheck

	return m
}
