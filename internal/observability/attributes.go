// Package observability provides OpenTelemetry-based instrumentation
// for filter compilation.
//
// All observability features are opt-in. When not configured, no-op
// implementations are used with zero performance overhead.
package observability

import "go.opentelemetry.io/otel/attribute"

// Instrumentation identity constants
const (
	// TracerName is the instrumentation name for tracing.
	TracerName = "github.com/nholik/go-optimade"
	// MeterName is the instrumentation name for metrics.
	MeterName = "github.com/nholik/go-optimade"
)

// Semantic attribute keys following OpenTelemetry conventions.
const (
	// Compilation attributes
	AttrBackend          = "optimade.backend"
	AttrFilterLength     = "optimade.filter.length"
	AttrCacheHit         = "optimade.cache_hit"
	AttrRegistrySnapshot = "optimade.registry.snapshot"

	// Error attributes
	AttrErrorKind    = "optimade.error.kind"
	AttrErrorMessage = "optimade.error.message"
)

// Log field keys for structured logging with trace context.
const (
	LogFieldBackend  = "backend"
	LogFieldDuration = "duration_ms"
	LogFieldError    = "error"
)

// BackendAttr creates an attribute for the target backend.
func BackendAttr(backend string) attribute.KeyValue {
	return attribute.String(AttrBackend, backend)
}

// FilterLengthAttr creates an attribute for the filter string length.
func FilterLengthAttr(length int) attribute.KeyValue {
	return attribute.Int(AttrFilterLength, length)
}

// CacheHitAttr creates an attribute recording whether the compile
// cache satisfied the call.
func CacheHitAttr(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// SnapshotAttr creates an attribute for the registry snapshot ID.
func SnapshotAttr(id string) attribute.KeyValue {
	return attribute.String(AttrRegistrySnapshot, id)
}

// ErrorKindAttr creates an attribute for the compile error kind.
func ErrorKindAttr(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}
