// Package optimade implements the filter-language front end of an
// OPTIMADE-style materials database API: a parser for the filter
// grammar and a compiler lowering parsed filters into native queries
// for several storage backends.
package optimade

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nholik/go-optimade/internal/filter"
	"github.com/nholik/go-optimade/internal/lowering"
	"github.com/nholik/go-optimade/internal/lowering/elasticq"
	"github.com/nholik/go-optimade/internal/lowering/memoryq"
	"github.com/nholik/go-optimade/internal/lowering/mongoq"
	"github.com/nholik/go-optimade/internal/lowering/sqlq"
	"github.com/nholik/go-optimade/internal/observability"
	"github.com/nholik/go-optimade/internal/registry"
)

// Built-in backend identifiers.
const (
	BackendMongo   = mongoq.BackendName
	BackendElastic = elasticq.BackendName
	BackendMemory  = memoryq.BackendName
	BackendSQL     = sqlq.BackendName
)

// NativeQuery is a backend-specific compiled query. The compiler never
// inspects it; callers type-assert to the backend's query type when
// they need more than opaque pass-through.
type NativeQuery = lowering.NativeQuery

// Transformer lowers annotated filter ASTs for one backend. Custom
// backends implement it and register via WithTransformer.
type Transformer = lowering.Transformer

// Compiler turns filter strings into backend-native queries. It is
// safe for concurrent use: compilation touches no shared mutable state
// beyond the registry snapshot and the compile cache.
type Compiler struct {
	registry     registry.Registry
	transformers map[string]lowering.Transformer
	cache        *compileCache
	logger       *slog.Logger
	obs          *observability.Config
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithLogger sets the logger used for compilation diagnostics.
func WithLogger(logger *slog.Logger) CompilerOption {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithObservability configures OpenTelemetry tracing and metrics.
func WithObservability(opts ...observability.Option) CompilerOption {
	return func(c *Compiler) {
		c.obs = observability.NewConfig(opts...)
	}
}

// WithCacheSize bounds the compile cache. Zero disables caching.
func WithCacheSize(size int) CompilerOption {
	return func(c *Compiler) {
		c.cache = newCompileCache(size)
	}
}

// WithTransformer registers an additional backend transformer,
// replacing any built-in with the same backend identifier.
func WithTransformer(t Transformer) CompilerOption {
	return func(c *Compiler) {
		c.transformers[t.Backend()] = t
	}
}

// New creates a Compiler over the given property registry with the
// four built-in backends registered.
func New(reg registry.Registry, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		registry:     reg,
		transformers: make(map[string]lowering.Transformer),
		cache:        newCompileCache(defaultCacheSize),
		logger:       slog.Default(),
	}

	for _, t := range []lowering.Transformer{
		mongoq.New(),
		elasticq.New(),
		memoryq.New(),
		sqlq.New(),
	} {
		c.transformers[t.Backend()] = t
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.obs == nil {
		c.obs = observability.NewConfig()
	}
	c.obs.Initialize()

	return c
}

// Backends returns the identifiers of all registered backends.
func (c *Compiler) Backends() []string {
	backends := make([]string, 0, len(c.transformers))
	for name := range c.transformers {
		backends = append(backends, name)
	}
	return backends
}

// Compile parses the filter string, resolves its properties against
// the registry for the given backend, and lowers it into that
// backend's native query. The empty filter string compiles to a query
// matching every record. Identical inputs against the same registry
// snapshot yield structurally identical output.
func (c *Compiler) Compile(ctx context.Context, filterStr string, backend string) (NativeQuery, error) {
	start := time.Now()
	ctx, span := c.obs.Tracer().StartCompile(ctx, backend, len(filterStr))

	query, cached, err := c.compile(ctx, filterStr, backend)

	kind := errorKind(err)
	c.obs.Metrics().RecordCompile(ctx, backend, time.Since(start), kind)
	span.SetAttributes(observability.CacheHitAttr(cached))
	observability.EndWithError(span, err)

	if err != nil {
		c.logger.Debug("filter compilation failed",
			observability.LogFieldBackend, backend,
			"kind", kind,
			observability.LogFieldError, err)
		return nil, err
	}

	return query, nil
}

func (c *Compiler) compile(ctx context.Context, filterStr string, backend string) (NativeQuery, bool, error) {
	transformer, ok := c.transformers[backend]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}

	snapshot := c.registry.Snapshot()

	key := cacheKey(snapshot.ID(), backend, filterStr)
	if query, ok := c.cache.get(key); ok {
		c.obs.Metrics().RecordCacheHit(ctx, backend)
		return query, true, nil
	}

	expr, err := filter.Parse(filterStr)
	if err != nil {
		return nil, false, err
	}

	if err := lowering.CheckSupport(transformer, expr); err != nil {
		return nil, false, err
	}

	annotated, err := lowering.Resolve(expr, snapshot, backend)
	if err != nil {
		return nil, false, err
	}

	query, err := transformer.Lower(annotated)
	if err != nil {
		return nil, false, err
	}

	c.cache.put(key, query)
	return query, false, nil
}

// CheckSyntax parses the filter string without compiling it, returning
// the syntax error if any. It needs no registry or backend.
func CheckSyntax(filterStr string) error {
	_, err := filter.Parse(filterStr)
	return err
}

// Canonical parses the filter string and renders it back in canonical
// form. Reparsing the result yields a structurally identical AST.
func Canonical(filterStr string) (string, error) {
	expr, err := filter.Parse(filterStr)
	if err != nil {
		return "", err
	}
	return filter.Print(expr), nil
}
