package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "hyperbase/internal/core/errors"
	"hyperbase/internal/hypergraph"
	"hyperbase/internal/shared/observability"
	"hyperbase/internal/storage"
)

// DefaultNamespace is always present; an Engine without an explicit
// namespace operates on it.
const DefaultNamespace = "default"

// state is shared by every namespace view of one database: the loaded
// cores plus the storage adapter (nil for in-memory engines).
type state struct {
	mu    sync.Mutex
	cores map[string]*hypergraph.Core
	store *storage.SQLiteStore
}

// Engine is a namespace-scoped handle onto a hypergraph database.
// Views created via Namespace share cores and storage but carry their
// own provenance context and batch depth.
type Engine struct {
	st        *state
	namespace string
	logger    *slog.Logger

	provMu     sync.Mutex
	provenance []Provenance
	batchDepth int
}

type Option func(*Engine)

func WithNamespace(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.namespace = name
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Open creates an engine. An empty path yields a purely in-memory
// database; a filesystem path opens (or creates) a SQLite file and
// loads every namespace it contains. Remote URLs are not a supported
// backend.
func Open(path string, opts ...Option) (*Engine, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return nil, apperrors.New(apperrors.CodeNotSupported,
			"cloud backends are not supported; use an empty path for in-memory or a file path for local SQLite")
	}

	e := &Engine{
		st:        &state{cores: make(map[string]*hypergraph.Core)},
		namespace: DefaultNamespace,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if path != "" {
		store, err := storage.Open(path)
		if err != nil {
			return nil, err
		}
		e.st.store = store

		ctx := context.Background()
		namespaces, err := store.ListNamespaces(ctx)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		for _, ns := range namespaces {
			core, err := store.LoadNamespace(ctx, ns)
			if err != nil {
				_ = store.Close()
				return nil, apperrors.AddContext(err, apperrors.CtxNamespace, ns)
			}
			e.st.cores[ns] = core
			publishGaugesFor(ns, core)
		}
		e.logger.Debug("opened database", "path", path, "namespaces", len(namespaces))
	}

	e.st.mu.Lock()
	if _, ok := e.st.cores[e.namespace]; !ok {
		e.st.cores[e.namespace] = hypergraph.NewCore()
	}
	e.st.mu.Unlock()
	return e, nil
}

// CurrentNamespace returns the namespace this view operates on.
func (e *Engine) CurrentNamespace() string {
	return e.namespace
}

// InMemory reports whether the engine has no durable backing.
func (e *Engine) InMemory() bool {
	return e.st.store == nil
}

// core resolves this view's Core, creating it (and loading from disk
// if present there) on first touch.
func (e *Engine) core() *hypergraph.Core {
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	return e.coreLocked(e.namespace)
}

func (e *Engine) coreLocked(namespace string) *hypergraph.Core {
	if core, ok := e.st.cores[namespace]; ok {
		return core
	}
	core := hypergraph.NewCore()
	if e.st.store != nil {
		loaded, err := e.st.store.LoadNamespace(context.Background(), namespace)
		if err != nil {
			e.logger.Warn("failed to load namespace, starting empty", "namespace", namespace, "error", err)
		} else {
			core = loaded
		}
	}
	e.st.cores[namespace] = core
	return core
}

// Save persists every loaded namespace. No-op for in-memory engines.
func (e *Engine) Save(ctx context.Context) error {
	if e.st.store == nil {
		return nil
	}
	ctx, span := observability.Tracer.Start(ctx, "engine.Save")
	defer span.End()

	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	for ns, core := range e.st.cores {
		if err := e.flushLocked(ctx, ns, core); err != nil {
			return err
		}
	}
	return nil
}

// Close saves pending state and releases the SQLite connection.
func (e *Engine) Close() error {
	if e.st.store == nil {
		return nil
	}
	saveErr := e.Save(context.Background())
	closeErr := e.st.store.Close()
	if saveErr != nil {
		return saveErr
	}
	return closeErr
}

// autoFlush persists the current namespace unless a batch is open.
func (e *Engine) autoFlush(ctx context.Context) error {
	if e.st.store == nil {
		return nil
	}
	e.provMu.Lock()
	inBatch := e.batchDepth > 0
	e.provMu.Unlock()
	if inBatch {
		return nil
	}

	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	return e.flushLocked(ctx, e.namespace, e.coreLocked(e.namespace))
}

func (e *Engine) flushLocked(ctx context.Context, namespace string, core *hypergraph.Core) error {
	start := time.Now()
	err := e.st.store.SaveNamespace(ctx, namespace, core)
	observability.FlushLatencySeconds.Observe(time.Since(start).Seconds())
	observability.FlushesTotal.Inc()
	if err != nil {
		observability.FlushErrorsTotal.Inc()
		e.logger.Error("flush failed", "namespace", namespace, "error", err)
		return err
	}
	publishGaugesFor(namespace, core)
	return nil
}

func publishGaugesFor(namespace string, core *hypergraph.Core) {
	s := core.Stats()
	observability.GraphNodes.WithLabelValues(namespace).Set(float64(s.NodeCount))
	observability.GraphEdges.WithLabelValues(namespace).Set(float64(s.EdgeCount))
}

// Batch groups writes into one flush. Batches nest; only the outermost
// exit persists. This is batched persistence, not a transaction: if fn
// fails, partial in-memory changes remain and are still flushed.
func (e *Engine) Batch(ctx context.Context, fn func() error) error {
	e.provMu.Lock()
	e.batchDepth++
	e.provMu.Unlock()

	fnErr := fn()

	e.provMu.Lock()
	e.batchDepth--
	outermost := e.batchDepth == 0
	e.provMu.Unlock()

	if outermost {
		if flushErr := e.autoFlush(ctx); flushErr != nil && fnErr == nil {
			return flushErr
		}
	}
	return fnErr
}

// Stats reports node and edge counts by type for this namespace.
func (e *Engine) Stats() hypergraph.Stats {
	return e.core().Stats()
}

// Sources summarizes provenance across all edges in this namespace.
func (e *Engine) Sources() []hypergraph.SourceSummary {
	return e.core().Sources()
}

// Validate sweeps the namespace for consistency problems. An invalid
// report is informational; the engine keeps serving.
func (e *Engine) Validate() hypergraph.Report {
	report := e.core().Validate()
	if !report.Valid {
		e.logger.Warn("consistency check failed",
			"namespace", e.namespace, "errors", len(report.Errors))
	}
	return report
}
