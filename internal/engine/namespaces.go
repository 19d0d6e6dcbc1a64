package engine

import (
	"context"
	"sort"

	apperrors "hyperbase/internal/core/errors"
	"hyperbase/internal/hypergraph"
)

// Namespace returns a view scoped to the named namespace. The view
// shares cores and storage with this engine but starts with a clean
// provenance context and batch depth.
func (e *Engine) Namespace(name string) *Engine {
	if name == "" {
		name = DefaultNamespace
	}
	e.st.mu.Lock()
	e.coreLocked(name)
	e.st.mu.Unlock()
	return &Engine{st: e.st, namespace: name, logger: e.logger}
}

// Namespaces lists every namespace, loaded or on disk, sorted.
func (e *Engine) Namespaces(ctx context.Context) ([]string, error) {
	set := make(map[string]bool)
	e.st.mu.Lock()
	for ns := range e.st.cores {
		set[ns] = true
	}
	e.st.mu.Unlock()

	if e.st.store != nil {
		onDisk, err := e.st.store.ListNamespaces(ctx)
		if err != nil {
			return nil, err
		}
		for _, ns := range onDisk {
			set[ns] = true
		}
	}

	out := make([]string, 0, len(set))
	for ns := range set {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out, nil
}

// HasNamespace reports whether the namespace exists in memory or on
// disk.
func (e *Engine) HasNamespace(ctx context.Context, name string) bool {
	e.st.mu.Lock()
	_, loaded := e.st.cores[name]
	e.st.mu.Unlock()
	if loaded {
		return true
	}
	if e.st.store != nil {
		onDisk, err := e.st.store.ListNamespaces(ctx)
		if err != nil {
			return false
		}
		for _, ns := range onDisk {
			if ns == name {
				return true
			}
		}
	}
	return false
}

// DeleteNamespace removes a namespace and all its data, reporting
// whether it existed. The default namespace is recreated empty if
// deleted while current.
func (e *Engine) DeleteNamespace(ctx context.Context, name string) (bool, error) {
	existed := e.HasNamespace(ctx, name)
	if e.st.store != nil {
		if err := e.st.store.DeleteNamespace(ctx, name); err != nil {
			return false, err
		}
	}
	e.st.mu.Lock()
	delete(e.st.cores, name)
	if name == e.namespace {
		e.st.cores[name] = hypergraph.NewCore()
	}
	e.st.mu.Unlock()
	return existed, nil
}

// ClearNamespace drops all nodes and edges but keeps the namespace.
func (e *Engine) ClearNamespace(ctx context.Context, name string) error {
	e.st.mu.Lock()
	e.st.cores[name] = hypergraph.NewCore()
	core := e.st.cores[name]
	e.st.mu.Unlock()

	if e.st.store != nil {
		e.st.mu.Lock()
		defer e.st.mu.Unlock()
		return e.flushLocked(ctx, name, core)
	}
	return nil
}

// CopyNamespace deep-copies src into dst, replacing dst's contents.
func (e *Engine) CopyNamespace(ctx context.Context, src, dst string) error {
	if src == dst {
		return apperrors.New(apperrors.CodeValidation, "source and destination namespaces must differ")
	}
	if !e.HasNamespace(ctx, src) {
		return apperrors.AddContext(
			apperrors.Newf(apperrors.CodeNotFound, "namespace %q does not exist", src),
			apperrors.CtxNamespace, src)
	}

	e.st.mu.Lock()
	clone := e.coreLocked(src).Clone()
	e.st.cores[dst] = clone
	e.st.mu.Unlock()

	if e.st.store != nil {
		e.st.mu.Lock()
		defer e.st.mu.Unlock()
		return e.flushLocked(ctx, dst, clone)
	}
	return nil
}

// RenameNamespace moves src to dst. dst must not already exist.
func (e *Engine) RenameNamespace(ctx context.Context, src, dst string) error {
	if src == dst {
		return apperrors.New(apperrors.CodeValidation, "source and destination namespaces must differ")
	}
	if e.HasNamespace(ctx, dst) {
		return apperrors.Newf(apperrors.CodeValidation, "namespace %q already exists", dst)
	}
	if err := e.CopyNamespace(ctx, src, dst); err != nil {
		return err
	}
	_, err := e.DeleteNamespace(ctx, src)
	return err
}
