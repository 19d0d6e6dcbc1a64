package engine

import (
	"context"
	"encoding/json"
	"io"

	apperrors "hyperbase/internal/core/errors"
	"hyperbase/internal/hypergraph"
)

// ToInterchange exports the current namespace in the stable
// interchange shape: nested edges with ordered incidence lists.
func (e *Engine) ToInterchange() *hypergraph.InterchangeDocument {
	return e.core().ToInterchange()
}

// ImportInterchange replaces the current namespace's contents with the
// document's graph.
func (e *Engine) ImportInterchange(ctx context.Context, doc *hypergraph.InterchangeDocument) error {
	core, err := hypergraph.FromInterchange(doc)
	if err != nil {
		return err
	}
	return e.replaceCore(ctx, core)
}

// ExportJSON writes the current namespace as interchange JSON.
func (e *Engine) ExportJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e.ToInterchange()); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "encode interchange document")
	}
	return nil
}

// ImportJSON reads interchange JSON and replaces the current namespace.
func (e *Engine) ImportJSON(ctx context.Context, r io.Reader) error {
	var doc hypergraph.InterchangeDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return apperrors.Wrap(err, apperrors.CodeValidation, "decode interchange document")
	}
	return e.ImportInterchange(ctx, &doc)
}

// ToHIF exports the current namespace as a HIF document. HIF drops
// edge-ref incidences; use the interchange shape when fidelity matters.
func (e *Engine) ToHIF() *hypergraph.HIFDocument {
	return e.core().ToHIF()
}

// ImportHIF replaces the current namespace's contents with the
// document's graph. Strict mode rejects documents whose incidences
// mention undeclared nodes or edges.
func (e *Engine) ImportHIF(ctx context.Context, doc *hypergraph.HIFDocument, strict bool) error {
	core, err := hypergraph.FromHIF(doc, strict)
	if err != nil {
		return err
	}
	return e.replaceCore(ctx, core)
}

// ExportHIF writes the current namespace as HIF JSON.
func (e *Engine) ExportHIF(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e.ToHIF()); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "encode HIF document")
	}
	return nil
}

// ImportHIFJSON reads HIF JSON and replaces the current namespace.
func (e *Engine) ImportHIFJSON(ctx context.Context, r io.Reader, strict bool) error {
	var doc hypergraph.HIFDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return apperrors.Wrap(err, apperrors.CodeValidation, "decode HIF document")
	}
	return e.ImportHIF(ctx, &doc, strict)
}

func (e *Engine) replaceCore(ctx context.Context, core *hypergraph.Core) error {
	e.st.mu.Lock()
	e.st.cores[e.namespace] = core
	e.st.mu.Unlock()
	return e.autoFlush(ctx)
}
