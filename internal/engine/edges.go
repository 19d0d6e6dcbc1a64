package engine

import (
	"context"

	"github.com/google/uuid"

	apperrors "hyperbase/internal/core/errors"
	"hyperbase/internal/hypergraph"
)

// EdgeOptions carries the optional parts of edge creation. A nil
// Confidence falls back to the provenance context, then 1.0.
type EdgeOptions struct {
	Type       string
	Directed   bool
	Source     string
	Confidence *float64
	Properties map[string]any
	ID         string
}

// Edge creates a hyperedge over the given nodes, auto-creating any
// that are missing. For directed edges the first node is the tail and
// the last the head. An existing id is overwritten.
func (e *Engine) Edge(ctx context.Context, nodeIDs []string, opts EdgeOptions) (*hypergraph.Edge, error) {
	defer observeOp("edge")()
	if len(nodeIDs) < 2 {
		return nil, apperrors.New(apperrors.CodeValidation, "a hyperedge must connect at least 2 nodes")
	}
	for _, id := range nodeIDs {
		if id == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "node ids must be non-empty strings")
		}
	}
	if opts.Type == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "edge type must be a non-empty string")
	}

	edgeID := opts.ID
	if edgeID == "" {
		edgeID = uuid.NewString()
	}
	source, confidence := e.resolveProvenance(opts.Source, opts.Confidence)
	props, err := hypergraph.NormalizeProperties(opts.Properties)
	if err != nil {
		return nil, err
	}

	core := e.core()
	for _, id := range nodeIDs {
		if !core.HasNode(id) {
			if err := core.AddNode(hypergraph.Node{ID: id, Type: "unknown"}); err != nil {
				return nil, err
			}
		}
	}

	incidences := make([]hypergraph.Incidence, len(nodeIDs))
	for i, id := range nodeIDs {
		incidences[i] = hypergraph.Incidence{NodeID: id}
	}
	if opts.Directed {
		incidences[0].Direction = hypergraph.DirectionTail
		incidences[len(incidences)-1].Direction = hypergraph.DirectionHead
	}

	edge, err := core.UpsertEdge(hypergraph.Edge{
		ID:         edgeID,
		Type:       opts.Type,
		Incidences: incidences,
		Source:     source,
		Confidence: confidence,
		Properties: props,
	}, nil)
	if err != nil {
		return nil, err
	}
	if err := e.autoFlush(ctx); err != nil {
		return nil, err
	}
	return edge, nil
}

// GetEdge returns the edge and whether it exists.
func (e *Engine) GetEdge(id string) (*hypergraph.Edge, bool) {
	return e.core().GetEdge(id)
}

// EdgeFilter narrows an edge query; all set fields combine with AND.
type EdgeFilter struct {
	Containing    []string
	MatchAll      bool
	Type          string
	Source        string
	MinConfidence *float64
}

// Edges queries edges by contained nodes, type, source, and
// confidence.
func (e *Engine) Edges(filter EdgeFilter) []*hypergraph.Edge {
	core := e.core()

	var candidates []*hypergraph.Edge
	switch {
	case len(filter.Containing) > 0:
		candidates = core.EdgesContaining(filter.Containing, filter.MatchAll)
	case filter.Type != "":
		candidates = core.EdgesByType(filter.Type)
	default:
		candidates = core.AllEdges()
	}

	out := make([]*hypergraph.Edge, 0, len(candidates))
	for _, edge := range candidates {
		if filter.Type != "" && edge.Type != filter.Type {
			continue
		}
		if filter.Source != "" && edge.Source != filter.Source {
			continue
		}
		if filter.MinConfidence != nil && edge.Confidence < *filter.MinConfidence {
			continue
		}
		out = append(out, edge)
	}
	return out
}

// FindEdges returns edges matching every given property.
func (e *Engine) FindEdges(properties map[string]any) ([]*hypergraph.Edge, error) {
	props, err := hypergraph.NormalizeProperties(properties)
	if err != nil {
		return nil, err
	}
	return e.core().FindEdges(props), nil
}

// EdgesByVertexSet finds edges connecting exactly the given nodes;
// order is irrelevant.
func (e *Engine) EdgesByVertexSet(nodeIDs []string) []*hypergraph.Edge {
	return e.core().EdgesByVertexSet(nodeIDs, "")
}

// HasEdgeWithNodes reports whether an edge with the exact vertex set
// (and type, when given) exists.
func (e *Engine) HasEdgeWithNodes(nodeIDs []string, edgeType string) bool {
	return e.core().HasEdgeWithNodes(nodeIDs, edgeType)
}

// UpsertEdgeByVertexSet creates or updates the edge identified by its
// exact vertex set and type. Properties merge on update (incoming
// wins); mergeFn overrides the merge policy.
func (e *Engine) UpsertEdgeByVertexSet(ctx context.Context, nodeIDs []string, edgeType string, properties map[string]any, opts EdgeOptions, mergeFn hypergraph.MergeFunc) (*hypergraph.Edge, error) {
	defer observeOp("upsert_edge")()
	if edgeType == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "edge type must be a non-empty string")
	}
	source, confidence := e.resolveProvenance(opts.Source, opts.Confidence)
	props, err := hypergraph.NormalizeProperties(properties)
	if err != nil {
		return nil, err
	}

	core := e.core()
	for _, id := range nodeIDs {
		if id == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "node ids must be non-empty strings")
		}
		if !core.HasNode(id) {
			if err := core.AddNode(hypergraph.Node{ID: id, Type: "unknown"}); err != nil {
				return nil, err
			}
		}
	}

	edge, err := core.UpsertEdgeByVertexSet(nodeIDs, edgeType, props, mergeFn, source, confidence, uuid.NewString)
	if err != nil {
		return nil, err
	}
	if err := e.autoFlush(ctx); err != nil {
		return nil, err
	}
	return edge, nil
}

// EdgesOfNode returns every edge incident to the node.
func (e *Engine) EdgesOfNode(nodeID string, edgeTypes []string) []*hypergraph.Edge {
	return e.core().EdgesOfNode(nodeID, edgeTypes)
}

// DeleteEdge removes an edge, reporting whether it existed.
func (e *Engine) DeleteEdge(ctx context.Context, id string) (bool, error) {
	defer observeOp("delete_edge")()
	deleted := e.core().DeleteEdge(id)
	if err := e.autoFlush(ctx); err != nil {
		return deleted, err
	}
	return deleted, nil
}
