package engine

import (
	"context"
	"time"

	apperrors "hyperbase/internal/core/errors"
	"hyperbase/internal/hypergraph"
	"hyperbase/internal/shared/observability"
)

// NodeOptions carries the optional parts of node creation.
type NodeOptions struct {
	Type       string
	Properties map[string]any
}

// Node creates or updates a node. An existing node has its type
// replaced and the given properties merged over its own.
func (e *Engine) Node(ctx context.Context, id string, opts NodeOptions) (*hypergraph.Node, error) {
	defer observeOp("node")()
	if id == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "node id must be a non-empty string")
	}
	nodeType := opts.Type
	if nodeType == "" {
		nodeType = "unknown"
	}
	props, err := hypergraph.NormalizeProperties(opts.Properties)
	if err != nil {
		return nil, err
	}

	node, err := e.core().UpsertNode(hypergraph.Node{ID: id, Type: nodeType, Properties: props}, true)
	if err != nil {
		return nil, err
	}
	if err := e.autoFlush(ctx); err != nil {
		return nil, err
	}
	return node, nil
}

// GetNode returns the node and whether it exists.
func (e *Engine) GetNode(id string) (*hypergraph.Node, bool) {
	return e.core().GetNode(id)
}

// HasNode reports node existence.
func (e *Engine) HasNode(id string) bool {
	return e.core().HasNode(id)
}

// Nodes lists nodes, optionally restricted to one type.
func (e *Engine) Nodes(nodeType string) []*hypergraph.Node {
	if nodeType != "" {
		return e.core().NodesByType(nodeType)
	}
	return e.core().AllNodes()
}

// FindNodes returns nodes matching every given property.
func (e *Engine) FindNodes(properties map[string]any) ([]*hypergraph.Node, error) {
	props, err := hypergraph.NormalizeProperties(properties)
	if err != nil {
		return nil, err
	}
	return e.core().FindNodes(props), nil
}

// DeleteNode removes a node. With cascade, incident edges go too;
// without it they stay behind with dangling incidences for the
// validator to report.
func (e *Engine) DeleteNode(ctx context.Context, id string, cascade bool) (bool, error) {
	defer observeOp("delete_node")()
	var deleted bool
	if cascade {
		deleted, _ = e.core().DeleteNodeCascade(id)
	} else {
		deleted = e.core().DeleteNode(id)
	}
	if err := e.autoFlush(ctx); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// DeleteNodeCascade removes the node and all incident edges, also
// reporting how many edges were removed.
func (e *Engine) DeleteNodeCascade(ctx context.Context, id string) (bool, int, error) {
	defer observeOp("delete_node")()
	deleted, edges := e.core().DeleteNodeCascade(id)
	if err := e.autoFlush(ctx); err != nil {
		return deleted, edges, err
	}
	return deleted, edges, nil
}

func observeOp(operation string) func() {
	start := time.Now()
	return func() {
		observability.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
