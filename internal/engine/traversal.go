package engine

import (
	"hyperbase/internal/hypergraph"
)

// Neighbors returns the nodes connected to nodeID via shared edges,
// excluding the node itself.
func (e *Engine) Neighbors(nodeID string, edgeTypes []string) []*hypergraph.Node {
	defer observeOp("neighbors")()
	core := e.core()
	ids := core.NeighborNodes(nodeID, edgeTypes, true)
	out := make([]*hypergraph.Node, 0, len(ids))
	for _, id := range ids {
		if node, ok := core.GetNode(id); ok {
			out = append(out, node)
		}
	}
	return out
}

// Paths finds node-level paths from start to end, breadth first, up to
// maxHops hops (default 5 when zero).
func (e *Engine) Paths(start, end string, maxHops int, edgeTypes []string) [][]string {
	defer observeOp("paths")()
	return e.core().NodePaths(start, end, maxHops, edgeTypes)
}

// FindPaths finds edge-sequence paths from any start node to any end
// node under the intersection constraint.
func (e *Engine) FindPaths(startNodes, endNodes []string, opts hypergraph.PathOptions) ([][]*hypergraph.Edge, error) {
	defer observeOp("find_paths")()
	return e.core().FindPaths(startNodes, endNodes, opts)
}

// NodeDegree counts edges touching a node.
func (e *Engine) NodeDegree(nodeID string, edgeTypes []string) int {
	return e.core().NodeDegree(nodeID, edgeTypes)
}

// EdgeCardinality counts distinct nodes in an edge.
func (e *Engine) EdgeCardinality(edgeID string) int {
	return e.core().EdgeCardinality(edgeID)
}

// HyperedgeDegree sums the degrees of every node in the edge matching
// the vertex set.
func (e *Engine) HyperedgeDegree(nodeIDs []string, edgeType string) int {
	return e.core().HyperedgeDegree(nodeIDs, edgeType)
}
