package hypergraph

import (
	"sort"

	apperrors "hyperbase/internal/core/errors"
)

// Direction modes for edge-sequence path finding.
const (
	DirectionModeUndirected = "undirected"
	DirectionModeForward    = "forward"
	DirectionModeBackward   = "backward"
)

// PathOptions tunes FindPaths. Zero values fall back to the defaults
// (max 3 hops, 10 paths, overlap of 1, undirected).
type PathOptions struct {
	MaxHops         int
	MaxPaths        int
	MinIntersection int
	EdgeTypes       []string
	DirectionMode   string
}

func (o *PathOptions) applyDefaults() {
	if o.MaxHops <= 0 {
		o.MaxHops = 3
	}
	if o.MaxPaths <= 0 {
		o.MaxPaths = 10
	}
	if o.MinIntersection <= 0 {
		o.MinIntersection = 1
	}
	if o.DirectionMode == "" {
		o.DirectionMode = DirectionModeUndirected
	}
}

// NeighborNodes returns the 1-hop neighbors of a node, sorted. Only
// node incidences are traversed; edge refs do not produce neighbors.
func (c *Core) NeighborNodes(nodeID string, edgeTypes []string, excludeSelf bool) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.neighborNodesLocked(nodeID, edgeTypes, excludeSelf)
}

func (c *Core) neighborNodesLocked(nodeID string, edgeTypes []string, excludeSelf bool) []string {
	typeFilter := toSet(edgeTypes)
	neighbors := make(map[string]bool)
	for edgeID := range c.nodeToEdges[nodeID] {
		edge, ok := c.edges[edgeID]
		if !ok {
			continue
		}
		if len(typeFilter) > 0 && !typeFilter[edge.Type] {
			continue
		}
		for id := range edge.NodeSet() {
			neighbors[id] = true
		}
	}
	if excludeSelf {
		delete(neighbors, nodeID)
	}
	return sortedKeys(neighbors)
}

// EdgesOfNode returns every edge incident to the node, sorted by id.
func (c *Core) EdgesOfNode(nodeID string, edgeTypes []string) []*Edge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	typeFilter := toSet(edgeTypes)
	out := make([]*Edge, 0)
	for _, edgeID := range sortedKeys(c.nodeToEdges[nodeID]) {
		edge, ok := c.edges[edgeID]
		if !ok {
			continue
		}
		if len(typeFilter) > 0 && !typeFilter[edge.Type] {
			continue
		}
		out = append(out, cloneEdge(edge))
	}
	return out
}

// NodeDegree counts the edges touching a node.
func (c *Core) NodeDegree(nodeID string, edgeTypes []string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nodeDegreeLocked(nodeID, edgeTypes)
}

func (c *Core) nodeDegreeLocked(nodeID string, edgeTypes []string) int {
	bucket := c.nodeToEdges[nodeID]
	if len(edgeTypes) == 0 {
		return len(bucket)
	}
	typeFilter := toSet(edgeTypes)
	count := 0
	for edgeID := range bucket {
		if edge, ok := c.edges[edgeID]; ok && typeFilter[edge.Type] {
			count++
		}
	}
	return count
}

// EdgeCardinality counts the distinct nodes in an edge. Edge-ref
// members are excluded; a missing edge yields 0.
func (c *Core) EdgeCardinality(edgeID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	edge, ok := c.edges[edgeID]
	if !ok {
		return 0
	}
	return len(edge.NodeSet())
}

// HyperedgeDegree sums the degrees of every node in the edge identified
// by the given vertex set. Returns 0 when no such edge exists.
func (c *Core) HyperedgeDegree(nodeIDs []string, edgeType string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	matches := c.edgesByVertexSetLocked(toSet(nodeIDs), edgeType)
	if len(matches) == 0 {
		return 0
	}
	total := 0
	for id := range matches[0].NodeSet() {
		total += c.nodeDegreeLocked(id, nil)
	}
	return total
}

// NodePaths searches node-level paths from start to end via shared
// hyperedges, breadth first. Each returned path is a node id sequence;
// neighbors expand in lexicographic order so results are deterministic.
func (c *Core) NodePaths(start, end string, maxHops int, edgeTypes []string) [][]string {
	if maxHops <= 0 {
		maxHops = 5
	}
	if start == end {
		return [][]string{{start}}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	visited := map[string]bool{start: true}
	queue := [][]string{{start}}
	var results [][]string

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if len(path)-1 >= maxHops {
			continue
		}
		current := path[len(path)-1]
		for _, nid := range c.neighborNodesLocked(current, edgeTypes, true) {
			if nid == end {
				results = append(results, append(append([]string(nil), path...), end))
			} else if !visited[nid] {
				visited[nid] = true
				queue = append(queue, append(append([]string(nil), path...), nid))
			}
		}
	}
	return results
}

// FindPaths runs intersection-constrained path finding over edge
// sequences: consecutive edges must share at least MinIntersection
// nodes, with the shared set restricted by DirectionMode (forward
// matches heads onto tails, backward the reverse; undirected edges
// contribute their full vertex set either way). Each edge appears in
// at most one returned path.
func (c *Core) FindPaths(startNodes, endNodes []string, opts PathOptions) ([][]*Edge, error) {
	opts.applyDefaults()
	switch opts.DirectionMode {
	case DirectionModeUndirected, DirectionModeForward, DirectionModeBackward:
	default:
		return nil, apperrors.Newf(apperrors.CodeValidation,
			"direction_mode must be 'undirected', 'forward', or 'backward', got %q", opts.DirectionMode)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	typeFilter := toSet(opts.EdgeTypes)
	startEdges := c.filterByTypeLocked(c.edgesContainingLocked(toSet(startNodes), false), typeFilter)
	targetIDs := make(map[string]bool)
	for _, id := range c.filterByTypeLocked(c.edgesContainingLocked(toSet(endNodes), false), typeFilter) {
		targetIDs[id] = true
	}
	if len(startEdges) == 0 || len(targetIDs) == 0 {
		return nil, nil
	}

	type frame struct {
		edgeID string
		path   []string
	}
	queue := make([]frame, 0, len(startEdges))
	visited := make(map[string]bool, len(startEdges))
	for _, id := range startEdges {
		queue = append(queue, frame{edgeID: id, path: []string{id}})
		visited[id] = true
	}

	var found [][]*Edge
	for len(queue) > 0 && len(found) < opts.MaxPaths {
		f := queue[0]
		queue = queue[1:]

		if targetIDs[f.edgeID] {
			path := make([]*Edge, 0, len(f.path))
			for _, id := range f.path {
				path = append(path, cloneEdge(c.edges[id]))
			}
			found = append(found, path)
			continue
		}
		if len(f.path) >= opts.MaxHops {
			continue
		}

		for _, nextID := range c.adjacentEdgesLocked(c.edges[f.edgeID], opts.MinIntersection, opts.DirectionMode, typeFilter) {
			if visited[nextID] {
				continue
			}
			visited[nextID] = true
			queue = append(queue, frame{
				edgeID: nextID,
				path:   append(append([]string(nil), f.path...), nextID),
			})
		}
	}
	return found, nil
}

// adjacentEdgesLocked returns ids of edges sharing enough nodes with
// the given edge under the direction mode, sorted for determinism.
func (c *Core) adjacentEdgesLocked(edge *Edge, minIntersection int, directionMode string, typeFilter map[string]bool) []string {
	var sourceNodes map[string]bool
	switch directionMode {
	case DirectionModeForward:
		sourceNodes = toSet(edge.HeadNodes())
	case DirectionModeBackward:
		sourceNodes = toSet(edge.TailNodes())
	}
	if len(sourceNodes) == 0 {
		sourceNodes = edge.NodeSet()
	}

	sourceIDs := make([]string, 0, len(sourceNodes))
	for id := range sourceNodes {
		sourceIDs = append(sourceIDs, id)
	}

	candidates := c.filterByTypeLocked(c.edgesContainingLocked(toSet(sourceIDs), false), typeFilter)
	adjacent := make([]string, 0, len(candidates))
	for _, candidateID := range candidates {
		if candidateID == edge.ID {
			continue
		}
		candidate := c.edges[candidateID]

		var targetNodes map[string]bool
		switch directionMode {
		case DirectionModeForward:
			targetNodes = toSet(candidate.TailNodes())
		case DirectionModeBackward:
			targetNodes = toSet(candidate.HeadNodes())
		}
		if len(targetNodes) == 0 {
			targetNodes = candidate.NodeSet()
		}

		overlap := 0
		for id := range sourceNodes {
			if targetNodes[id] {
				overlap++
			}
		}
		if overlap >= minIntersection {
			adjacent = append(adjacent, candidateID)
		}
	}
	sort.Strings(adjacent)
	return adjacent
}

func (c *Core) filterByTypeLocked(edgeIDs []string, typeFilter map[string]bool) []string {
	if len(typeFilter) == 0 {
		return edgeIDs
	}
	out := make([]string, 0, len(edgeIDs))
	for _, id := range edgeIDs {
		if edge, ok := c.edges[id]; ok && typeFilter[edge.Type] {
			out = append(out, id)
		}
	}
	return out
}
