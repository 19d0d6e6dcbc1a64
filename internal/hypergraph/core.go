package hypergraph

import (
	"sort"
	"sync"

	apperrors "hyperbase/internal/core/errors"
)

// MergeFunc combines an existing edge with an incoming one during upsert.
// The returned edge replaces the existing record.
type MergeFunc func(existing, incoming *Edge) *Edge

// Core is one namespace's authoritative in-memory hypergraph.
//
// All lookups are indexed: by node id, by type, and by vertex-set digest.
// The vertex-set index is maintained synchronously with every edge
// mutation so exact-match lookups never consult the durable store.
type Core struct {
	mu sync.RWMutex

	nodes map[string]*Node
	edges map[string]*Edge

	// Indexes
	nodeToEdges      map[string]map[string]bool // node id -> incident edge ids
	nodesByType      map[string]map[string]bool
	edgesByType      map[string]map[string]bool
	edgesByVertexSet map[string]map[string]bool // digest -> edge ids sharing that vertex set
	edgeToEdges      map[string]map[string]bool // referenced edge id -> referencing edge ids
}

func NewCore() *Core {
	return &Core{
		nodes:            make(map[string]*Node),
		edges:            make(map[string]*Edge),
		nodeToEdges:      make(map[string]map[string]bool),
		nodesByType:      make(map[string]map[string]bool),
		edgesByType:      make(map[string]map[string]bool),
		edgesByVertexSet: make(map[string]map[string]bool),
		edgeToEdges:      make(map[string]map[string]bool),
	}
}

// ---------- Node operations ----------

// AddNode inserts or overwrites a node and updates the type index.
func (c *Core) AddNode(node Node) error {
	if node.ID == "" {
		return apperrors.New(apperrors.CodeValidation, "node id must be a non-empty string")
	}
	if node.Type == "" {
		node.Type = "unknown"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addNodeLocked(node)
	return nil
}

func (c *Core) addNodeLocked(node Node) {
	if existing, ok := c.nodes[node.ID]; ok {
		c.dropFromIndex(c.nodesByType, existing.Type, node.ID)
	}
	stored := node
	stored.Properties = cloneProperties(node.Properties)
	c.nodes[node.ID] = &stored
	c.addToIndex(c.nodesByType, node.Type, node.ID)
}

// UpsertNode inserts the node or merges it onto an existing record. With
// mergeProperties, incoming property keys overwrite existing ones while
// untouched keys survive.
func (c *Core) UpsertNode(node Node, mergeProperties bool) (*Node, error) {
	if node.ID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "node id must be a non-empty string")
	}
	if node.Type == "" {
		node.Type = "unknown"
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.nodes[node.ID]
	if !ok {
		c.addNodeLocked(node)
		return cloneNode(c.nodes[node.ID]), nil
	}

	if existing.Type != node.Type {
		c.dropFromIndex(c.nodesByType, existing.Type, node.ID)
		c.addToIndex(c.nodesByType, node.Type, node.ID)
	}

	props := existing.Properties
	if mergeProperties {
		merged := cloneProperties(existing.Properties)
		for k, v := range node.Properties {
			merged[k] = cloneValue(v)
		}
		props = merged
	} else {
		props = cloneProperties(node.Properties)
	}

	c.nodes[node.ID] = &Node{ID: node.ID, Type: node.Type, Properties: props}
	return cloneNode(c.nodes[node.ID]), nil
}

func (c *Core) GetNode(id string) (*Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[id]
	if !ok {
		return nil, false
	}
	return cloneNode(n), true
}

func (c *Core) HasNode(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.nodes[id]
	return ok
}

func (c *Core) AllNodes() []*Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Node, 0, len(c.nodes))
	for _, id := range sortedNodeIDsLocked(c.nodes) {
		out = append(out, cloneNode(c.nodes[id]))
	}
	return out
}

func (c *Core) NodesByType(nodeType string) []*Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := sortedKeys(c.nodesByType[nodeType])
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := c.nodes[id]; ok {
			out = append(out, cloneNode(n))
		}
	}
	return out
}

// FindNodes returns nodes whose properties match every given key/value.
func (c *Core) FindNodes(properties map[string]any) []*Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Node, 0)
	for _, id := range sortedNodeIDsLocked(c.nodes) {
		if propertiesMatch(c.nodes[id].Properties, properties) {
			out = append(out, cloneNode(c.nodes[id]))
		}
	}
	return out
}

// DeleteNode removes the node record only. Incident edges are left in
// place; the validator reports the resulting dangling incidences.
func (c *Core) DeleteNode(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteNodeLocked(id)
}

func (c *Core) deleteNodeLocked(id string) bool {
	node, ok := c.nodes[id]
	if !ok {
		return false
	}
	c.dropFromIndex(c.nodesByType, node.Type, id)
	delete(c.nodes, id)
	return true
}

// DeleteNodeCascade removes the node together with every incident edge,
// returning whether the node existed and how many edges went with it.
func (c *Core) DeleteNodeCascade(id string) (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.nodes[id]; !ok {
		return false, 0
	}

	edgeIDs := sortedKeys(c.nodeToEdges[id])
	deleted := 0
	for _, edgeID := range edgeIDs {
		if c.deleteEdgeLocked(edgeID) {
			deleted++
		}
	}
	return c.deleteNodeLocked(id), deleted
}

// ---------- Edge operations ----------

// AddEdge inserts or overwrites a hyperedge, rejecting invalid records
// (out-of-range confidence, malformed or duplicate incidences) before
// any state changes. All indexes are updated synchronously.
func (c *Core) AddEdge(edge Edge) error {
	if err := prepareEdge(&edge); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addEdgeLocked(edge)
	return nil
}

func prepareEdge(edge *Edge) error {
	if edge.Source == "" {
		edge.Source = "unknown"
	}
	return edge.validate()
}

func (c *Core) addEdgeLocked(edge Edge) {
	if existing, ok := c.edges[edge.ID]; ok {
		c.removeEdgeIndexesLocked(existing)
	}
	stored := edge
	stored.Properties = cloneProperties(edge.Properties)
	stored.Incidences = cloneIncidences(edge.Incidences)
	c.edges[edge.ID] = &stored
	c.insertEdgeIndexesLocked(&stored)
}

func (c *Core) insertEdgeIndexesLocked(edge *Edge) {
	c.addToIndex(c.edgesByType, edge.Type, edge.ID)
	for _, inc := range edge.Incidences {
		if inc.NodeID != "" {
			c.addToIndex(c.nodeToEdges, inc.NodeID, edge.ID)
		}
		if inc.EdgeRefID != "" {
			c.addToIndex(c.edgeToEdges, inc.EdgeRefID, edge.ID)
		}
	}
	// Edges carrying only edge refs have an empty vertex set and are not
	// indexed; an empty-set bucket would collide across all of them.
	if set := edge.NodeSet(); len(set) > 0 {
		c.addToIndex(c.edgesByVertexSet, VertexSetDigest(set), edge.ID)
	}
}

func (c *Core) removeEdgeIndexesLocked(edge *Edge) {
	c.dropFromIndex(c.edgesByType, edge.Type, edge.ID)
	for _, inc := range edge.Incidences {
		if inc.NodeID != "" {
			c.dropFromIndex(c.nodeToEdges, inc.NodeID, edge.ID)
		}
		if inc.EdgeRefID != "" {
			c.dropFromIndex(c.edgeToEdges, inc.EdgeRefID, edge.ID)
		}
	}
	if set := edge.NodeSet(); len(set) > 0 {
		c.dropFromIndex(c.edgesByVertexSet, VertexSetDigest(set), edge.ID)
	}
}

func (c *Core) GetEdge(id string) (*Edge, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.edges[id]
	if !ok {
		return nil, false
	}
	return cloneEdge(e), true
}

func (c *Core) AllEdges() []*Edge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Edge, 0, len(c.edges))
	for _, id := range sortedEdgeIDsLocked(c.edges) {
		out = append(out, cloneEdge(c.edges[id]))
	}
	return out
}

func (c *Core) EdgesByType(edgeType string) []*Edge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := sortedKeys(c.edgesByType[edgeType])
	out := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		if e, ok := c.edges[id]; ok {
			out = append(out, cloneEdge(e))
		}
	}
	return out
}

// EdgesContaining returns edges touching the given nodes. With matchAll,
// an edge must contain every listed node; otherwise any one suffices.
func (c *Core) EdgesContaining(nodeIDs []string, matchAll bool) []*Edge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := c.edgesContainingLocked(toSet(nodeIDs), matchAll)
	out := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneEdge(c.edges[id]))
	}
	return out
}

func (c *Core) edgesContainingLocked(nodeIDs map[string]bool, matchAll bool) []string {
	if len(nodeIDs) == 0 {
		return nil
	}
	var result map[string]bool
	if matchAll {
		for nodeID := range nodeIDs {
			bucket := c.nodeToEdges[nodeID]
			if len(bucket) == 0 {
				return nil
			}
			if result == nil {
				result = make(map[string]bool, len(bucket))
				for id := range bucket {
					result[id] = true
				}
				continue
			}
			for id := range result {
				if !bucket[id] {
					delete(result, id)
				}
			}
		}
	} else {
		result = make(map[string]bool)
		for nodeID := range nodeIDs {
			for id := range c.nodeToEdges[nodeID] {
				result[id] = true
			}
		}
	}
	return sortedKeys(result)
}

// FindEdges returns edges whose properties match every given key/value.
func (c *Core) FindEdges(properties map[string]any) []*Edge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Edge, 0)
	for _, id := range sortedEdgeIDsLocked(c.edges) {
		if propertiesMatch(c.edges[id].Properties, properties) {
			out = append(out, cloneEdge(c.edges[id]))
		}
	}
	return out
}

// DeleteEdge removes the edge, its incidences, and its vertex-set index
// membership in one step.
func (c *Core) DeleteEdge(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteEdgeLocked(id)
}

func (c *Core) deleteEdgeLocked(id string) bool {
	edge, ok := c.edges[id]
	if !ok {
		return false
	}
	c.removeEdgeIndexesLocked(edge)
	// Drop this edge as a referenced target of other edges.
	delete(c.edgeToEdges, id)
	delete(c.edges, id)
	return true
}

// UpsertEdge inserts the edge or replaces an existing record with the
// same id. When mergeFn is nil the incoming edge wins outright. mergeFn
// runs before any index is touched, so a failing merge leaves the graph
// unchanged.
func (c *Core) UpsertEdge(edge Edge, mergeFn MergeFunc) (*Edge, error) {
	if err := prepareEdge(&edge); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.edges[edge.ID]
	if !ok {
		c.addEdgeLocked(edge)
		return cloneEdge(c.edges[edge.ID]), nil
	}

	final := &edge
	if mergeFn != nil {
		final = mergeFn(cloneEdge(existing), &edge)
		if err := prepareEdge(final); err != nil {
			return nil, err
		}
	}

	c.removeEdgeIndexesLocked(existing)
	stored := *final
	stored.Properties = cloneProperties(final.Properties)
	stored.Incidences = cloneIncidences(final.Incidences)
	c.edges[stored.ID] = &stored
	c.insertEdgeIndexesLocked(&stored)
	return cloneEdge(&stored), nil
}

// ---------- Vertex-set lookup ----------

// EdgesByVertexSet answers "which edges connect exactly these nodes":
// digest lookup first, then exact set equality per candidate so digest
// collisions can never surface a wrong edge.
func (c *Core) EdgesByVertexSet(nodeIDs []string, edgeType string) []*Edge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.edgesByVertexSetLocked(toSet(nodeIDs), edgeType)
}

func (c *Core) edgesByVertexSetLocked(set map[string]bool, edgeType string) []*Edge {
	bucket := c.edgesByVertexSet[VertexSetDigest(set)]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]*Edge, 0, len(bucket))
	for _, id := range sortedKeys(bucket) {
		edge, ok := c.edges[id]
		if !ok {
			continue
		}
		if edgeType != "" && edge.Type != edgeType {
			continue
		}
		if !setEqual(edge.NodeSet(), set) {
			continue
		}
		out = append(out, cloneEdge(edge))
	}
	return out
}

// EdgeByVertexSet returns the first (lowest edge id) exact match, or nil.
func (c *Core) EdgeByVertexSet(nodeIDs []string, edgeType string) *Edge {
	matches := c.EdgesByVertexSet(nodeIDs, edgeType)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

func (c *Core) HasEdgeWithNodes(nodeIDs []string, edgeType string) bool {
	return c.EdgeByVertexSet(nodeIDs, edgeType) != nil
}

// UpsertEdgeByVertexSet is the idempotent-ingestion primitive: at most
// one edge per (vertex set, type) survives repeated calls. An existing
// match keeps its id and has properties merged (incoming wins unless
// mergeFn overrides); otherwise a new edge is created with the given id
// generator.
func (c *Core) UpsertEdgeByVertexSet(nodeIDs []string, edgeType string, properties Properties, mergeFn MergeFunc, source string, confidence float64, newID func() string) (*Edge, error) {
	set := toSet(nodeIDs)
	if len(set) < 2 {
		return nil, apperrors.New(apperrors.CodeValidation, "a hyperedge must connect at least 2 distinct nodes")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var existing *Edge
	if matches := c.edgesByVertexSetLocked(set, edgeType); len(matches) > 0 {
		existing = matches[0]
	}

	incidences := make([]Incidence, 0, len(set))
	for _, id := range sortedKeys(set) {
		incidences = append(incidences, Incidence{NodeID: id})
	}

	id := ""
	if existing != nil {
		id = existing.ID
		// Keep the stored incidence order for the surviving edge.
		incidences = cloneIncidences(existing.Incidences)
	} else {
		id = newID()
	}

	incoming := Edge{
		ID:         id,
		Type:       edgeType,
		Incidences: incidences,
		Properties: properties,
		Source:     source,
		Confidence: confidence,
	}
	if err := prepareEdge(&incoming); err != nil {
		return nil, err
	}

	if existing == nil {
		c.addEdgeLocked(incoming)
		return cloneEdge(c.edges[id]), nil
	}

	final := &incoming
	if mergeFn != nil {
		final = mergeFn(existing, &incoming)
		if err := prepareEdge(final); err != nil {
			return nil, err
		}
	} else {
		merged := cloneProperties(existing.Properties)
		for k, v := range incoming.Properties {
			merged[k] = cloneValue(v)
		}
		final.Properties = merged
	}

	stored := c.edges[id]
	c.removeEdgeIndexesLocked(stored)
	replacement := *final
	replacement.Properties = cloneProperties(final.Properties)
	replacement.Incidences = cloneIncidences(final.Incidences)
	c.edges[id] = &replacement
	c.insertEdgeIndexesLocked(&replacement)
	return cloneEdge(&replacement), nil
}

// ---------- Stats ----------

func (c *Core) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{
		NodeCount:   len(c.nodes),
		EdgeCount:   len(c.edges),
		NodesByType: make(map[string]int, len(c.nodesByType)),
		EdgesByType: make(map[string]int, len(c.edgesByType)),
	}
	for t, ids := range c.nodesByType {
		s.NodesByType[t] = len(ids)
	}
	for t, ids := range c.edgesByType {
		s.EdgesByType[t] = len(ids)
	}
	return s
}

// Sources summarizes provenance across all edges: per-source edge count
// and average confidence rounded to 4 decimals, sorted by source.
func (c *Core) Sources() []SourceSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	totals := make(map[string]struct {
		count int
		sum   float64
	})
	for _, edge := range c.edges {
		agg := totals[edge.Source]
		agg.count++
		agg.sum += edge.Confidence
		totals[edge.Source] = agg
	}
	sources := make([]string, 0, len(totals))
	for src := range totals {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	out := make([]SourceSummary, 0, len(sources))
	for _, src := range sources {
		agg := totals[src]
		avg := agg.sum / float64(agg.count)
		out = append(out, SourceSummary{
			Source:        src,
			EdgeCount:     agg.count,
			AvgConfidence: roundTo(avg, 4),
		})
	}
	return out
}

// Clone produces a deep copy with freshly built indexes; used by
// namespace copy.
func (c *Core) Clone() *Core {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := NewCore()
	for _, node := range c.nodes {
		out.addNodeLocked(*cloneNode(node))
	}
	for _, edge := range c.edges {
		out.addEdgeLocked(*cloneEdge(edge))
	}
	return out
}

// ---------- Helpers ----------

func (c *Core) addToIndex(index map[string]map[string]bool, key, member string) {
	bucket, ok := index[key]
	if !ok {
		bucket = make(map[string]bool)
		index[key] = bucket
	}
	bucket[member] = true
}

func (c *Core) dropFromIndex(index map[string]map[string]bool, key, member string) {
	bucket, ok := index[key]
	if !ok {
		return
	}
	delete(bucket, member)
	if len(bucket) == 0 {
		delete(index, key)
	}
}

func propertiesMatch(props Properties, want map[string]any) bool {
	for k, v := range want {
		actual, ok := props[k]
		if !ok || !ValueEqual(actual, v) {
			return false
		}
	}
	return true
}

func cloneNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{ID: n.ID, Type: n.Type, Properties: cloneProperties(n.Properties)}
}

func cloneEdge(e *Edge) *Edge {
	if e == nil {
		return nil
	}
	return &Edge{
		ID:         e.ID,
		Type:       e.Type,
		Incidences: cloneIncidences(e.Incidences),
		Source:     e.Source,
		Confidence: e.Confidence,
		Properties: cloneProperties(e.Properties),
	}
}

func cloneIncidences(incs []Incidence) []Incidence {
	if incs == nil {
		return nil
	}
	out := make([]Incidence, len(incs))
	for i, inc := range incs {
		out[i] = inc
		out[i].Properties = cloneProperties(inc.Properties)
	}
	return out
}

func sortedNodeIDsLocked(nodes map[string]*Node) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedEdgeIDsLocked(edges map[string]*Edge) []string {
	ids := make([]string, 0, len(edges))
	for id := range edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func roundTo(v float64, places int) float64 {
	scale := 1.0
	for i := 0; i < places; i++ {
		scale *= 10
	}
	if v >= 0 {
		return float64(int64(v*scale+0.5)) / scale
	}
	return float64(int64(v*scale-0.5)) / scale
}
