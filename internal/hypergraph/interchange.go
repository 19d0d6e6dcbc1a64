package hypergraph

// Stable interchange format: nodes and edges as nested records, with
// each edge carrying its own ordered incidence list. Unlike HIF this
// shape is lossless for every field the graph stores, including
// edge-ref incidences, incidence order, and per-incidence properties.

type InterchangeNode struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
}

type InterchangeIncidence struct {
	NodeID     string     `json:"node_id,omitempty"`
	EdgeRefID  string     `json:"edge_ref_id,omitempty"`
	Direction  string     `json:"direction,omitempty"`
	Properties Properties `json:"properties,omitempty"`
}

type InterchangeEdge struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Incidences []InterchangeIncidence `json:"incidences"`
	Source     string                 `json:"source"`
	Confidence float64                `json:"confidence"`
	Properties Properties             `json:"properties"`
}

type InterchangeDocument struct {
	Nodes []InterchangeNode `json:"nodes"`
	Edges []InterchangeEdge `json:"edges"`
}

// ToInterchange exports the graph in the stable interchange shape.
// Records are emitted in id order so output is deterministic.
func (c *Core) ToInterchange() *InterchangeDocument {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc := &InterchangeDocument{
		Nodes: make([]InterchangeNode, 0, len(c.nodes)),
		Edges: make([]InterchangeEdge, 0, len(c.edges)),
	}

	for _, nodeID := range sortedNodeIDsLocked(c.nodes) {
		node := c.nodes[nodeID]
		doc.Nodes = append(doc.Nodes, InterchangeNode{
			ID:         node.ID,
			Type:       node.Type,
			Properties: cloneProperties(node.Properties),
		})
	}

	for _, edgeID := range sortedEdgeIDsLocked(c.edges) {
		edge := c.edges[edgeID]
		incidences := make([]InterchangeIncidence, 0, len(edge.Incidences))
		for _, inc := range edge.Incidences {
			incidences = append(incidences, InterchangeIncidence{
				NodeID:     inc.NodeID,
				EdgeRefID:  inc.EdgeRefID,
				Direction:  inc.Direction,
				Properties: cloneProperties(inc.Properties),
			})
		}
		doc.Edges = append(doc.Edges, InterchangeEdge{
			ID:         edge.ID,
			Type:       edge.Type,
			Incidences: incidences,
			Source:     edge.Source,
			Confidence: edge.Confidence,
			Properties: cloneProperties(edge.Properties),
		})
	}
	return doc
}

// FromInterchange builds a fresh Core from an interchange document.
// Every record passes through the same validation as direct mutation,
// so a malformed document is rejected rather than partially applied.
func FromInterchange(doc *InterchangeDocument) (*Core, error) {
	core := NewCore()

	for _, node := range doc.Nodes {
		props, err := NormalizeProperties(node.Properties)
		if err != nil {
			return nil, err
		}
		if err := core.AddNode(Node{ID: node.ID, Type: node.Type, Properties: props}); err != nil {
			return nil, err
		}
	}

	for _, edge := range doc.Edges {
		incidences := make([]Incidence, 0, len(edge.Incidences))
		for _, inc := range edge.Incidences {
			incProps, err := NormalizeProperties(inc.Properties)
			if err != nil {
				return nil, err
			}
			incidences = append(incidences, Incidence{
				NodeID:     inc.NodeID,
				EdgeRefID:  inc.EdgeRefID,
				Direction:  inc.Direction,
				Properties: incProps,
			})
		}
		props, err := NormalizeProperties(edge.Properties)
		if err != nil {
			return nil, err
		}
		err = core.AddEdge(Edge{
			ID:         edge.ID,
			Type:       edge.Type,
			Incidences: incidences,
			Properties: props,
			Source:     edge.Source,
			Confidence: edge.Confidence,
		})
		if err != nil {
			return nil, err
		}
	}
	return core, nil
}
