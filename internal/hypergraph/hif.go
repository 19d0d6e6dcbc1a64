package hypergraph

// Hypergraph Interchange Format (HIF) support.
// https://github.com/HIF-org/HIF-standard
//
// HIF keeps incidences in a flat root-level array and identifies
// records with "node"/"edge" fields rather than "id". Hyperbase-only
// attributes travel in attrs under underscore-prefixed keys.

import (
	"fmt"

	apperrors "hyperbase/internal/core/errors"
)

type HIFNode struct {
	Node  string         `json:"node"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

type HIFEdge struct {
	Edge  string         `json:"edge"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

type HIFIncidence struct {
	Node      string         `json:"node"`
	Edge      string         `json:"edge"`
	Direction string         `json:"direction,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

type HIFDocument struct {
	NetworkType string         `json:"network-type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Incidences  []HIFIncidence `json:"incidences"`
	Nodes       []HIFNode      `json:"nodes"`
	Edges       []HIFEdge      `json:"edges"`
}

// ToHIF exports the graph as a HIF document. Edge-ref incidences have
// no HIF representation and are omitted; the count of omitted refs is
// recorded in metadata so a round trip is at least detectable.
func (c *Core) ToHIF() *HIFDocument {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc := &HIFDocument{
		NetworkType: "undirected",
		Metadata: map[string]any{
			"generator": "hyperbase",
			"version":   "1.0",
		},
		Incidences: []HIFIncidence{},
		Nodes:      []HIFNode{},
		Edges:      []HIFEdge{},
	}

	for _, nodeID := range sortedNodeIDsLocked(c.nodes) {
		node := c.nodes[nodeID]
		attrs := make(map[string]any, len(node.Properties)+1)
		for k, v := range node.Properties {
			attrs[k] = cloneValue(v)
		}
		attrs["_type"] = node.Type
		doc.Nodes = append(doc.Nodes, HIFNode{Node: node.ID, Attrs: attrs})
	}

	skippedRefs := 0
	for _, edgeID := range sortedEdgeIDsLocked(c.edges) {
		edge := c.edges[edgeID]

		attrs := map[string]any{"_type": edge.Type}
		if edge.Source != "unknown" {
			attrs["_source"] = edge.Source
		}
		if edge.Confidence != 1.0 {
			attrs["_confidence"] = edge.Confidence
		}
		for k, v := range edge.Properties {
			attrs[k] = cloneValue(v)
		}
		doc.Edges = append(doc.Edges, HIFEdge{Edge: edge.ID, Attrs: attrs})

		for _, inc := range edge.Incidences {
			if inc.NodeID == "" {
				skippedRefs++
				continue
			}
			hifInc := HIFIncidence{
				Node:      inc.NodeID,
				Edge:      edge.ID,
				Direction: inc.Direction,
			}
			if len(inc.Properties) > 0 {
				hifInc.Attrs = cloneProperties(inc.Properties)
			}
			doc.Incidences = append(doc.Incidences, hifInc)
		}

		if edge.IsDirected() {
			doc.NetworkType = "directed"
		}
	}

	if skippedRefs > 0 {
		doc.Metadata["_hyperbase_edge_refs_omitted"] = skippedRefs
	}
	return doc
}

// FromHIF builds a Core from a HIF document. Nodes or edges mentioned
// only by incidences are auto-created with type "unknown"; strict mode
// turns that into a validation error instead.
func FromHIF(doc *HIFDocument, strict bool) (*Core, error) {
	core := NewCore()

	type edgeSeed struct {
		edgeType   string
		source     string
		confidence float64
		properties Properties
		incidences []Incidence
	}
	seeds := make(map[string]*edgeSeed)
	var seedOrder []string

	for _, hifEdge := range doc.Edges {
		attrs, err := NormalizeProperties(hifEdge.Attrs)
		if err != nil {
			return nil, err
		}
		seed := &edgeSeed{edgeType: "unknown", source: "unknown", confidence: 1.0, properties: Properties{}}
		for k, v := range attrs {
			switch k {
			case "_type":
				if s, ok := v.(string); ok {
					seed.edgeType = s
				}
			case "_source":
				if s, ok := v.(string); ok {
					seed.source = s
				}
			case "_confidence":
				if f, ok := v.(float64); ok {
					seed.confidence = f
				}
			default:
				seed.properties[k] = v
			}
		}
		seeds[hifEdge.Edge] = seed
		seedOrder = append(seedOrder, hifEdge.Edge)
	}

	for _, hifNode := range doc.Nodes {
		attrs, err := NormalizeProperties(hifNode.Attrs)
		if err != nil {
			return nil, err
		}
		nodeType := "unknown"
		if t, ok := attrs["_type"].(string); ok {
			nodeType = t
		}
		delete(attrs, "_type")
		if err := core.AddNode(Node{ID: hifNode.Node, Type: nodeType, Properties: attrs}); err != nil {
			return nil, err
		}
	}

	var autoNodes, autoEdges []string
	for _, hifInc := range doc.Incidences {
		if !core.HasNode(hifInc.Node) {
			autoNodes = append(autoNodes, hifInc.Node)
			if err := core.AddNode(Node{ID: hifInc.Node, Type: "unknown"}); err != nil {
				return nil, err
			}
		}
		seed, ok := seeds[hifInc.Edge]
		if !ok {
			autoEdges = append(autoEdges, hifInc.Edge)
			seed = &edgeSeed{edgeType: "unknown", source: "unknown", confidence: 1.0, properties: Properties{}}
			seeds[hifInc.Edge] = seed
			seedOrder = append(seedOrder, hifInc.Edge)
		}
		incProps, err := NormalizeProperties(hifInc.Attrs)
		if err != nil {
			return nil, err
		}
		seed.incidences = append(seed.incidences, Incidence{
			NodeID:     hifInc.Node,
			Direction:  hifInc.Direction,
			Properties: incProps,
		})
	}

	for _, edgeID := range seedOrder {
		seed := seeds[edgeID]
		err := core.AddEdge(Edge{
			ID:         edgeID,
			Type:       seed.edgeType,
			Incidences: seed.incidences,
			Properties: seed.properties,
			Source:     seed.source,
			Confidence: seed.confidence,
		})
		if err != nil {
			return nil, err
		}
	}

	if strict && (len(autoNodes) > 0 || len(autoEdges) > 0) {
		msg := "strict HIF import rejected auto-created records:"
		if len(autoNodes) > 0 {
			msg += fmt.Sprintf(" %d nodes %v", len(autoNodes), autoNodes)
		}
		if len(autoEdges) > 0 {
			msg += fmt.Sprintf(" %d edges %v", len(autoEdges), autoEdges)
		}
		return nil, apperrors.New(apperrors.CodeValidation, msg)
	}
	return core, nil
}
