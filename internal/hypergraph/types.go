package hypergraph

import (
	"fmt"

	apperrors "hyperbase/internal/core/errors"
)

// Direction tags for incidences on directed edges.
const (
	DirectionTail = "tail"
	DirectionHead = "head"
)

// Node is an entity in the hypergraph, identified by a unique id within
// its namespace.
type Node struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
}

// Incidence links one participant to an edge. Exactly one of NodeID or
// EdgeRefID is set; EdgeRefID enables edges that reference other edges.
type Incidence struct {
	NodeID     string     `json:"node_id,omitempty"`
	EdgeRefID  string     `json:"edge_ref_id,omitempty"`
	Direction  string     `json:"direction,omitempty"`
	Properties Properties `json:"properties,omitempty"`
}

func (inc Incidence) validate() error {
	if inc.NodeID == "" && inc.EdgeRefID == "" {
		return apperrors.New(apperrors.CodeValidation, "incidence must have either node_id or edge_ref_id")
	}
	if inc.NodeID != "" && inc.EdgeRefID != "" {
		return apperrors.New(apperrors.CodeValidation, "incidence cannot have both node_id and edge_ref_id")
	}
	if inc.Direction != "" && inc.Direction != DirectionTail && inc.Direction != DirectionHead {
		return apperrors.Newf(apperrors.CodeValidation, "incidence direction must be %q, %q, or empty, got %q", DirectionTail, DirectionHead, inc.Direction)
	}
	return nil
}

// Edge is an n-ary relationship between nodes (and, via edge refs, other
// edges). The incidence list is ordered; for directed edges the first
// participant is the tail and the last is the head.
type Edge struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Incidences []Incidence `json:"incidences"`
	Source     string      `json:"source"`
	Confidence float64     `json:"confidence"`
	Properties Properties  `json:"properties"`
}

// NodeIDs returns the ordered node ids of the edge's incidences.
func (e *Edge) NodeIDs() []string {
	ids := make([]string, 0, len(e.Incidences))
	for _, inc := range e.Incidences {
		if inc.NodeID != "" {
			ids = append(ids, inc.NodeID)
		}
	}
	return ids
}

// NodeSet returns the deduplicated node ids of the edge.
func (e *Edge) NodeSet() map[string]bool {
	set := make(map[string]bool, len(e.Incidences))
	for _, inc := range e.Incidences {
		if inc.NodeID != "" {
			set[inc.NodeID] = true
		}
	}
	return set
}

// EdgeRefs returns the ids of edges this edge references.
func (e *Edge) EdgeRefs() []string {
	refs := make([]string, 0)
	for _, inc := range e.Incidences {
		if inc.EdgeRefID != "" {
			refs = append(refs, inc.EdgeRefID)
		}
	}
	return refs
}

// HeadNodes returns node ids tagged as head (receivers).
func (e *Edge) HeadNodes() []string {
	var ids []string
	for _, inc := range e.Incidences {
		if inc.Direction == DirectionHead && inc.NodeID != "" {
			ids = append(ids, inc.NodeID)
		}
	}
	return ids
}

// TailNodes returns node ids tagged as tail (senders).
func (e *Edge) TailNodes() []string {
	var ids []string
	for _, inc := range e.Incidences {
		if inc.Direction == DirectionTail && inc.NodeID != "" {
			ids = append(ids, inc.NodeID)
		}
	}
	return ids
}

// IsDirected reports whether any incidence carries a direction tag.
func (e *Edge) IsDirected() bool {
	for _, inc := range e.Incidences {
		if inc.Direction != "" {
			return true
		}
	}
	return false
}

func (e *Edge) validate() error {
	if e.ID == "" {
		return apperrors.New(apperrors.CodeValidation, "edge id must be a non-empty string")
	}
	if e.Type == "" {
		return apperrors.New(apperrors.CodeValidation, "edge type must be a non-empty string")
	}
	if e.Confidence < 0.0 || e.Confidence > 1.0 {
		return apperrors.Newf(apperrors.CodeValidation, "edge confidence must be between 0.0 and 1.0, got %v", e.Confidence)
	}
	seen := make(map[string]bool, len(e.Incidences))
	for _, inc := range e.Incidences {
		if err := inc.validate(); err != nil {
			return apperrors.AddContext(err, apperrors.CtxEdgeID, e.ID)
		}
		if inc.NodeID != "" {
			if seen[inc.NodeID] {
				return apperrors.Newf(apperrors.CodeValidation, "edge %q lists node %q more than once", e.ID, inc.NodeID)
			}
			seen[inc.NodeID] = true
		}
	}
	return nil
}

// Stats summarizes a single hypergraph.
type Stats struct {
	NodeCount   int            `json:"node_count"`
	EdgeCount   int            `json:"edge_count"`
	NodesByType map[string]int `json:"nodes_by_type"`
	EdgesByType map[string]int `json:"edges_by_type"`
}

// SourceSummary aggregates provenance information for a single source.
type SourceSummary struct {
	Source        string  `json:"source"`
	EdgeCount     int     `json:"edge_count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

func (s SourceSummary) String() string {
	return fmt.Sprintf("%s: %d edges, avg confidence %.4f", s.Source, s.EdgeCount, s.AvgConfidence)
}
