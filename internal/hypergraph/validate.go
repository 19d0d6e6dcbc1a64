package hypergraph

import (
	"fmt"
	"sort"
)

// Report is the outcome of a consistency sweep. Errors are integrity
// violations (dangling references, index drift); warnings flag
// suspicious but legal states. A graph with only warnings is valid.
type Report struct {
	Valid         bool     `json:"valid"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	OrphanedEdges []string `json:"orphaned_edges"`
}

// Validate sweeps the graph for dangling incidences and index drift.
// It never mutates state and never fails; callers decide what to do
// with an invalid report.
func (c *Core) Validate() Report {
	c.mu.RLock()
	defer c.mu.RUnlock()

	report := Report{
		Errors:        []string{},
		Warnings:      []string{},
		OrphanedEdges: []string{},
	}
	orphaned := make(map[string]bool)

	for _, edgeID := range sortedEdgeIDsLocked(c.edges) {
		edge := c.edges[edgeID]
		var missingNodes, missingRefs []string
		seenNodes := make(map[string]bool)
		for _, inc := range edge.Incidences {
			if inc.NodeID != "" {
				if seenNodes[inc.NodeID] {
					report.Errors = append(report.Errors,
						fmt.Sprintf("edge %q lists node %q more than once", edgeID, inc.NodeID))
				}
				seenNodes[inc.NodeID] = true
				if _, ok := c.nodes[inc.NodeID]; !ok {
					missingNodes = append(missingNodes, inc.NodeID)
				}
			}
			if inc.EdgeRefID != "" {
				if _, ok := c.edges[inc.EdgeRefID]; !ok {
					missingRefs = append(missingRefs, inc.EdgeRefID)
				}
			}
		}
		if edge.Confidence < 0 || edge.Confidence > 1 {
			report.Errors = append(report.Errors,
				fmt.Sprintf("edge %q has confidence %v outside [0,1]", edgeID, edge.Confidence))
		}
		if len(missingNodes) > 0 {
			orphaned[edgeID] = true
			report.Errors = append(report.Errors,
				fmt.Sprintf("edge %q references non-existent nodes: %v", edgeID, missingNodes))
		}
		if len(missingRefs) > 0 {
			orphaned[edgeID] = true
			report.Errors = append(report.Errors,
				fmt.Sprintf("edge %q references non-existent edges: %v", edgeID, missingRefs))
		}
	}

	for _, nodeID := range sortedIndexKeys(c.nodeToEdges) {
		if _, ok := c.nodes[nodeID]; !ok {
			report.Errors = append(report.Errors,
				fmt.Sprintf("node-to-edges index contains non-existent node %q", nodeID))
		}
		for _, edgeID := range sortedKeys(c.nodeToEdges[nodeID]) {
			if _, ok := c.edges[edgeID]; !ok {
				report.Errors = append(report.Errors,
					fmt.Sprintf("node-to-edges index for %q references non-existent edge %q", nodeID, edgeID))
			}
		}
	}

	for _, refID := range sortedIndexKeys(c.edgeToEdges) {
		if _, ok := c.edges[refID]; !ok {
			report.Errors = append(report.Errors,
				fmt.Sprintf("edge-to-edges index contains non-existent referenced edge %q", refID))
		}
		for _, edgeID := range sortedKeys(c.edgeToEdges[refID]) {
			if _, ok := c.edges[edgeID]; !ok {
				report.Errors = append(report.Errors,
					fmt.Sprintf("edge-to-edges index for %q references non-existent edge %q", refID, edgeID))
			}
		}
	}

	for _, nodeType := range sortedIndexKeys(c.nodesByType) {
		for _, nodeID := range sortedKeys(c.nodesByType[nodeType]) {
			if _, ok := c.nodes[nodeID]; !ok {
				report.Errors = append(report.Errors,
					fmt.Sprintf("nodes-by-type index for %q contains non-existent node %q", nodeType, nodeID))
			}
		}
	}
	for _, edgeType := range sortedIndexKeys(c.edgesByType) {
		for _, edgeID := range sortedKeys(c.edgesByType[edgeType]) {
			if _, ok := c.edges[edgeID]; !ok {
				report.Errors = append(report.Errors,
					fmt.Sprintf("edges-by-type index for %q contains non-existent edge %q", edgeType, edgeID))
			}
		}
	}

	// Every edge with a non-empty vertex set must be reachable through
	// the digest index.
	for _, edgeID := range sortedEdgeIDsLocked(c.edges) {
		set := c.edges[edgeID].NodeSet()
		if len(set) == 0 {
			continue
		}
		if !c.edgesByVertexSet[VertexSetDigest(set)][edgeID] {
			report.Errors = append(report.Errors,
				fmt.Sprintf("vertex-set index is missing edge %q", edgeID))
		}
	}
	for _, digest := range sortedIndexKeys(c.edgesByVertexSet) {
		for _, edgeID := range sortedKeys(c.edgesByVertexSet[digest]) {
			edge, ok := c.edges[edgeID]
			if !ok {
				report.Errors = append(report.Errors,
					fmt.Sprintf("vertex-set index contains non-existent edge %q", edgeID))
				continue
			}
			if VertexSetDigest(edge.NodeSet()) != digest {
				report.Errors = append(report.Errors,
					fmt.Sprintf("vertex-set index entry for edge %q is stale", edgeID))
			}
		}
	}

	for _, nodeID := range sortedNodeIDsLocked(c.nodes) {
		if len(c.nodeToEdges[nodeID]) == 0 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("node %q has no incident edges", nodeID))
		}
	}

	report.OrphanedEdges = sortedKeys(orphaned)
	report.Valid = len(report.Errors) == 0
	return report
}

func sortedIndexKeys(index map[string]map[string]bool) []string {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
