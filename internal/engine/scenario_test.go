package engine

import (
	"context"
	"testing"
)

// Mirrors a clinical ingestion scenario: one 5-ary treatment edge and
// the lookups a consumer would run against it.
func TestTreatmentScenario(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	seed := map[string]string{
		"dr_smith":       "doctor",
		"patient_123":    "patient",
		"aspirin":        "medication",
		"headache":       "condition",
		"mercy_hospital": "hospital",
	}
	for id, nodeType := range seed {
		if _, err := e.Node(ctx, id, NodeOptions{Type: nodeType}); err != nil {
			t.Fatalf("node %s: %v", id, err)
		}
	}

	members := []string{"dr_smith", "patient_123", "aspirin", "headache", "mercy_hospital"}
	edge, err := e.Edge(ctx, members, EdgeOptions{
		Type:       "treatment",
		Source:     "clinical_records",
		Confidence: ptr(0.95),
	})
	if err != nil {
		t.Fatalf("edge: %v", err)
	}

	containing := e.Edges(EdgeFilter{Containing: []string{"patient_123"}})
	if len(containing) != 1 || containing[0].ID != edge.ID {
		t.Fatalf("expected exactly the treatment edge, got %v", containing)
	}

	// Any ordering of the same five ids resolves to the same edge.
	shuffled := []string{"mercy_hospital", "aspirin", "dr_smith", "headache", "patient_123"}
	byVertexSet := e.EdgesByVertexSet(shuffled)
	if len(byVertexSet) != 1 || byVertexSet[0].ID != edge.ID {
		t.Fatalf("expected vertex-set lookup to find the edge, got %v", byVertexSet)
	}

	paths := e.Paths("dr_smith", "mercy_hospital", 5, nil)
	if len(paths) == 0 {
		t.Fatal("expected at least one path")
	}
	if got := len(paths[0]) - 1; got > 2 {
		t.Fatalf("expected a path of at most 2 hops, got %d", got)
	}

	if got := e.EdgeCardinality(edge.ID); got != 5 {
		t.Fatalf("expected cardinality 5, got %d", got)
	}
}
