package hypergraph

import (
	"strings"
	"testing"
)

func TestValidateCleanGraph(t *testing.T) {
	c := seedCore(t)

	report := c.Validate()
	if !report.Valid {
		t.Fatalf("expected valid graph, got errors: %v", report.Errors)
	}
	if len(report.OrphanedEdges) != 0 {
		t.Fatalf("expected no orphaned edges, got %v", report.OrphanedEdges)
	}
}

func TestValidateReportsDanglingNode(t *testing.T) {
	c := seedCore(t)

	// Plain delete leaves e1 and e2 with dangling incidences to b.
	if !c.DeleteNode("b") {
		t.Fatal("expected delete to succeed")
	}

	report := c.Validate()
	if report.Valid {
		t.Fatal("expected invalid report")
	}
	if len(report.OrphanedEdges) != 2 {
		t.Fatalf("expected 2 orphaned edges, got %v", report.OrphanedEdges)
	}
}

func TestValidateReportsIsolatedNode(t *testing.T) {
	c := NewCore()
	if err := c.AddNode(Node{ID: "lonely", Type: "person"}); err != nil {
		t.Fatalf("add node: %v", err)
	}

	report := c.Validate()
	if !report.Valid {
		t.Fatalf("isolated nodes are a warning, not an error: %v", report.Errors)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "lonely") {
		t.Fatalf("expected isolated-node warning, got %v", report.Warnings)
	}
}

func TestValidateReportsConfidenceOutOfBounds(t *testing.T) {
	c := seedCore(t)

	// Corrupt an edge behind the validation in AddEdge.
	c.mu.Lock()
	c.edges["e1"].Confidence = 1.7
	c.mu.Unlock()

	report := c.Validate()
	if report.Valid {
		t.Fatal("expected invalid report")
	}
	found := false
	for _, msg := range report.Errors {
		if strings.Contains(msg, "confidence") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a confidence error, got %v", report.Errors)
	}
}

func TestValidateReportsStaleVertexSetEntry(t *testing.T) {
	c := seedCore(t)

	// Plant an index entry whose digest no longer matches the edge.
	c.mu.Lock()
	c.edgesByVertexSet["deadbeef"] = map[string]bool{"e1": true}
	c.mu.Unlock()

	report := c.Validate()
	if report.Valid {
		t.Fatal("expected invalid report")
	}
	found := false
	for _, msg := range report.Errors {
		if strings.Contains(msg, "stale") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a stale-entry error, got %v", report.Errors)
	}
}
