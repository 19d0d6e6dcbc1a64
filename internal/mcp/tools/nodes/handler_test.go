package nodes

import (
	"context"
	"testing"

	"hyperbase/internal/engine"
	"hyperbase/internal/mcp/adapters"
	"hyperbase/internal/mcp/contracts"
)

func testAdapter(t *testing.T) *adapters.Adapter {
	t.Helper()
	eng, err := engine.Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return adapters.NewAdapter(eng)
}

func TestHandleCreateAndGetNode(t *testing.T) {
	ctx := context.Background()
	a := testAdapter(t)

	created, err := HandleCreateNode(ctx, a, contracts.CreateNodeInput{
		ID:         "alice",
		Type:       "person",
		Properties: map[string]any{"age": 30},
	})
	if err != nil {
		t.Fatalf("create node: %v", err)
	}
	if created.Node.Type != "person" {
		t.Fatalf("expected type person, got %q", created.Node.Type)
	}

	got, err := HandleGetNode(ctx, a, contracts.GetNodeInput{ID: "alice"})
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if !got.Found {
		t.Fatal("expected node to be found")
	}
	if got.Node.Properties["age"] != float64(30) {
		t.Fatalf("expected normalized age 30.0, got %v", got.Node.Properties["age"])
	}
}

func TestHandleGetNodeMissing(t *testing.T) {
	ctx := context.Background()
	a := testAdapter(t)

	got, err := HandleGetNode(ctx, a, contracts.GetNodeInput{ID: "ghost"})
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if got.Found {
		t.Fatal("expected missing node")
	}
}

func TestHandleSearchNodesPattern(t *testing.T) {
	ctx := context.Background()
	a := testAdapter(t)

	seed := map[string]string{
		"alice": "person",
		"bob":   "person",
		"acme":  "company",
	}
	for id, nodeType := range seed {
		if _, err := HandleCreateNode(ctx, a, contracts.CreateNodeInput{ID: id, Type: nodeType}); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	out, err := HandleSearchNodes(ctx, a, contracts.SearchNodesInput{TypePattern: "per*", Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if out.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", out.Total)
	}

	limited, err := HandleSearchNodes(ctx, a, contracts.SearchNodesInput{Type: "person", Limit: 1})
	if err != nil {
		t.Fatalf("search limited: %v", err)
	}
	if len(limited.Nodes) != 1 || limited.Total != 2 {
		t.Fatalf("expected 1 returned of 2 total, got %d of %d", len(limited.Nodes), limited.Total)
	}
}

func TestHandleSearchNodesByProperties(t *testing.T) {
	ctx := context.Background()
	a := testAdapter(t)

	if _, err := HandleCreateNode(ctx, a, contracts.CreateNodeInput{
		ID: "alice", Type: "person", Properties: map[string]any{"city": "berlin"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := HandleCreateNode(ctx, a, contracts.CreateNodeInput{
		ID: "bob", Type: "person", Properties: map[string]any{"city": "paris"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := HandleSearchNodes(ctx, a, contracts.SearchNodesInput{
		Properties: map[string]any{"city": "berlin"},
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if out.Total != 1 || out.Nodes[0].ID != "alice" {
		t.Fatalf("expected only alice, got %+v", out.Nodes)
	}
}

func TestHandleDeleteNodeCascade(t *testing.T) {
	ctx := context.Background()
	a := testAdapter(t)
	eng := a.Engine()

	if _, err := eng.Edge(ctx, []string{"a", "b"}, engine.EdgeOptions{Type: "rel"}); err != nil {
		t.Fatalf("seed edge: %v", err)
	}

	out, err := HandleDeleteNode(ctx, a, contracts.DeleteNodeInput{ID: "a", Cascade: true})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !out.Deleted || out.EdgesDeleted != 1 {
		t.Fatalf("expected node and 1 edge deleted, got %+v", out)
	}
	if len(eng.Edges(engine.EdgeFilter{})) != 0 {
		t.Fatal("expected no edges left")
	}
}
