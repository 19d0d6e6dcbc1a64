package traversal

import (
	"context"
	"testing"

	"hyperbase/internal/engine"
	"hyperbase/internal/hypergraph"
	"hyperbase/internal/mcp/adapters"
	"hyperbase/internal/mcp/contracts"
)

// chainAdapter builds a -[e1]- b -[e2]- c -[e3]- d.
func chainAdapter(t *testing.T) *adapters.Adapter {
	t.Helper()
	eng, err := engine.Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	pairs := [][]string{{"a", "b"}, {"b", "c"}, {"c", "d"}}
	for i, pair := range pairs {
		if _, err := eng.Edge(ctx, pair, engine.EdgeOptions{
			Type: "link",
			ID:   []string{"e1", "e2", "e3"}[i],
		}); err != nil {
			t.Fatalf("seed edge: %v", err)
		}
	}
	return adapters.NewAdapter(eng)
}

func TestHandleGetNeighbors(t *testing.T) {
	ctx := context.Background()
	a := chainAdapter(t)

	out, err := HandleGetNeighbors(ctx, a, contracts.GetNeighborsInput{NodeID: "b"})
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	if len(out.Neighbors) != 2 {
		t.Fatalf("expected neighbors a and c, got %+v", out.Neighbors)
	}
	if out.Neighbors[0].ID != "a" || out.Neighbors[1].ID != "c" {
		t.Fatalf("expected sorted neighbors [a c], got %+v", out.Neighbors)
	}
}

func TestHandleGetNeighborsTypeFilter(t *testing.T) {
	ctx := context.Background()
	a := chainAdapter(t)

	out, err := HandleGetNeighbors(ctx, a, contracts.GetNeighborsInput{
		NodeID:    "b",
		EdgeTypes: []string{"other"},
	})
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	if len(out.Neighbors) != 0 {
		t.Fatalf("expected no neighbors through type other, got %+v", out.Neighbors)
	}
}

func TestHandleFindPaths(t *testing.T) {
	ctx := context.Background()
	a := chainAdapter(t)

	out, err := HandleFindPaths(ctx, a, contracts.FindPathsInput{
		StartNodes: []string{"a"},
		EndNodes:   []string{"d"},
	})
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("expected 1 path, got %d", out.Count)
	}
	path := out.Paths[0]
	if len(path) != 3 || path[0].ID != "e1" || path[2].ID != "e3" {
		t.Fatalf("expected path e1-e2-e3, got %+v", path)
	}
}

func TestHandleFindPathsHopBound(t *testing.T) {
	ctx := context.Background()
	a := chainAdapter(t)

	out, err := HandleFindPaths(ctx, a, contracts.FindPathsInput{
		StartNodes: []string{"a"},
		EndNodes:   []string{"d"},
		MaxHops:    2,
	})
	if err != nil {
		t.Fatalf("find paths: %v", err)
	}
	if out.Count != 0 {
		t.Fatalf("expected no path within 2 hops, got %d", out.Count)
	}
}

func TestHandleFindPathsInvalidMode(t *testing.T) {
	ctx := context.Background()
	a := chainAdapter(t)

	_, err := HandleFindPaths(ctx, a, contracts.FindPathsInput{
		StartNodes:    []string{"a"},
		EndNodes:      []string{"d"},
		DirectionMode: "sideways",
	})
	if err == nil {
		t.Fatal("expected error for invalid direction mode")
	}
	toolErr, ok := err.(contracts.ToolError)
	if !ok {
		t.Fatalf("expected ToolError, got %T", err)
	}
	if toolErr.Code != contracts.ErrorInvalidArgument {
		t.Fatalf("expected invalid_argument, got %s", toolErr.Code)
	}
}

func TestHandleFindPathsDirected(t *testing.T) {
	eng, err := engine.Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if _, err := eng.Edge(ctx, []string{"a", "b"}, engine.EdgeOptions{Type: "flow", ID: "f1", Directed: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := eng.Edge(ctx, []string{"b", "c"}, engine.EdgeOptions{Type: "flow", ID: "f2", Directed: true}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a := adapters.NewAdapter(eng)

	forward, err := HandleFindPaths(ctx, a, contracts.FindPathsInput{
		StartNodes:    []string{"a"},
		EndNodes:      []string{"c"},
		DirectionMode: hypergraph.DirectionModeForward,
	})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if forward.Count != 1 {
		t.Fatalf("expected forward path, got %d", forward.Count)
	}

	backward, err := HandleFindPaths(ctx, a, contracts.FindPathsInput{
		StartNodes:    []string{"a"},
		EndNodes:      []string{"c"},
		DirectionMode: hypergraph.DirectionModeBackward,
	})
	if err != nil {
		t.Fatalf("backward: %v", err)
	}
	if backward.Count != 0 {
		t.Fatalf("expected no path against the arrows, got %d", backward.Count)
	}
}
