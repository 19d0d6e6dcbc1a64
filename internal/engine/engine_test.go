package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"

	apperrors "hyperbase/internal/core/errors"
	"hyperbase/internal/hypergraph"
)

func ptr(f float64) *float64 { return &f }

func openMemory(t *testing.T) *Engine {
	t.Helper()
	e, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return e
}

func TestOpenRejectsCloudURLs(t *testing.T) {
	for _, path := range []string{"http://example.com/db", "https://example.com/db"} {
		if _, err := Open(path); !apperrors.IsCode(err, apperrors.CodeNotSupported) {
			t.Fatalf("Open(%s) error = %v, want NOT_SUPPORTED", path, err)
		}
	}
}

func TestEdgeAutoCreatesNodes(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	edge, err := e.Edge(ctx, []string{"a", "b", "c"}, EdgeOptions{Type: "meeting"})
	if err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if edge.ID == "" {
		t.Fatal("edge id not generated")
	}
	for _, id := range []string{"a", "b", "c"} {
		node, ok := e.GetNode(id)
		if !ok || node.Type != "unknown" {
			t.Fatalf("auto-created node %s = %+v", id, node)
		}
	}
	if edge.Source != "unknown" || edge.Confidence != 1.0 {
		t.Fatalf("default provenance = %s/%v", edge.Source, edge.Confidence)
	}
}

func TestEdgeValidation(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	if _, err := e.Edge(ctx, []string{"a"}, EdgeOptions{Type: "x"}); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("single node error = %v", err)
	}
	if _, err := e.Edge(ctx, []string{"a", ""}, EdgeOptions{Type: "x"}); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("empty node id error = %v", err)
	}
	if _, err := e.Edge(ctx, []string{"a", "b"}, EdgeOptions{}); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("missing type error = %v", err)
	}
	if _, err := e.Edge(ctx, []string{"a", "a"}, EdgeOptions{Type: "x"}); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("duplicate node error = %v", err)
	}
	if _, err := e.Edge(ctx, []string{"a", "b"}, EdgeOptions{Type: "x", Confidence: ptr(2.0)}); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("confidence error = %v", err)
	}
}

func TestDirectedEdge(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	edge, err := e.Edge(ctx, []string{"t", "mid", "h"}, EdgeOptions{Type: "flow", Directed: true})
	if err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if !edge.IsDirected() {
		t.Fatal("edge not directed")
	}
	if got := edge.TailNodes(); !reflect.DeepEqual(got, []string{"t"}) {
		t.Fatalf("tails = %v", got)
	}
	if got := edge.HeadNodes(); !reflect.DeepEqual(got, []string{"h"}) {
		t.Fatalf("heads = %v", got)
	}
	if edge.Incidences[1].Direction != "" {
		t.Fatalf("middle incidence direction = %q", edge.Incidences[1].Direction)
	}
}

func TestProvenanceResolution(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	e.PushContext("ingest_batch", 0.7)
	inherited, err := e.Edge(ctx, []string{"a", "b"}, EdgeOptions{Type: "rel"})
	if err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if inherited.Source != "ingest_batch" || inherited.Confidence != 0.7 {
		t.Fatalf("inherited provenance = %s/%v", inherited.Source, inherited.Confidence)
	}

	// Explicit values beat the frame.
	explicit, err := e.Edge(ctx, []string{"a", "c"}, EdgeOptions{Type: "rel", Source: "manual", Confidence: ptr(0.2)})
	if err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if explicit.Source != "manual" || explicit.Confidence != 0.2 {
		t.Fatalf("explicit provenance = %s/%v", explicit.Source, explicit.Confidence)
	}

	// Nested frame wins over the outer one.
	e.PushContext("reviewer", 0.99)
	nested, err := e.Edge(ctx, []string{"b", "c"}, EdgeOptions{Type: "rel"})
	if err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if nested.Source != "reviewer" || nested.Confidence != 0.99 {
		t.Fatalf("nested provenance = %s/%v", nested.Source, nested.Confidence)
	}
	e.PopContext()
	e.PopContext()

	after, err := e.Edge(ctx, []string{"a", "d"}, EdgeOptions{Type: "rel"})
	if err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if after.Source != "unknown" || after.Confidence != 1.0 {
		t.Fatalf("post-pop provenance = %s/%v", after.Source, after.Confidence)
	}
}

func TestWithContextRestoresOnError(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	wantErr := apperrors.New(apperrors.CodeInternal, "boom")
	err := e.WithContext("scoped", 0.5, func() error { return wantErr })
	if err != wantErr {
		t.Fatalf("WithContext error = %v", err)
	}
	edge, err := e.Edge(ctx, []string{"a", "b"}, EdgeOptions{Type: "rel"})
	if err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if edge.Source != "unknown" {
		t.Fatalf("context leaked after error: %s", edge.Source)
	}
}

func TestNodeUpdateMergesProperties(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	if _, err := e.Node(ctx, "n1", NodeOptions{Type: "person", Properties: map[string]any{"name": "ada", "age": 36}}); err != nil {
		t.Fatalf("Node: %v", err)
	}
	updated, err := e.Node(ctx, "n1", NodeOptions{Type: "person", Properties: map[string]any{"age": 37}})
	if err != nil {
		t.Fatalf("Node update: %v", err)
	}
	if updated.Properties["name"] != "ada" {
		t.Fatalf("merge dropped key: %v", updated.Properties)
	}
	if updated.Properties["age"] != 37.0 {
		t.Fatalf("age = %v (int not normalized?)", updated.Properties["age"])
	}
}

func TestEdgesCombinedFilters(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	if _, err := e.Edge(ctx, []string{"p", "q"}, EdgeOptions{Type: "cites", Source: "crawler", Confidence: ptr(0.6)}); err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if _, err := e.Edge(ctx, []string{"p", "r"}, EdgeOptions{Type: "cites", Source: "manual", Confidence: ptr(0.95)}); err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if _, err := e.Edge(ctx, []string{"q", "r"}, EdgeOptions{Type: "links", Source: "manual"}); err != nil {
		t.Fatalf("Edge: %v", err)
	}

	got := e.Edges(EdgeFilter{Containing: []string{"p"}, Type: "cites", Source: "manual"})
	if len(got) != 1 || got[0].Source != "manual" {
		t.Fatalf("combined filter = %v", got)
	}
	confident := e.Edges(EdgeFilter{MinConfidence: ptr(0.9)})
	if len(confident) != 2 {
		t.Fatalf("min confidence matched %d edges", len(confident))
	}
	all := e.Edges(EdgeFilter{})
	if len(all) != 3 {
		t.Fatalf("unfiltered = %d edges", len(all))
	}
}

func TestNamespaceViewsShareStorageButIsolateData(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	if _, err := e.Edge(ctx, []string{"a", "b"}, EdgeOptions{Type: "rel"}); err != nil {
		t.Fatalf("Edge: %v", err)
	}
	other := e.Namespace("science")
	if s := other.Stats(); s.EdgeCount != 0 {
		t.Fatalf("science namespace not empty: %+v", s)
	}
	if _, err := other.Edge(ctx, []string{"x", "y"}, EdgeOptions{Type: "rel"}); err != nil {
		t.Fatalf("Edge in view: %v", err)
	}
	if s := e.Stats(); s.EdgeCount != 1 {
		t.Fatalf("default namespace affected: %+v", s)
	}

	namespaces, err := e.Namespaces(ctx)
	if err != nil {
		t.Fatalf("Namespaces: %v", err)
	}
	if !reflect.DeepEqual(namespaces, []string{"default", "science"}) {
		t.Fatalf("namespaces = %v", namespaces)
	}

	// Same name resolves to the same underlying store.
	again := e.Namespace("science")
	if s := again.Stats(); s.EdgeCount != 1 {
		t.Fatalf("view does not share state: %+v", s)
	}
}

func TestNamespaceCopyRenameClear(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	if _, err := e.Edge(ctx, []string{"a", "b"}, EdgeOptions{Type: "rel"}); err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if err := e.CopyNamespace(ctx, "default", "backup"); err != nil {
		t.Fatalf("CopyNamespace: %v", err)
	}
	if s := e.Namespace("backup").Stats(); s.EdgeCount != 1 {
		t.Fatalf("copy stats = %+v", s)
	}
	// The copy is independent.
	if _, err := e.Edge(ctx, []string{"c", "d"}, EdgeOptions{Type: "rel"}); err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if s := e.Namespace("backup").Stats(); s.EdgeCount != 1 {
		t.Fatalf("copy tracked source mutations: %+v", s)
	}

	if err := e.RenameNamespace(ctx, "backup", "archive"); err != nil {
		t.Fatalf("RenameNamespace: %v", err)
	}
	if e.HasNamespace(ctx, "backup") {
		t.Fatal("renamed namespace still present")
	}
	if s := e.Namespace("archive").Stats(); s.EdgeCount != 1 {
		t.Fatalf("archive stats = %+v", s)
	}

	if err := e.ClearNamespace(ctx, "archive"); err != nil {
		t.Fatalf("ClearNamespace: %v", err)
	}
	if s := e.Namespace("archive").Stats(); s.EdgeCount != 0 {
		t.Fatalf("clear left data: %+v", s)
	}

	if err := e.CopyNamespace(ctx, "missing", "anywhere"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("copy of missing namespace = %v", err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")

	e, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := e.Edge(ctx, []string{"a", "b"}, EdgeOptions{Type: "rel", Source: "seed", Confidence: ptr(0.8)}); err != nil {
		t.Fatalf("Edge: %v", err)
	}
	sci := e.Namespace("science")
	if _, err := sci.Edge(ctx, []string{"x", "y"}, EdgeOptions{Type: "rel"}); err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if s := reopened.Stats(); s.NodeCount != 2 || s.EdgeCount != 1 {
		t.Fatalf("default stats after reopen = %+v", s)
	}
	edges := reopened.Edges(EdgeFilter{Source: "seed"})
	if len(edges) != 1 || edges[0].Confidence != 0.8 {
		t.Fatalf("provenance lost: %v", edges)
	}
	if s := reopened.Namespace("science").Stats(); s.EdgeCount != 1 {
		t.Fatalf("science stats after reopen = %+v", s)
	}
}

func TestBatchFlushesOnceAtOutermostExit(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")
	e, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	err = e.Batch(ctx, func() error {
		return e.Batch(ctx, func() error {
			for _, pair := range [][]string{{"a", "b"}, {"b", "c"}, {"c", "d"}} {
				if _, err := e.Edge(ctx, pair, EdgeOptions{Type: "rel"}); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}

	check, err := Open(path)
	if err != nil {
		t.Fatalf("verify open: %v", err)
	}
	defer check.Close()
	if s := check.Stats(); s.EdgeCount != 3 {
		t.Fatalf("persisted edges = %d", s.EdgeCount)
	}
}

func TestBatchPersistsPartialWorkOnError(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")
	e, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	wantErr := apperrors.New(apperrors.CodeInternal, "mid-batch failure")
	err = e.Batch(ctx, func() error {
		if _, err := e.Edge(ctx, []string{"a", "b"}, EdgeOptions{Type: "rel"}); err != nil {
			return err
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("Batch error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// No rollback: the partial write is on disk.
	check, err := Open(path)
	if err != nil {
		t.Fatalf("verify open: %v", err)
	}
	defer check.Close()
	if s := check.Stats(); s.EdgeCount != 1 {
		t.Fatalf("persisted edges = %d", s.EdgeCount)
	}
}

func TestUpsertEdgeByVertexSetThroughEngine(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)

	first, err := e.UpsertEdgeByVertexSet(ctx, []string{"a", "b"}, "rel", map[string]any{"weight": 1}, EdgeOptions{}, nil)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := e.UpsertEdgeByVertexSet(ctx, []string{"b", "a"}, "rel", map[string]any{"weight": 2}, EdgeOptions{}, nil)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("upsert minted a second edge: %s vs %s", first.ID, second.ID)
	}
	if second.Properties["weight"] != 2.0 {
		t.Fatalf("properties = %v", second.Properties)
	}
	if got := e.Edges(EdgeFilter{}); len(got) != 1 {
		t.Fatalf("edge count = %d", len(got))
	}
}

func TestHIFRoundTripThroughEngine(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)
	if _, err := e.Edge(ctx, []string{"a", "b"}, EdgeOptions{Type: "rel", Source: "seed"}); err != nil {
		t.Fatalf("Edge: %v", err)
	}

	doc := e.ToHIF()
	other := openMemory(t)
	if err := other.ImportHIF(ctx, doc, true); err != nil {
		t.Fatalf("ImportHIF: %v", err)
	}
	if s := other.Stats(); s.NodeCount != 2 || s.EdgeCount != 1 {
		t.Fatalf("imported stats = %+v", s)
	}
	edges := other.Edges(EdgeFilter{Source: "seed"})
	if len(edges) != 1 {
		t.Fatalf("provenance lost on import: %v", edges)
	}
}

func TestInterchangeRoundTripThroughEngine(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)
	created, err := e.Edge(ctx, []string{"a", "b", "c"}, EdgeOptions{
		Type:       "treats",
		Directed:   true,
		Source:     "seed",
		Confidence: ptr(0.9),
	})
	if err != nil {
		t.Fatalf("Edge: %v", err)
	}

	var buf bytes.Buffer
	if err := e.ExportJSON(&buf); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	nodes := doc["nodes"].([]any)
	if got := nodes[0].(map[string]any); got["id"] != "a" || got["type"] != "unknown" {
		t.Fatalf("node record = %v", got)
	}
	edgeRec := doc["edges"].([]any)[0].(map[string]any)
	incs := edgeRec["incidences"].([]any)
	if len(incs) != 3 || incs[0].(map[string]any)["node_id"] != "a" {
		t.Fatalf("incidences = %v", incs)
	}

	other := openMemory(t)
	if err := other.ImportJSON(ctx, &buf); err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	got, ok := other.GetEdge(created.ID)
	if !ok {
		t.Fatalf("edge %s missing after import", created.ID)
	}
	if got.Source != "seed" || got.Confidence != 0.9 || !got.IsDirected() {
		t.Fatalf("edge drifted on round trip: %+v", got)
	}
	if !reflect.DeepEqual(got.NodeIDs(), []string{"a", "b", "c"}) {
		t.Fatalf("incidence order lost: %v", got.NodeIDs())
	}
}

func TestTraversalThroughEngine(t *testing.T) {
	ctx := context.Background()
	e := openMemory(t)
	if _, err := e.Edge(ctx, []string{"a", "b"}, EdgeOptions{Type: "rel"}); err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if _, err := e.Edge(ctx, []string{"b", "c"}, EdgeOptions{Type: "rel"}); err != nil {
		t.Fatalf("Edge: %v", err)
	}

	neighbors := e.Neighbors("b", nil)
	if len(neighbors) != 2 {
		t.Fatalf("neighbors = %v", neighbors)
	}
	paths := e.Paths("a", "c", 0, nil)
	if !reflect.DeepEqual(paths, [][]string{{"a", "b", "c"}}) {
		t.Fatalf("paths = %v", paths)
	}
	edgePaths, err := e.FindPaths([]string{"a"}, []string{"c"}, hypergraph.PathOptions{})
	if err != nil {
		t.Fatalf("FindPaths: %v", err)
	}
	if len(edgePaths) != 1 || len(edgePaths[0]) != 2 {
		t.Fatalf("edge paths = %v", edgePaths)
	}
	if d := e.NodeDegree("b", nil); d != 2 {
		t.Fatalf("degree = %d", d)
	}
}
