package hypergraph

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestInterchangeRoundTrip(t *testing.T) {
	c := NewCore()
	if err := c.AddNode(Node{ID: "a", Type: "person", Properties: Properties{"name": "ada"}}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := c.AddNode(Node{ID: "b", Type: "org"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	edge := Edge{
		ID:   "e1",
		Type: "works_at",
		Incidences: []Incidence{
			{NodeID: "a", Direction: DirectionTail, Properties: Properties{"role": "engineer"}},
			{NodeID: "b", Direction: DirectionHead},
		},
		Source:     "hr_system",
		Confidence: 0.8,
		Properties: Properties{"since": 2021.0},
	}
	if err := c.AddEdge(edge); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	meta := Edge{
		ID:         "m1",
		Type:       "annotates",
		Incidences: []Incidence{{NodeID: "a"}, {EdgeRefID: "e1"}},
		Confidence: 1.0,
	}
	if err := c.AddEdge(meta); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	restored, err := FromInterchange(c.ToInterchange())
	if err != nil {
		t.Fatalf("FromInterchange: %v", err)
	}

	got, ok := restored.GetEdge("e1")
	if !ok {
		t.Fatal("edge e1 missing after round trip")
	}
	if got.Type != "works_at" || got.Source != "hr_system" || got.Confidence != 0.8 {
		t.Fatalf("edge metadata = %+v", got)
	}
	if !got.IsDirected() {
		t.Fatal("directedness lost")
	}
	want := []Incidence{
		{NodeID: "a", Direction: DirectionTail, Properties: Properties{"role": "engineer"}},
		{NodeID: "b", Direction: DirectionHead, Properties: Properties{}},
	}
	if !reflect.DeepEqual(got.Incidences, want) {
		t.Fatalf("incidences = %+v", got.Incidences)
	}

	refEdge, ok := restored.GetEdge("m1")
	if !ok {
		t.Fatal("edge m1 missing after round trip")
	}
	if refEdge.Incidences[1].EdgeRefID != "e1" {
		t.Fatalf("edge-ref incidence lost: %+v", refEdge.Incidences)
	}

	node, _ := restored.GetNode("a")
	if node.Type != "person" || node.Properties["name"] != "ada" {
		t.Fatalf("node = %+v", node)
	}
}

func TestInterchangeWireShape(t *testing.T) {
	c := seedCore(t)
	raw, err := json.Marshal(c.ToInterchange())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	nodes, ok := doc["nodes"].([]any)
	if !ok || len(nodes) == 0 {
		t.Fatalf("nodes = %v", doc["nodes"])
	}
	node := nodes[0].(map[string]any)
	for _, key := range []string{"id", "type", "properties"} {
		if _, ok := node[key]; !ok {
			t.Fatalf("node record missing %q: %v", key, node)
		}
	}

	edges, ok := doc["edges"].([]any)
	if !ok || len(edges) == 0 {
		t.Fatalf("edges = %v", doc["edges"])
	}
	edge := edges[0].(map[string]any)
	for _, key := range []string{"id", "type", "incidences", "source", "confidence", "properties"} {
		if _, ok := edge[key]; !ok {
			t.Fatalf("edge record missing %q: %v", key, edge)
		}
	}
	incidences := edge["incidences"].([]any)
	inc := incidences[0].(map[string]any)
	if _, ok := inc["node_id"]; !ok {
		t.Fatalf("incidence record missing node_id: %v", inc)
	}

	restored, err := FromInterchange(decodeInterchange(t, raw))
	if err != nil {
		t.Fatalf("FromInterchange: %v", err)
	}
	if restored.Stats().NodeCount != c.Stats().NodeCount || restored.Stats().EdgeCount != c.Stats().EdgeCount {
		t.Fatalf("JSON round trip drifted: %+v vs %+v", restored.Stats(), c.Stats())
	}
}

func TestFromInterchangeRejectsInvalidEdge(t *testing.T) {
	doc := &InterchangeDocument{
		Nodes: []InterchangeNode{{ID: "a", Type: "entity"}, {ID: "b", Type: "entity"}},
		Edges: []InterchangeEdge{{
			ID:         "bad",
			Type:       "link",
			Incidences: []InterchangeIncidence{{NodeID: "a"}, {NodeID: "b"}},
			Confidence: 1.7,
		}},
	}
	if _, err := FromInterchange(doc); err == nil {
		t.Fatal("out-of-range confidence accepted")
	}
}

func decodeInterchange(t *testing.T, raw []byte) *InterchangeDocument {
	t.Helper()
	var doc InterchangeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode interchange: %v", err)
	}
	return &doc
}
