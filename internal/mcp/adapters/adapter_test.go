package adapters

import (
	"errors"
	"testing"

	apperrors "hyperbase/internal/core/errors"
	"hyperbase/internal/hypergraph"
	"hyperbase/internal/mcp/contracts"
)

func TestEdgePayloadCarriesIncidences(t *testing.T) {
	edge := &hypergraph.Edge{
		ID:   "e1",
		Type: "works_at",
		Incidences: []hypergraph.Incidence{
			{NodeID: "a", Direction: hypergraph.DirectionTail, Properties: hypergraph.Properties{"role": "engineer"}},
			{NodeID: "b", Direction: hypergraph.DirectionHead},
			{EdgeRefID: "e0"},
		},
		Source:     "hr_system",
		Confidence: 0.8,
	}

	payload := EdgePayload(edge)
	if len(payload.Incidences) != 3 {
		t.Fatalf("incidences = %+v", payload.Incidences)
	}
	first := payload.Incidences[0]
	if first.NodeID != "a" || first.Direction != hypergraph.DirectionTail {
		t.Fatalf("incidence = %+v", first)
	}
	if first.Properties["role"] != "engineer" {
		t.Fatalf("incidence properties lost: %+v", first)
	}
	if payload.Incidences[2].EdgeRefID != "e0" {
		t.Fatalf("edge ref lost: %+v", payload.Incidences[2])
	}
	if got := payload.Nodes; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("nodes = %v", got)
	}
}

func TestToolErrorFromDomainError(t *testing.T) {
	err := ToolErrorFrom(apperrors.New(apperrors.CodeNotFound, "node missing"))
	var toolErr contracts.ToolError
	if !errors.As(err, &toolErr) || toolErr.Code != contracts.ErrorNotFound {
		t.Fatalf("error = %v", err)
	}

	err = ToolErrorFrom(apperrors.New(apperrors.CodeStorage, "disk gone"))
	if !errors.As(err, &toolErr) || toolErr.Code != contracts.ErrorUnavailable {
		t.Fatalf("error = %v", err)
	}

	if ToolErrorFrom(nil) != nil {
		t.Fatal("nil should pass through")
	}
}
