package edges

import (
	"context"

	"github.com/gobwas/glob"

	"hyperbase/internal/engine"
	"hyperbase/internal/hypergraph"
	"hyperbase/internal/mcp/adapters"
	"hyperbase/internal/mcp/contracts"
)

func HandleCreateEdge(ctx context.Context, a *adapters.Adapter, in contracts.CreateEdgeInput) (contracts.CreateEdgeOutput, error) {
	edge, err := a.Engine().Edge(ctx, in.Nodes, engine.EdgeOptions{
		Type:       in.Type,
		Directed:   in.Directed,
		Source:     in.Source,
		Confidence: in.Confidence,
		Properties: in.Properties,
		ID:         in.ID,
	})
	if err != nil {
		return contracts.CreateEdgeOutput{}, adapters.ToolErrorFrom(err)
	}
	return contracts.CreateEdgeOutput{Edge: adapters.EdgePayload(edge)}, nil
}

// HandleBatchCreateEdges creates every edge inside one batched write so
// the store is flushed once, not per edge.
func HandleBatchCreateEdges(ctx context.Context, a *adapters.Adapter, in contracts.BatchCreateEdgesInput) (contracts.BatchCreateEdgesOutput, error) {
	eng := a.Engine()
	created := make([]contracts.EdgePayload, 0, len(in.Edges))

	err := eng.Batch(ctx, func() error {
		for _, spec := range in.Edges {
			edge, err := eng.Edge(ctx, spec.Nodes, engine.EdgeOptions{
				Type:       spec.Type,
				Directed:   spec.Directed,
				Source:     spec.Source,
				Confidence: spec.Confidence,
				Properties: spec.Properties,
				ID:         spec.ID,
			})
			if err != nil {
				return err
			}
			created = append(created, adapters.EdgePayload(edge))
		}
		return nil
	})
	if err != nil {
		return contracts.BatchCreateEdgesOutput{}, adapters.ToolErrorFrom(err)
	}
	return contracts.BatchCreateEdgesOutput{Edges: created, Created: len(created)}, nil
}

func HandleGetEdge(ctx context.Context, a *adapters.Adapter, in contracts.GetEdgeInput) (contracts.GetEdgeOutput, error) {
	edge, ok := a.Engine().GetEdge(in.ID)
	if !ok {
		return contracts.GetEdgeOutput{Found: false}, nil
	}
	return contracts.GetEdgeOutput{Edge: adapters.EdgePayload(edge), Found: true}, nil
}

func HandleSearchEdges(ctx context.Context, a *adapters.Adapter, in contracts.SearchEdgesInput) (contracts.SearchEdgesOutput, error) {
	candidates := a.Engine().Edges(engine.EdgeFilter{
		Containing:    in.Containing,
		MatchAll:      in.MatchAll,
		Type:          in.Type,
		Source:        in.Source,
		MinConfidence: in.MinConfidence,
	})

	var pattern glob.Glob
	if in.TypePattern != "" {
		compiled, err := glob.Compile(in.TypePattern)
		if err != nil {
			return contracts.SearchEdgesOutput{}, contracts.ToolError{
				Code:    contracts.ErrorInvalidArgument,
				Message: "invalid type_pattern",
			}
		}
		pattern = compiled
	}

	var queryProps hypergraph.Properties
	if len(in.Properties) > 0 {
		normalized, err := hypergraph.NormalizeProperties(in.Properties)
		if err != nil {
			return contracts.SearchEdgesOutput{}, adapters.ToolErrorFrom(err)
		}
		queryProps = normalized
	}

	out := contracts.SearchEdgesOutput{Edges: []contracts.EdgePayload{}}
	for _, edge := range candidates {
		if pattern != nil && !pattern.Match(edge.Type) {
			continue
		}
		if queryProps != nil && !propertiesMatch(edge.Properties, queryProps) {
			continue
		}
		out.Total++
		if in.Limit > 0 && len(out.Edges) >= in.Limit {
			continue
		}
		out.Edges = append(out.Edges, adapters.EdgePayload(edge))
	}
	return out, nil
}

func HandleUpsertEdge(ctx context.Context, a *adapters.Adapter, in contracts.UpsertEdgeInput) (contracts.UpsertEdgeOutput, error) {
	edge, err := a.Engine().UpsertEdgeByVertexSet(ctx, in.Nodes, in.Type, in.Properties, engine.EdgeOptions{
		Source:     in.Source,
		Confidence: in.Confidence,
	}, nil)
	if err != nil {
		return contracts.UpsertEdgeOutput{}, adapters.ToolErrorFrom(err)
	}
	return contracts.UpsertEdgeOutput{Edge: adapters.EdgePayload(edge)}, nil
}

func HandleDeleteEdge(ctx context.Context, a *adapters.Adapter, in contracts.DeleteEdgeInput) (contracts.DeleteEdgeOutput, error) {
	deleted, err := a.Engine().DeleteEdge(ctx, in.ID)
	if err != nil {
		return contracts.DeleteEdgeOutput{}, adapters.ToolErrorFrom(err)
	}
	return contracts.DeleteEdgeOutput{Deleted: deleted}, nil
}

func HandleLookupEdgesByNodes(ctx context.Context, a *adapters.Adapter, in contracts.LookupEdgesByNodesInput) (contracts.LookupEdgesByNodesOutput, error) {
	matches := a.Engine().EdgesByVertexSet(in.Nodes)

	out := contracts.LookupEdgesByNodesOutput{Edges: []contracts.EdgePayload{}}
	for _, edge := range matches {
		if in.Type != "" && edge.Type != in.Type {
			continue
		}
		out.Edges = append(out.Edges, adapters.EdgePayload(edge))
	}
	out.Found = len(out.Edges) > 0
	return out, nil
}

func propertiesMatch(props, query hypergraph.Properties) bool {
	for key, want := range query {
		got, ok := props[key]
		if !ok || !hypergraph.ValueEqual(got, want) {
			return false
		}
	}
	return true
}
