package traversal

import (
	"context"

	"hyperbase/internal/hypergraph"
	"hyperbase/internal/mcp/adapters"
	"hyperbase/internal/mcp/contracts"
)

func HandleGetNeighbors(ctx context.Context, a *adapters.Adapter, in contracts.GetNeighborsInput) (contracts.GetNeighborsOutput, error) {
	neighbors := a.Engine().Neighbors(in.NodeID, in.EdgeTypes)
	return contracts.GetNeighborsOutput{Neighbors: adapters.NodePayloads(neighbors)}, nil
}

func HandleFindPaths(ctx context.Context, a *adapters.Adapter, in contracts.FindPathsInput) (contracts.FindPathsOutput, error) {
	paths, err := a.Engine().FindPaths(in.StartNodes, in.EndNodes, hypergraph.PathOptions{
		MaxHops:         in.MaxHops,
		MaxPaths:        in.MaxPaths,
		MinIntersection: in.MinIntersection,
		EdgeTypes:       in.EdgeTypes,
		DirectionMode:   in.DirectionMode,
	})
	if err != nil {
		return contracts.FindPathsOutput{}, adapters.ToolErrorFrom(err)
	}

	out := contracts.FindPathsOutput{Paths: make([][]contracts.EdgePayload, 0, len(paths))}
	for _, path := range paths {
		out.Paths = append(out.Paths, adapters.EdgePayloads(path))
	}
	out.Count = len(out.Paths)
	return out, nil
}
