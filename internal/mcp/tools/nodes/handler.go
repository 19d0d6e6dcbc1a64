package nodes

import (
	"context"

	"github.com/gobwas/glob"

	"hyperbase/internal/engine"
	"hyperbase/internal/hypergraph"
	"hyperbase/internal/mcp/adapters"
	"hyperbase/internal/mcp/contracts"
)

func HandleCreateNode(ctx context.Context, a *adapters.Adapter, in contracts.CreateNodeInput) (contracts.CreateNodeOutput, error) {
	node, err := a.Engine().Node(ctx, in.ID, engine.NodeOptions{
		Type:       in.Type,
		Properties: in.Properties,
	})
	if err != nil {
		return contracts.CreateNodeOutput{}, adapters.ToolErrorFrom(err)
	}
	return contracts.CreateNodeOutput{Node: adapters.NodePayload(node)}, nil
}

func HandleGetNode(ctx context.Context, a *adapters.Adapter, in contracts.GetNodeInput) (contracts.GetNodeOutput, error) {
	node, ok := a.Engine().GetNode(in.ID)
	if !ok {
		return contracts.GetNodeOutput{Found: false}, nil
	}
	return contracts.GetNodeOutput{Node: adapters.NodePayload(node), Found: true}, nil
}

func HandleSearchNodes(ctx context.Context, a *adapters.Adapter, in contracts.SearchNodesInput) (contracts.SearchNodesOutput, error) {
	eng := a.Engine()

	var candidates []*hypergraph.Node
	if len(in.Properties) > 0 {
		matched, err := eng.FindNodes(in.Properties)
		if err != nil {
			return contracts.SearchNodesOutput{}, adapters.ToolErrorFrom(err)
		}
		candidates = matched
	} else {
		candidates = eng.Nodes(in.Type)
	}

	var pattern glob.Glob
	if in.TypePattern != "" {
		compiled, err := glob.Compile(in.TypePattern)
		if err != nil {
			return contracts.SearchNodesOutput{}, contracts.ToolError{
				Code:    contracts.ErrorInvalidArgument,
				Message: "invalid type_pattern",
			}
		}
		pattern = compiled
	}

	out := contracts.SearchNodesOutput{Nodes: []contracts.NodePayload{}}
	for _, node := range candidates {
		if in.Type != "" && node.Type != in.Type {
			continue
		}
		if pattern != nil && !pattern.Match(node.Type) {
			continue
		}
		out.Total++
		if in.Limit > 0 && len(out.Nodes) >= in.Limit {
			continue
		}
		out.Nodes = append(out.Nodes, adapters.NodePayload(node))
	}
	return out, nil
}

func HandleDeleteNode(ctx context.Context, a *adapters.Adapter, in contracts.DeleteNodeInput) (contracts.DeleteNodeOutput, error) {
	if in.Cascade {
		deleted, edgesDeleted, err := a.Engine().DeleteNodeCascade(ctx, in.ID)
		if err != nil {
			return contracts.DeleteNodeOutput{}, adapters.ToolErrorFrom(err)
		}
		return contracts.DeleteNodeOutput{Deleted: deleted, EdgesDeleted: edgesDeleted}, nil
	}
	deleted, err := a.Engine().DeleteNode(ctx, in.ID, false)
	if err != nil {
		return contracts.DeleteNodeOutput{}, adapters.ToolErrorFrom(err)
	}
	return contracts.DeleteNodeOutput{Deleted: deleted}, nil
}
