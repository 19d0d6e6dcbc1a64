package schema

import "hyperbase/internal/mcp/contracts"

type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
	Version     string         `json:"version"`
}

type ResourceDefinition struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType"`
}

func obj(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func strArray(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}

func boolean(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func number(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func integer(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func properties() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"description":          "Arbitrary key-value metadata.",
	}
}

// BuildToolDefinitions describes every tool the server exposes.
func BuildToolDefinitions() []ToolDefinition {
	defs := []ToolDefinition{
		{
			Name:        contracts.ToolCreateNode,
			Description: "Create or update a node. Existing nodes have their type replaced and properties merged.",
			InputSchema: obj(map[string]any{
				"id":         str("Unique node identifier."),
				"type":       str("Node classification; defaults to 'unknown'."),
				"properties": properties(),
			}, "id"),
		},
		{
			Name:        contracts.ToolGetNode,
			Description: "Fetch a node by id.",
			InputSchema: obj(map[string]any{
				"id": str("Node identifier."),
			}, "id"),
		},
		{
			Name:        contracts.ToolSearchNodes,
			Description: "Search nodes by type, glob type pattern, and/or exact property values.",
			InputSchema: obj(map[string]any{
				"type":         str("Exact node type."),
				"type_pattern": str("Glob pattern over node types, e.g. 'person*'."),
				"properties":   properties(),
				"limit":        integer("Maximum results (default 100, max 500)."),
			}),
		},
		{
			Name:        contracts.ToolDeleteNode,
			Description: "Delete a node; with cascade, its incident edges too.",
			InputSchema: obj(map[string]any{
				"id":      str("Node identifier."),
				"cascade": boolean("Also delete incident edges."),
			}, "id"),
		},
		{
			Name:        contracts.ToolCreateEdge,
			Description: "Create a hyperedge over two or more nodes, auto-creating missing nodes.",
			InputSchema: obj(map[string]any{
				"nodes":      strArray("Node ids to connect; at least 2."),
				"type":       str("Edge type."),
				"directed":   boolean("First node is tail, last is head."),
				"source":     str("Provenance source; defaults to 'unknown'."),
				"confidence": number("Confidence in [0,1]; defaults to 1.0."),
				"properties": properties(),
				"id":         str("Explicit edge id; a UUID is generated when omitted."),
			}, "nodes", "type"),
		},
		{
			Name:        contracts.ToolBatchCreateEdges,
			Description: "Create many edges in one batched write.",
			InputSchema: obj(map[string]any{
				"edges": map[string]any{
					"type":        "array",
					"description": "Edge specifications, same shape as create_edge input.",
					"items":       map[string]any{"type": "object"},
				},
			}, "edges"),
		},
		{
			Name:        contracts.ToolGetEdge,
			Description: "Fetch an edge by id.",
			InputSchema: obj(map[string]any{
				"id": str("Edge identifier."),
			}, "id"),
		},
		{
			Name:        contracts.ToolSearchEdges,
			Description: "Search edges by contained nodes, type, glob type pattern, source, confidence, and properties.",
			InputSchema: obj(map[string]any{
				"containing":     strArray("Node ids the edge must touch."),
				"match_all":      boolean("Require all listed nodes instead of any."),
				"type":           str("Exact edge type."),
				"type_pattern":   str("Glob pattern over edge types."),
				"source":         str("Provenance source filter."),
				"min_confidence": number("Minimum confidence."),
				"properties":     properties(),
				"limit":          integer("Maximum results (default 100, max 500)."),
			}),
		},
		{
			Name:        contracts.ToolUpsertEdge,
			Description: "Create or update the edge identified by its exact vertex set and type (idempotent ingestion).",
			InputSchema: obj(map[string]any{
				"nodes":      strArray("Exact vertex set; at least 2 distinct ids."),
				"type":       str("Edge type."),
				"source":     str("Provenance source."),
				"confidence": number("Confidence in [0,1]."),
				"properties": properties(),
			}, "nodes", "type"),
		},
		{
			Name:        contracts.ToolDeleteEdge,
			Description: "Delete an edge by id.",
			InputSchema: obj(map[string]any{
				"id": str("Edge identifier."),
			}, "id"),
		},
		{
			Name:        contracts.ToolLookupEdgesByNodes,
			Description: "Find edges connecting exactly the given set of nodes; order does not matter.",
			InputSchema: obj(map[string]any{
				"nodes": strArray("Exact vertex set."),
				"type":  str("Optional edge type filter."),
			}, "nodes"),
		},
		{
			Name:        contracts.ToolGetNeighbors,
			Description: "List the 1-hop neighbors of a node via shared hyperedges.",
			InputSchema: obj(map[string]any{
				"node_id":    str("Node identifier."),
				"edge_types": strArray("Restrict traversal to these edge types."),
			}, "node_id"),
		},
		{
			Name:        contracts.ToolFindPaths,
			Description: "Find edge-sequence paths between two groups of nodes under an intersection constraint.",
			InputSchema: obj(map[string]any{
				"start_nodes":      strArray("Possible starting node ids."),
				"end_nodes":        strArray("Possible ending node ids."),
				"max_hops":         integer("Maximum path length in edges (default 3)."),
				"max_paths":        integer("Maximum paths returned (default 10)."),
				"min_intersection": integer("Minimum shared nodes between consecutive edges (default 1)."),
				"edge_types":       strArray("Restrict traversal to these edge types."),
				"direction_mode": map[string]any{
					"type":        "string",
					"enum":        []string{"undirected", "forward", "backward"},
					"description": "How directed edges constrain traversal.",
				},
			}, "start_nodes", "end_nodes"),
		},
		{
			Name:        contracts.ToolGetStats,
			Description: "Node/edge counts by type plus provenance source summary for the current namespace.",
			InputSchema: obj(map[string]any{}),
		},
	}
	for i := range defs {
		defs[i].Version = contracts.ContractVersion
	}
	return defs
}

// BuildResourceDefinitions describes the server's readable resources.
func BuildResourceDefinitions() []ResourceDefinition {
	return []ResourceDefinition{
		{
			URI:         contracts.ResourceSchema,
			Name:        "schema",
			Description: "Tool catalog with input schemas.",
			MimeType:    "application/json",
		},
		{
			URI:         contracts.ResourceStats,
			Name:        "stats",
			Description: "Live node/edge counts for the current namespace.",
			MimeType:    "application/json",
		},
	}
}
