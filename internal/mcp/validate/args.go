package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"hyperbase/internal/hypergraph"
	"hyperbase/internal/mcp/contracts"
)

const (
	DefaultLimit = 100

	maxLimitValue   = 500
	maxNodeCount    = 128
	maxHopsValue    = 25
	maxPathsValue   = 100
	maxBatchSize    = 500
	maxPatternBytes = 200
)

// ParseToolArgs decodes and validates the raw tool arguments into the
// typed input struct for the named tool.
func ParseToolArgs(tool string, raw map[string]any) (any, error) {
	if strings.TrimSpace(tool) == "" {
		return nil, contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: "tool name is required"}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	switch tool {
	case contracts.ToolCreateNode:
		var input contracts.CreateNodeInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		input.ID = strings.TrimSpace(input.ID)
		if input.ID == "" {
			return nil, requiredError("id")
		}
		return input, nil
	case contracts.ToolGetNode:
		var input contracts.GetNodeInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		input.ID = strings.TrimSpace(input.ID)
		if input.ID == "" {
			return nil, requiredError("id")
		}
		return input, nil
	case contracts.ToolSearchNodes:
		var input contracts.SearchNodesInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		if err := checkPattern(input.TypePattern); err != nil {
			return nil, err
		}
		limit, err := normalizeLimit(input.Limit)
		if err != nil {
			return nil, err
		}
		input.Limit = limit
		return input, nil
	case contracts.ToolDeleteNode:
		var input contracts.DeleteNodeInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		input.ID = strings.TrimSpace(input.ID)
		if input.ID == "" {
			return nil, requiredError("id")
		}
		return input, nil
	case contracts.ToolCreateEdge:
		var input contracts.CreateEdgeInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		if err := validateEdgeSpec(input.Nodes, input.Type, input.Confidence); err != nil {
			return nil, err
		}
		return input, nil
	case contracts.ToolBatchCreateEdges:
		var input contracts.BatchCreateEdgesInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		if len(input.Edges) == 0 {
			return nil, requiredError("edges")
		}
		if len(input.Edges) > maxBatchSize {
			return nil, contracts.ToolError{
				Code:    contracts.ErrorInvalidArgument,
				Message: fmt.Sprintf("batch exceeds %d edges", maxBatchSize),
			}
		}
		for i, spec := range input.Edges {
			if err := validateEdgeSpec(spec.Nodes, spec.Type, spec.Confidence); err != nil {
				if toolErr, ok := err.(contracts.ToolError); ok {
					toolErr.Details = mergeDetails(toolErr.Details, "index", i)
					return nil, toolErr
				}
				return nil, err
			}
		}
		return input, nil
	case contracts.ToolGetEdge:
		var input contracts.GetEdgeInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		input.ID = strings.TrimSpace(input.ID)
		if input.ID == "" {
			return nil, requiredError("id")
		}
		return input, nil
	case contracts.ToolSearchEdges:
		var input contracts.SearchEdgesInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		input.Containing = normalizeIDs(input.Containing)
		if err := checkPattern(input.TypePattern); err != nil {
			return nil, err
		}
		if input.MinConfidence != nil && (*input.MinConfidence < 0 || *input.MinConfidence > 1) {
			return nil, rangeError("min_confidence")
		}
		limit, err := normalizeLimit(input.Limit)
		if err != nil {
			return nil, err
		}
		input.Limit = limit
		return input, nil
	case contracts.ToolUpsertEdge:
		var input contracts.UpsertEdgeInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		if err := validateEdgeSpec(input.Nodes, input.Type, input.Confidence); err != nil {
			return nil, err
		}
		return input, nil
	case contracts.ToolDeleteEdge:
		var input contracts.DeleteEdgeInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		input.ID = strings.TrimSpace(input.ID)
		if input.ID == "" {
			return nil, requiredError("id")
		}
		return input, nil
	case contracts.ToolLookupEdgesByNodes:
		var input contracts.LookupEdgesByNodesInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		input.Nodes = normalizeIDs(input.Nodes)
		if len(input.Nodes) == 0 {
			return nil, requiredError("nodes")
		}
		return input, nil
	case contracts.ToolGetNeighbors:
		var input contracts.GetNeighborsInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		input.NodeID = strings.TrimSpace(input.NodeID)
		if input.NodeID == "" {
			return nil, requiredError("node_id")
		}
		return input, nil
	case contracts.ToolFindPaths:
		var input contracts.FindPathsInput
		if err := decodeArgs(raw, &input); err != nil {
			return nil, err
		}
		input.StartNodes = normalizeIDs(input.StartNodes)
		input.EndNodes = normalizeIDs(input.EndNodes)
		if len(input.StartNodes) == 0 {
			return nil, requiredError("start_nodes")
		}
		if len(input.EndNodes) == 0 {
			return nil, requiredError("end_nodes")
		}
		if input.MaxHops < 0 || input.MaxHops > maxHopsValue {
			return nil, rangeError("max_hops")
		}
		if input.MaxPaths < 0 || input.MaxPaths > maxPathsValue {
			return nil, rangeError("max_paths")
		}
		if input.MinIntersection < 0 {
			return nil, rangeError("min_intersection")
		}
		switch input.DirectionMode {
		case "", hypergraph.DirectionModeUndirected, hypergraph.DirectionModeForward, hypergraph.DirectionModeBackward:
		default:
			return nil, contracts.ToolError{
				Code:    contracts.ErrorInvalidArgument,
				Message: fmt.Sprintf("unsupported direction_mode: %s", input.DirectionMode),
			}
		}
		return input, nil
	case contracts.ToolGetStats:
		return contracts.GetStatsInput{}, nil
	default:
		return nil, contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: fmt.Sprintf("unsupported tool: %s", tool)}
	}
}

func validateEdgeSpec(nodes []string, edgeType string, confidence *float64) error {
	cleaned := normalizeIDs(nodes)
	if len(cleaned) < 2 {
		return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: "nodes requires at least 2 ids"}
	}
	if len(cleaned) > maxNodeCount {
		return contracts.ToolError{
			Code:    contracts.ErrorInvalidArgument,
			Message: fmt.Sprintf("nodes exceeds %d ids", maxNodeCount),
		}
	}
	if strings.TrimSpace(edgeType) == "" {
		return requiredError("type")
	}
	if confidence != nil && (*confidence < 0 || *confidence > 1) {
		return rangeError("confidence")
	}
	return nil
}

func decodeArgs(raw map[string]any, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: "invalid arguments encoding"}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: "invalid arguments", Details: map[string]any{"error": err.Error()}}
	}
	return nil
}

func normalizeIDs(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func normalizeLimit(limit int) (int, error) {
	if limit < 0 || limit > maxLimitValue {
		return 0, rangeError("limit")
	}
	if limit == 0 {
		return DefaultLimit, nil
	}
	return limit, nil
}

func checkPattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	if len(pattern) > maxPatternBytes {
		return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: "type_pattern is too long"}
	}
	if _, err := glob.Compile(pattern); err != nil {
		return contracts.ToolError{
			Code:    contracts.ErrorInvalidArgument,
			Message: "invalid type_pattern",
			Details: map[string]any{"error": err.Error()},
		}
	}
	return nil
}

func requiredError(field string) error {
	return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: fmt.Sprintf("%s is required", field)}
}

func rangeError(field string) error {
	return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: fmt.Sprintf("%s is out of range", field)}
}

func mergeDetails(details map[string]any, key string, value any) map[string]any {
	if details == nil {
		details = map[string]any{}
	}
	details[key] = value
	return details
}
