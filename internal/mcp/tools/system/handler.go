package system

import (
	"context"

	"hyperbase/internal/mcp/adapters"
	"hyperbase/internal/mcp/contracts"
	"hyperbase/internal/mcp/schema"
)

func HandleGetStats(ctx context.Context, a *adapters.Adapter) (contracts.GetStatsOutput, error) {
	eng := a.Engine()
	stats := eng.Stats()

	sources := make([]contracts.SourceSummaryPayload, 0)
	for _, s := range eng.Sources() {
		sources = append(sources, contracts.SourceSummaryPayload{
			Source:        s.Source,
			EdgeCount:     s.EdgeCount,
			AvgConfidence: s.AvgConfidence,
		})
	}

	return contracts.GetStatsOutput{
		Namespace:   eng.CurrentNamespace(),
		NodeCount:   stats.NodeCount,
		EdgeCount:   stats.EdgeCount,
		NodesByType: stats.NodesByType,
		EdgesByType: stats.EdgesByType,
		Sources:     sources,
	}, nil
}

// SchemaDocument is the content behind the hyperbase://schema resource.
func SchemaDocument() any {
	return map[string]any{
		"server":  contracts.ServerName,
		"version": contracts.ContractVersion,
		"tools":   schema.BuildToolDefinitions(),
	}
}

// StatsDocument is the content behind the hyperbase://stats resource.
func StatsDocument(ctx context.Context, a *adapters.Adapter) (any, error) {
	return HandleGetStats(ctx, a)
}
