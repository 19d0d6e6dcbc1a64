package adapters

import (
	"errors"

	apperrors "hyperbase/internal/core/errors"
	"hyperbase/internal/engine"
	"hyperbase/internal/hypergraph"
	"hyperbase/internal/mcp/contracts"
)

// Adapter bridges the graph engine and the MCP contract types.
type Adapter struct {
	eng *engine.Engine
}

func NewAdapter(eng *engine.Engine) *Adapter {
	return &Adapter{eng: eng}
}

func (a *Adapter) Engine() *engine.Engine {
	return a.eng
}

func NodePayload(n *hypergraph.Node) contracts.NodePayload {
	return contracts.NodePayload{
		ID:         n.ID,
		Type:       n.Type,
		Properties: n.Properties,
	}
}

func NodePayloads(nodes []*hypergraph.Node) []contracts.NodePayload {
	out := make([]contracts.NodePayload, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NodePayload(n))
	}
	return out
}

func EdgePayload(e *hypergraph.Edge) contracts.EdgePayload {
	incidences := make([]contracts.IncidencePayload, 0, len(e.Incidences))
	for _, inc := range e.Incidences {
		incidences = append(incidences, contracts.IncidencePayload{
			NodeID:     inc.NodeID,
			EdgeRefID:  inc.EdgeRefID,
			Direction:  inc.Direction,
			Properties: inc.Properties,
		})
	}
	return contracts.EdgePayload{
		ID:         e.ID,
		Type:       e.Type,
		Nodes:      e.NodeIDs(),
		Incidences: incidences,
		Source:     e.Source,
		Confidence: e.Confidence,
		Properties: e.Properties,
	}
}

func EdgePayloads(edges []*hypergraph.Edge) []contracts.EdgePayload {
	out := make([]contracts.EdgePayload, 0, len(edges))
	for _, e := range edges {
		out = append(out, EdgePayload(e))
	}
	return out
}

// ToolErrorFrom maps engine errors onto the MCP error contract. ToolErrors
// pass through untouched.
func ToolErrorFrom(err error) error {
	if err == nil {
		return nil
	}
	var toolErr contracts.ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return contracts.ToolError{
			Code:    contractCode(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Context,
		}
	}
	return contracts.ToolError{Code: contracts.ErrorInternal, Message: err.Error()}
}

func contractCode(code apperrors.ErrorCode) string {
	switch code {
	case apperrors.CodeNotFound:
		return contracts.ErrorNotFound
	case apperrors.CodeValidation:
		return contracts.ErrorInvalidArgument
	case apperrors.CodeStorage, apperrors.CodeNotSupported:
		return contracts.ErrorUnavailable
	default:
		return contracts.ErrorInternal
	}
}
