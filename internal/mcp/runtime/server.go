package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hyperbase/internal/config"
	"hyperbase/internal/engine"
	"hyperbase/internal/mcp/adapters"
	"hyperbase/internal/mcp/contracts"
	"hyperbase/internal/mcp/registry"
	"hyperbase/internal/mcp/schema"
	"hyperbase/internal/mcp/tools/edges"
	"hyperbase/internal/mcp/tools/nodes"
	"hyperbase/internal/mcp/tools/system"
	"hyperbase/internal/mcp/tools/traversal"
	"hyperbase/internal/mcp/transport"
	"hyperbase/internal/mcp/validate"
	"hyperbase/internal/shared/observability"
)

// Server wires the graph engine behind the MCP tool surface.
type Server struct {
	cfg       *config.Config
	adapter   *adapters.Adapter
	registry  *registry.Registry
	transport transport.Adapter
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
}

func New(cfg *config.Config, eng *engine.Engine, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if eng == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		adapter:  adapters.NewAdapter(eng),
		registry: registry.New(),
		logger:   logger,
	}
	s.registerTools()
	s.transport = transport.NewStdio(cfg.MCP, s)
	return s, nil
}

// SetTransport swaps the transport adapter, mainly for tests.
func (s *Server) SetTransport(t transport.Adapter) {
	s.transport = t
}

func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("mcp server active",
		"server", contracts.ServerName,
		"namespace", s.adapter.Engine().CurrentNamespace(),
		"tools", len(s.registry.Tools()))

	err := s.transport.Start(ctx, s.HandleToolCall)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return err
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	return s.transport.Stop()
}

// HandleToolCall validates raw arguments and dispatches to the
// registered handler. It is the transport's entry point.
func (s *Server) HandleToolCall(ctx context.Context, tool string, raw map[string]any) (out any, err error) {
	if strings.TrimSpace(tool) == "" {
		return nil, contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: "tool is required"}
	}

	ctx, span := observability.Tracer.Start(ctx, "mcp.tool",
		trace.WithAttributes(attribute.String("tool", tool)))
	defer span.End()

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		observability.ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
	}()

	input, err := validate.ParseToolArgs(tool, raw)
	if err != nil {
		return nil, err
	}
	out, err = s.registry.Dispatch(ctx, tool, input)
	if err != nil {
		s.logger.Warn("tool call failed", "tool", tool, "error", err)
	}
	return out, err
}

// ToolDefinitions implements transport.Catalog.
func (s *Server) ToolDefinitions() []schema.ToolDefinition {
	return schema.BuildToolDefinitions()
}

// ResourceDefinitions implements transport.Catalog.
func (s *Server) ResourceDefinitions() []schema.ResourceDefinition {
	return schema.BuildResourceDefinitions()
}

// ReadResource implements transport.Catalog.
func (s *Server) ReadResource(ctx context.Context, uri string) (any, error) {
	switch uri {
	case contracts.ResourceSchema:
		return system.SchemaDocument(), nil
	case contracts.ResourceStats:
		return system.StatsDocument(ctx, s.adapter)
	default:
		return nil, contracts.ToolError{
			Code:    contracts.ErrorNotFound,
			Message: fmt.Sprintf("unknown resource: %s", uri),
		}
	}
}

func (s *Server) registerTools() {
	a := s.adapter

	s.registry.MustRegister(contracts.ToolCreateNode, func(ctx context.Context, input any) (any, error) {
		return nodes.HandleCreateNode(ctx, a, input.(contracts.CreateNodeInput))
	})
	s.registry.MustRegister(contracts.ToolGetNode, func(ctx context.Context, input any) (any, error) {
		return nodes.HandleGetNode(ctx, a, input.(contracts.GetNodeInput))
	})
	s.registry.MustRegister(contracts.ToolSearchNodes, func(ctx context.Context, input any) (any, error) {
		return nodes.HandleSearchNodes(ctx, a, input.(contracts.SearchNodesInput))
	})
	s.registry.MustRegister(contracts.ToolDeleteNode, func(ctx context.Context, input any) (any, error) {
		return nodes.HandleDeleteNode(ctx, a, input.(contracts.DeleteNodeInput))
	})
	s.registry.MustRegister(contracts.ToolCreateEdge, func(ctx context.Context, input any) (any, error) {
		return edges.HandleCreateEdge(ctx, a, input.(contracts.CreateEdgeInput))
	})
	s.registry.MustRegister(contracts.ToolBatchCreateEdges, func(ctx context.Context, input any) (any, error) {
		return edges.HandleBatchCreateEdges(ctx, a, input.(contracts.BatchCreateEdgesInput))
	})
	s.registry.MustRegister(contracts.ToolGetEdge, func(ctx context.Context, input any) (any, error) {
		return edges.HandleGetEdge(ctx, a, input.(contracts.GetEdgeInput))
	})
	s.registry.MustRegister(contracts.ToolSearchEdges, func(ctx context.Context, input any) (any, error) {
		return edges.HandleSearchEdges(ctx, a, input.(contracts.SearchEdgesInput))
	})
	s.registry.MustRegister(contracts.ToolUpsertEdge, func(ctx context.Context, input any) (any, error) {
		return edges.HandleUpsertEdge(ctx, a, input.(contracts.UpsertEdgeInput))
	})
	s.registry.MustRegister(contracts.ToolDeleteEdge, func(ctx context.Context, input any) (any, error) {
		return edges.HandleDeleteEdge(ctx, a, input.(contracts.DeleteEdgeInput))
	})
	s.registry.MustRegister(contracts.ToolLookupEdgesByNodes, func(ctx context.Context, input any) (any, error) {
		return edges.HandleLookupEdgesByNodes(ctx, a, input.(contracts.LookupEdgesByNodesInput))
	})
	s.registry.MustRegister(contracts.ToolGetNeighbors, func(ctx context.Context, input any) (any, error) {
		return traversal.HandleGetNeighbors(ctx, a, input.(contracts.GetNeighborsInput))
	})
	s.registry.MustRegister(contracts.ToolFindPaths, func(ctx context.Context, input any) (any, error) {
		return traversal.HandleFindPaths(ctx, a, input.(contracts.FindPathsInput))
	})
	s.registry.MustRegister(contracts.ToolGetStats, func(ctx context.Context, input any) (any, error) {
		return system.HandleGetStats(ctx, a)
	})
}
