package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"hyperbase/internal/config"
	"hyperbase/internal/mcp/contracts"
	"hyperbase/internal/mcp/schema"
	"hyperbase/internal/shared/util"
)

const protocolVersion = "2025-06-18"

// Handler executes a named tool against raw arguments.
type Handler func(ctx context.Context, tool string, raw map[string]any) (any, error)

// Catalog supplies the tool and resource surface the transport
// advertises.
type Catalog interface {
	ToolDefinitions() []schema.ToolDefinition
	ResourceDefinitions() []schema.ResourceDefinition
	ReadResource(ctx context.Context, uri string) (any, error)
}

type Adapter interface {
	Start(ctx context.Context, handler Handler) error
	Stop() error
}

// Stdio speaks JSON-RPC over stdin/stdout, one JSON value per message.
// It also accepts a plain {"tool": ..., "args": ...} line protocol for
// scripting without an MCP client.
type Stdio struct {
	catalog Catalog
	limiter *util.Limiter

	in  io.Reader
	out io.Writer

	mu      sync.Mutex
	running bool
}

func NewStdio(cfg config.MCP, catalog Catalog) *Stdio {
	s := &Stdio{
		catalog: catalog,
		in:      os.Stdin,
		out:     os.Stdout,
	}
	if cfg.RateLimit > 0 {
		s.limiter = util.NewLimiter(cfg.RateLimit, cfg.RateBurst)
	}
	return s
}

// NewStdioStreams is NewStdio with explicit streams, for tests and
// embedding.
func NewStdioStreams(cfg config.MCP, catalog Catalog, in io.Reader, out io.Writer) *Stdio {
	s := NewStdio(cfg, catalog)
	s.in = in
	s.out = out
	return s
}

func (s *Stdio) Start(ctx context.Context, handler Handler) error {
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

	err := s.serve(ctx, handler)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

func (s *Stdio) Stop() error {
	return nil
}

type toolRequest struct {
	ID   any            `json:"id,omitempty"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type toolResponse struct {
	ID     any                  `json:"id,omitempty"`
	OK     bool                 `json:"ok"`
	Result any                  `json:"result,omitempty"`
	Error  *contracts.ToolError `json:"error,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (s *Stdio) serve(ctx context.Context, handler Handler) error {
	if handler == nil {
		return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: "stdio handler is required"}
	}

	decoder := json.NewDecoder(bufio.NewReader(s.in))
	writer := bufio.NewWriter(s.out)
	encoder := json.NewEncoder(writer)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw map[string]any
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if s.limiter != nil && !s.limiter.Allow(1) {
			resp := rpcResponse{
				JSONRPC: "2.0",
				ID:      raw["id"],
				Error: &rpcError{
					Code:    -32005, // JSON-RPC reserved range: rate limit exceeded
					Message: "Rate limit exceeded",
				},
			}
			if err := writeResponse(encoder, writer, resp); err != nil {
				return err
			}
			continue
		}

		handled, err := s.handleRPCMessage(ctx, handler, raw, encoder, writer)
		if err != nil {
			return err
		}
		if handled {
			continue
		}

		if err := s.handleLegacyRequest(ctx, handler, raw, encoder, writer); err != nil {
			return err
		}
	}
}

func (s *Stdio) handleLegacyRequest(ctx context.Context, handler Handler, raw map[string]any, encoder *json.Encoder, writer *bufio.Writer) error {
	req := toolRequest{ID: raw["id"]}
	if tool, ok := raw["tool"].(string); ok {
		req.Tool = tool
	}
	if args, ok := raw["args"].(map[string]any); ok {
		req.Args = args
	}
	if req.Args == nil {
		req.Args = map[string]any{}
	}

	resp := toolResponse{ID: req.ID}
	result, err := handler(ctx, req.Tool, req.Args)
	if err != nil {
		toolErr := normalizeToolError(err)
		resp.Error = &toolErr
	} else {
		resp.OK = true
		resp.Result = result
	}
	if err := encoder.Encode(resp); err != nil {
		return err
	}
	return writer.Flush()
}

func (s *Stdio) handleRPCMessage(ctx context.Context, handler Handler, raw map[string]any, encoder *json.Encoder, writer *bufio.Writer) (bool, error) {
	method, _ := raw["method"].(string)
	jsonrpc, _ := raw["jsonrpc"].(string)
	if method == "" || jsonrpc == "" {
		return false, nil
	}

	params, _ := raw["params"].(map[string]any)
	if params == nil {
		params = map[string]any{}
	}

	if method == "notifications/initialized" {
		return true, nil
	}

	resp := rpcResponse{
		JSONRPC: "2.0",
		ID:      raw["id"],
	}

	switch method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    contracts.ServerName,
				"version": contracts.ContractVersion,
			},
		}
	case "ping":
		resp.Result = map[string]any{}
	case "tools/list":
		defs := s.catalog.ToolDefinitions()
		tools := make([]map[string]any, 0, len(defs))
		for _, def := range defs {
			tools = append(tools, map[string]any{
				"name":        def.Name,
				"description": def.Description,
				"inputSchema": def.InputSchema,
			})
		}
		resp.Result = map[string]any{"tools": tools}
	case "tools/call":
		name, _ := params["name"].(string)
		args, _ := params["arguments"].(map[string]any)
		if args == nil {
			args = map[string]any{}
		}
		result, err := handler(ctx, name, args)
		if err != nil {
			toolErr := normalizeToolError(err)
			resp.Result = map[string]any{
				"isError": true,
				"content": []map[string]any{
					{"type": "text", "text": fmt.Sprintf("%s: %s", toolErr.Code, toolErr.Message)},
				},
			}
		} else {
			resp.Result = map[string]any{
				"isError":           false,
				"structuredContent": result,
				"content": []map[string]any{
					{"type": "text", "text": mustJSONText(result)},
				},
			}
		}
	case "resources/list":
		defs := s.catalog.ResourceDefinitions()
		resources := make([]map[string]any, 0, len(defs))
		for _, def := range defs {
			resources = append(resources, map[string]any{
				"uri":         def.URI,
				"name":        def.Name,
				"description": def.Description,
				"mimeType":    def.MimeType,
			})
		}
		resp.Result = map[string]any{"resources": resources}
	case "resources/read":
		uri, _ := params["uri"].(string)
		content, err := s.catalog.ReadResource(ctx, uri)
		if err != nil {
			toolErr := normalizeToolError(err)
			resp.Error = &rpcError{
				Code:    -32002,
				Message: toolErr.Message,
				Data:    toolErr.Details,
			}
		} else {
			resp.Result = map[string]any{
				"contents": []map[string]any{
					{
						"uri":      uri,
						"mimeType": "application/json",
						"text":     mustJSONText(content),
					},
				},
			}
		}
	default:
		resp.Error = &rpcError{
			Code:    -32601,
			Message: "Method not found",
		}
	}

	if err := writeResponse(encoder, writer, resp); err != nil {
		return true, err
	}
	return true, nil
}

func writeResponse(encoder *json.Encoder, writer *bufio.Writer, resp rpcResponse) error {
	if err := encoder.Encode(resp); err != nil {
		return err
	}
	return writer.Flush()
}

func mustJSONText(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func normalizeToolError(err error) contracts.ToolError {
	var toolErr contracts.ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	return contracts.ToolError{Code: contracts.ErrorInternal, Message: err.Error()}
}
