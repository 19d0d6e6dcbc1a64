package registry

import (
	"context"
	"fmt"
	"sync"

	"hyperbase/internal/mcp/contracts"
)

// Handler executes one tool against its already-validated input.
type Handler func(ctx context.Context, input any) (any, error)

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	order    []string
}

func New() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		order:    make([]string, 0),
	}
}

func (r *Registry) Register(tool string, handler Handler) error {
	if tool == "" {
		return fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required for tool %s", tool)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[tool]; exists {
		return fmt.Errorf("tool already registered: %s", tool)
	}
	r.handlers[tool] = handler
	r.order = append(r.order, tool)
	return nil
}

// MustRegister is for wiring at startup, where a duplicate registration
// is a programming error.
func (r *Registry) MustRegister(tool string, handler Handler) {
	if err := r.Register(tool, handler); err != nil {
		panic(err)
	}
}

// Dispatch runs the handler registered for tool.
func (r *Registry) Dispatch(ctx context.Context, tool string, input any) (any, error) {
	r.mu.RLock()
	handler, ok := r.handlers[tool]
	r.mu.RUnlock()

	if !ok {
		return nil, contracts.ToolError{
			Code:    contracts.ErrorNotFound,
			Message: fmt.Sprintf("no handler for tool: %s", tool),
		}
	}
	return handler(ctx, input)
}

// Tools returns tool names in registration order.
func (r *Registry) Tools() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
