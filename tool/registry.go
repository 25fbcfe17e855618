package tool

import (
	"context"
	"log/slog"
	"sync"

	"github.com/YantaoMou/mcp-droid/rpc"
)

// MethodPrefix namespaces every registered tool's wire method name.
const MethodPrefix = "tools/"

// Names of the built-in meta-methods. They are addressable like any other
// method but never appear in listings.
const (
	MethodList = MethodPrefix + "list"
	MethodCall = MethodPrefix + "call"
)

// Descriptor is the listing shape returned by tools/list.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Annotations map[string]any `json:"annotations"`
}

// Registry holds all registered tools keyed by their namespaced method name.
// It is safe for concurrent use; registration after startup is allowed and
// overwrites by name, last write wins.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Tool
	order  []string
	logger *slog.Logger
}

// NewRegistry creates a registry with the tools/list and tools/call
// meta-methods pre-installed.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		tools:  make(map[string]*Tool),
		logger: logger,
	}
	r.registerBuiltins()
	return r
}

// Register inserts or overwrites a tool under tools/<name>. Annotations are
// derived from the description when the descriptor carries none.
func (r *Registry) Register(t *Tool) {
	if t.Annotations == nil {
		t.Annotations = deriveAnnotations(t.Description())
	}
	method := MethodPrefix + t.Name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[method]; exists {
		r.logger.Warn("overwriting registered tool", "tool", t.Name)
	} else {
		r.order = append(r.order, method)
	}
	r.tools[method] = t
	r.logger.Debug("registered tool", "tool", t.Name)
}

// Lookup resolves a namespaced wire method name to its tool.
func (r *Registry) Lookup(method string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[method]
	return t, ok
}

// List returns descriptors for every tool except the two meta-methods, in
// registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, method := range r.order {
		if method == MethodList || method == MethodCall {
			continue
		}
		t := r.tools[method]
		out = append(out, Descriptor{
			Name:        t.Name,
			Description: t.Description(),
			InputSchema: t.InputSchema(),
			Annotations: t.Annotations,
		})
	}
	return out
}

// Call dispatches to a tool by its unnamespaced name. An unknown name fails
// with a method-not-found error carrying the plain tool name.
func (r *Registry) Call(ctx context.Context, name string, params map[string]any) (any, error) {
	t, ok := r.Lookup(MethodPrefix + name)
	if !ok {
		return nil, rpc.Errorf(rpc.CodeMethodNotFound, "tool not found: %s", name)
	}
	if params == nil {
		params = map[string]any{}
	}
	return t.Handler(ctx, params)
}

func (r *Registry) registerBuiltins() {
	r.Register(&Tool{
		Name: "list",
		Doc:  "List all available tools.",
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return map[string]any{"tools": r.List()}, nil
		},
		Annotations: map[string]any{"readOnlyHint": true},
	})
	r.Register(&Tool{
		Name: "call",
		Doc: `Call a named tool.

name: tool name
parameters: tool parameter mapping`,
		Params: []ParamSpec{
			{Name: "name", Type: TypeString},
			{Name: "parameters", Type: TypeObject, Default: map[string]any{}},
		},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			name, _ := params["name"].(string)
			if name == "" {
				return nil, rpc.Errorf(rpc.CodeInvalidRequest, "tool name is required")
			}
			args, _ := params["parameters"].(map[string]any)
			result, err := r.Call(ctx, name, args)
			if err != nil {
				return nil, err
			}
			return map[string]any{"result": result}, nil
		},
		Annotations: map[string]any{},
	})
}
