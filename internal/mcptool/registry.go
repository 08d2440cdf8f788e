// Package mcptool holds the MCP tool/prompt/resource registry: the
// in-memory catalog that both the JSON-RPC server and the generated CLI
// dispatch through.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/forgecraft/sah/internal/errs"
)

// Tool is the interface every registered tool must implement.
type Tool interface {
	// Name returns the tool name (e.g. "issue_create", "memo_get").
	Name() string

	// Description returns a human-readable description of what the tool does.
	Description() string

	// InputSchema returns the JSON Schema for the tool's parameters.
	InputSchema() json.RawMessage

	// Execute runs the tool with the given parameters and returns the result.
	Execute(ctx context.Context, params json.RawMessage) (*ToolsCallResult, error)
}

// Prompt is the interface for MCP prompts.
type Prompt interface {
	// Definition returns the prompt metadata (name, description, arguments).
	Definition() PromptDefinition

	// Get returns the prompt messages, optionally customized by arguments.
	Get(arguments map[string]string) (*PromptsGetResult, error)
}

// Resource is the interface for MCP resources.
type Resource interface {
	// Definition returns the resource metadata (URI, name, description, mimeType).
	Definition() ResourceDefinition

	// Read returns the resource content.
	Read() (*ResourcesReadResult, error)
}

// Registry holds all registered tools, prompts, and resources.
type Registry struct {
	mu            sync.RWMutex
	tools         map[string]Tool
	toolOrder     []string
	prompts       map[string]Prompt
	promptOrder   []string
	resources     map[string]Resource // keyed by URI
	resourceOrder []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:     make(map[string]Tool),
		prompts:   make(map[string]Prompt),
		resources: make(map[string]Resource),
	}
}

// --- Tools ---

// Register adds a tool to the registry. Returns a registration-duplicate
// error (rather than panicking) if a tool with the same name already
// exists, so callers building a dynamic tool set can recover.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return errs.RegistrationDuplicate(name)
	}
	r.tools[name] = t
	r.toolOrder = append(r.toolOrder, name)
	return nil
}

// MustRegister panics on a duplicate name; for use in package-level
// wiring where a collision is a programming error, not a runtime one.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// List returns all registered tool definitions in registration order.
func (r *Registry) List() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		t := r.tools[name]
		defs = append(defs, ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.toolOrder))
	copy(out, r.toolOrder)
	return out
}

// Execute looks up name and runs it, translating an unknown tool name into
// the JSON-RPC "method not found" shape the server and CLI both expect.
// Every call passes through here regardless of transport (MCP's
// tools/call and the generated CLI's leaf commands both call Execute, not
// Tool.Execute directly), so the rate limiter attached to ctx's
// ToolContext is enforced identically for both: a denied call never
// reaches the tool.
func (r *Registry) Execute(ctx context.Context, name string, params json.RawMessage) (*ToolsCallResult, error) {
	if tc := ToolContextFrom(ctx); tc.Limiter != nil && !tc.Limiter.Allow() {
		return nil, errs.RateLimited()
	}

	t := r.Get(name)
	if t == nil {
		return nil, fmt.Errorf("tool %q not found", name)
	}
	return t.Execute(ctx, params)
}

// --- Prompts ---

// RegisterPrompt adds a prompt to the registry.
func (r *Registry) RegisterPrompt(p Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Definition().Name
	if _, exists := r.prompts[name]; exists {
		return errs.RegistrationDuplicate(name)
	}
	r.prompts[name] = p
	r.promptOrder = append(r.promptOrder, name)
	return nil
}

// GetPrompt returns a prompt by name, or nil if not found.
func (r *Registry) GetPrompt(name string) Prompt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prompts[name]
}

// ListPrompts returns all registered prompt definitions in registration order.
func (r *Registry) ListPrompts() []PromptDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]PromptDefinition, 0, len(r.promptOrder))
	for _, name := range r.promptOrder {
		defs = append(defs, r.prompts[name].Definition())
	}
	return defs
}

// HasPrompts returns true if any prompts are registered.
func (r *Registry) HasPrompts() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts) > 0
}

// --- Resources ---

// RegisterResource adds a resource to the registry.
func (r *Registry) RegisterResource(res Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	uri := res.Definition().URI
	if _, exists := r.resources[uri]; exists {
		return errs.RegistrationDuplicate(uri)
	}
	r.resources[uri] = res
	r.resourceOrder = append(r.resourceOrder, uri)
	return nil
}

// GetResource returns a resource by URI, or nil if not found.
func (r *Registry) GetResource(uri string) Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resources[uri]
}

// ListResources returns all registered resource definitions in registration order.
func (r *Registry) ListResources() []ResourceDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ResourceDefinition, 0, len(r.resourceOrder))
	for _, uri := range r.resourceOrder {
		defs = append(defs, r.resources[uri].Definition())
	}
	return defs
}

// HasResources returns true if any resources are registered.
func (r *Registry) HasResources() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources) > 0
}
