// ABOUTME: Defines the core Tool interface - the universal abstraction for every
// ABOUTME: capability the model can invoke, plus the Source that lists them.
package tool

import "context"

// Tool is the universal interface for executable capabilities.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// InputSchema returns the JSON schema describing the tool's arguments.
	InputSchema() map[string]any

	// Owner names the provider that executes the tool. Tools sharing an
	// owner are never executed concurrently.
	Owner() string

	// Execute runs the tool with the given parameters.
	Execute(ctx context.Context, params map[string]any) (*Result, error)
}

// Source provides tools by name.
type Source interface {
	// Get returns the tool bound to name.
	Get(name string) (Tool, bool)

	// All returns every tool in a stable order.
	All() []Tool
}
