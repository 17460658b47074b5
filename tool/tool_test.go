package tool_test

import (
	"context"

	"github.com/2389-research/mcphub/tool"
)

// mockTool implements Tool interface for testing
type mockTool struct {
	name        string
	owner       string
	schema      map[string]any
	executeFunc func(ctx context.Context, params map[string]any) (*tool.Result, error)
}

func (m *mockTool) Name() string                { return m.name }
func (m *mockTool) Description() string         { return "mock " + m.name }
func (m *mockTool) InputSchema() map[string]any { return m.schema }
func (m *mockTool) Owner() string               { return m.owner }
func (m *mockTool) Execute(ctx context.Context, params map[string]any) (*tool.Result, error) {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, params)
	}
	return tool.NewResult(m.name, "executed"), nil
}

// listSource is an ordered in-memory Source.
type listSource []tool.Tool

func (s listSource) Get(name string) (tool.Tool, bool) {
	for _, t := range s {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

func (s listSource) All() []tool.Tool { return s }

var _ tool.Source = listSource(nil)
