// ABOUTME: Implements the Tool adapter - wraps an MCP tool so the router can
// ABOUTME: invoke it through the provider session that exposed it.
package mcp

import (
	"context"
	"strings"

	"github.com/2389-research/mcphub/tool"
)

// Invoker runs a named tool on one provider.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error)
}

// ToolAdapter wraps an MCP tool to implement the Tool interface.
type ToolAdapter struct {
	info    ToolInfo
	invoker Invoker
	owner   string
}

// NewToolAdapter creates a new adapter for an MCP tool owned by the named
// provider.
func NewToolAdapter(info ToolInfo, invoker Invoker, owner string) *ToolAdapter {
	if invoker == nil {
		panic("mcphub: invoker must not be nil")
	}
	return &ToolAdapter{info: info, invoker: invoker, owner: owner}
}

// Name returns the tool name.
func (a *ToolAdapter) Name() string { return a.info.Name }

// Description returns the tool description.
func (a *ToolAdapter) Description() string { return a.info.Description }

// InputSchema returns the JSON schema for tool parameters.
func (a *ToolAdapter) InputSchema() map[string]any { return a.info.InputSchema }

// Owner returns the name of the provider that exposed the tool.
func (a *ToolAdapter) Owner() string { return a.owner }

// Info returns the tool as the provider described it.
func (a *ToolAdapter) Info() ToolInfo { return a.info }

// Execute calls the MCP tool and converts the result. A transport failure is
// returned as an error; a tool that reports isError yields a Result with
// IsError set.
func (a *ToolAdapter) Execute(ctx context.Context, params map[string]any) (*tool.Result, error) {
	mcpResult, err := a.invoker.Invoke(ctx, a.info.Name, params)
	if err != nil {
		return nil, err
	}

	output := ResultText(mcpResult)
	if mcpResult.IsError {
		return tool.NewErrorResult(a.info.Name, output), nil
	}
	return tool.NewResult(a.info.Name, output), nil
}

// ResultText flattens a tool result into text. Non-text blocks are replaced
// by a short placeholder.
func ResultText(result *ToolCallResult) string {
	var parts []string
	for _, block := range result.Content {
		switch block.Type {
		case "text":
			parts = append(parts, block.Text)
		case "image", "audio", "resource", "resource_link":
			parts = append(parts, "["+block.Type+": "+block.MimeType+"]")
		}
	}
	return strings.Join(parts, "\n")
}

// Compile-time interface assertion.
var _ tool.Tool = (*ToolAdapter)(nil)
