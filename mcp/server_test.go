// ABOUTME: Shared in-process MCP server for the client tests, built on the SDK
// ABOUTME: server with add, divide, env, and picture tools.
package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type operands struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func operandSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []any{"a", "b"},
	}
}

func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}}}
}

// newTestServer returns a server that lists one tool per page so that
// clients have to follow the cursor.
func newTestServer() *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "test-server", Version: "test"}, &mcpsdk.ServerOptions{PageSize: 1})

	server.AddTool(&mcpsdk.Tool{Name: "add", Description: "Add two numbers", InputSchema: operandSchema()},
		func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			var args operands
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return nil, err
			}
			return textResult(strconv.FormatFloat(args.A+args.B, 'f', -1, 64)), nil
		})

	server.AddTool(&mcpsdk.Tool{Name: "divide", Description: "Divide a by b", InputSchema: operandSchema()},
		func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			var args operands
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return nil, err
			}
			if args.B == 0 {
				result := textResult("division by zero")
				result.IsError = true
				return result, nil
			}
			return textResult(strconv.FormatFloat(args.A/args.B, 'f', -1, 64)), nil
		})

	server.AddTool(&mcpsdk.Tool{Name: "env", InputSchema: map[string]any{"type": "object"}},
		func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			env := os.Environ()
			sort.Strings(env)
			return textResult(strings.Join(env, ",")), nil
		})

	server.AddTool(&mcpsdk.Tool{Name: "picture", InputSchema: map[string]any{"type": "object"}},
		func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: "a pixel"},
				&mcpsdk.ImageContent{Data: []byte{0x89, 0x50}, MIMEType: "image/png"},
				&mcpsdk.ResourceLink{URI: "file:///tmp/pixel.png", Name: "pixel"},
			}}, nil
		})

	return server
}
