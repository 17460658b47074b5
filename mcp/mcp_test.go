package mcp_test

import (
	"context"
	"errors"
	"testing"

	"github.com/2389-research/mcphub/mcp"
	"github.com/2389-research/mcphub/tool"
)

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  mcp.ServerConfig
		wantErr bool
	}{
		{"stdio", mcp.ServerConfig{Name: "a", Command: "node"}, false},
		{"stdio without command", mcp.ServerConfig{Name: "a", Transport: "stdio"}, true},
		{"http", mcp.ServerConfig{Name: "b", Transport: "http", URL: "http://localhost/mcp"}, false},
		{"http without url", mcp.ServerConfig{Name: "b", Transport: "streamable-http"}, true},
		{"sse", mcp.ServerConfig{Name: "d", Transport: "sse", URL: "http://localhost/sse"}, false},
		{"sse without url", mcp.ServerConfig{Name: "d", Transport: "SSE"}, true},
		{"unknown transport", mcp.ServerConfig{Name: "c", Transport: "carrier-pigeon"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := mcp.NewClient(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client == nil {
				t.Fatal("expected non-nil client")
			}
		})
	}
}

type fakeInvoker struct {
	result *mcp.ToolCallResult
	err    error
	gotArg map[string]any
}

func (f *fakeInvoker) Invoke(ctx context.Context, name string, args map[string]any) (*mcp.ToolCallResult, error) {
	f.gotArg = args
	return f.result, f.err
}

func TestToolAdapter(t *testing.T) {
	info := mcp.ToolInfo{Name: "add", Description: "Add numbers", InputSchema: map[string]any{"type": "object"}}
	invoker := &fakeInvoker{result: &mcp.ToolCallResult{Content: []mcp.ContentBlock{
		{Type: "text", Text: "5"},
		{Type: "image", MimeType: "image/png"},
	}}}

	adapter := mcp.NewToolAdapter(info, invoker, "math")
	var _ tool.Tool = adapter

	if adapter.Owner() != "math" {
		t.Errorf("expected owner 'math', got %q", adapter.Owner())
	}
	result, err := adapter.Execute(context.Background(), map[string]any{"a": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Error("expected success")
	}
	if result.Output != "5\n[image: image/png]" {
		t.Errorf("unexpected output %q", result.Output)
	}
	if invoker.gotArg["a"] != 2 {
		t.Errorf("arguments not forwarded: %v", invoker.gotArg)
	}
}

func TestToolAdapterErrors(t *testing.T) {
	info := mcp.ToolInfo{Name: "divide"}

	reported := mcp.NewToolAdapter(info, &fakeInvoker{result: &mcp.ToolCallResult{
		IsError: true,
		Content: []mcp.ContentBlock{{Type: "text", Text: "division by zero"}},
	}}, "math")
	result, err := reported.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("tool-reported errors are results, got %v", err)
	}
	if !result.IsError || result.Output != "division by zero" {
		t.Errorf("unexpected result %+v", result)
	}

	broken := errors.New("pipe closed")
	failing := mcp.NewToolAdapter(info, &fakeInvoker{err: broken}, "math")
	if _, err := failing.Execute(context.Background(), nil); !errors.Is(err, broken) {
		t.Errorf("expected transport error, got %v", err)
	}
}
