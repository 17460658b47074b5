// ABOUTME: Defines the Client interface for MCP server communication and its
// ABOUTME: implementation on the official MCP Go SDK client session.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client is the interface for MCP server communication.
type Client interface {
	// Start initializes the connection and performs MCP handshake.
	Start(ctx context.Context) error

	// ListTools retrieves available tools from the server.
	ListTools(ctx context.Context) ([]ToolInfo, error)

	// CallTool executes a tool on the server.
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error)

	// Close shuts down the connection.
	Close() error
}

// NewClient creates an MCP client for the transport config names.
func NewClient(config ServerConfig) (Client, error) {
	transport, err := buildTransport(config)
	if err != nil {
		return nil, err
	}
	return NewTransportClient(transport), nil
}

// NewTransportClient creates a Client over an already built SDK transport,
// such as an in-memory transport to an in-process server.
func NewTransportClient(transport mcpsdk.Transport) Client {
	if transport == nil {
		panic("mcphub: transport must not be nil")
	}
	return &sessionClient{
		sdk:       mcpsdk.NewClient(&mcpsdk.Implementation{Name: ClientName, Version: ClientVersion}, nil),
		transport: transport,
	}
}

// sessionClient adapts an SDK client session to Client.
type sessionClient struct {
	sdk       *mcpsdk.Client
	transport mcpsdk.Transport

	mu      sync.Mutex
	session *mcpsdk.ClientSession
	closed  bool
}

// Start connects the transport and runs the initialize handshake. ctx bounds
// the handshake only; the connection outlives it.
func (c *sessionClient) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.session != nil {
		return nil
	}
	session, err := c.sdk.Connect(ctx, c.transport, nil)
	if err != nil {
		return fmt.Errorf("mcp: connect: %w", err)
	}
	c.session = session
	return nil
}

func (c *sessionClient) current() (*mcpsdk.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.session == nil {
		return nil, ErrNotConnected
	}
	return c.session, nil
}

// ListTools returns every tool the server exposes, following pagination.
func (c *sessionClient) ListTools(ctx context.Context) ([]ToolInfo, error) {
	session, err := c.current()
	if err != nil {
		return nil, err
	}
	var tools []ToolInfo
	for t, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("mcp: tools/list: %w", err)
		}
		info, err := toToolInfo(t)
		if err != nil {
			return nil, err
		}
		tools = append(tools, info)
	}
	return tools, nil
}

// CallTool invokes name on the server.
func (c *sessionClient) CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	session, err := c.current()
	if err != nil {
		return nil, err
	}
	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("mcp: tools/call %s: %w", name, err)
	}
	return toToolCallResult(result), nil
}

// Close ends the session. Later calls are no-ops.
func (c *sessionClient) Close() error {
	c.mu.Lock()
	session := c.session
	already := c.closed
	c.closed = true
	c.session = nil
	c.mu.Unlock()

	if already || session == nil {
		return nil
	}
	return session.Close()
}

// toToolInfo converts an SDK tool. The input schema arrives as an arbitrary
// JSON value and is normalized to a map.
func toToolInfo(t *mcpsdk.Tool) (ToolInfo, error) {
	info := ToolInfo{Name: t.Name, Description: t.Description}
	if t.InputSchema == nil {
		return info, nil
	}
	data, err := json.Marshal(t.InputSchema)
	if err != nil {
		return ToolInfo{}, fmt.Errorf("mcp: tool %s: input schema: %w", t.Name, err)
	}
	if err := json.Unmarshal(data, &info.InputSchema); err != nil {
		return ToolInfo{}, fmt.Errorf("mcp: tool %s: input schema is not an object: %w", t.Name, err)
	}
	return info, nil
}

func toToolCallResult(result *mcpsdk.CallToolResult) *ToolCallResult {
	out := &ToolCallResult{IsError: result.IsError}
	for _, content := range result.Content {
		switch c := content.(type) {
		case *mcpsdk.TextContent:
			out.Content = append(out.Content, ContentBlock{Type: "text", Text: c.Text})
		case *mcpsdk.ImageContent:
			out.Content = append(out.Content, ContentBlock{Type: "image", MimeType: c.MIMEType})
		case *mcpsdk.AudioContent:
			out.Content = append(out.Content, ContentBlock{Type: "audio", MimeType: c.MIMEType})
		case *mcpsdk.ResourceLink:
			out.Content = append(out.Content, ContentBlock{Type: "resource_link", MimeType: c.MIMEType, Text: c.URI})
		case *mcpsdk.EmbeddedResource:
			block := ContentBlock{Type: "resource"}
			if c.Resource != nil {
				block.MimeType = c.Resource.MIMEType
				block.Text = c.Resource.Text
			}
			out.Content = append(out.Content, block)
		}
	}
	return out
}

// Compile-time interface assertion.
var _ Client = (*sessionClient)(nil)
