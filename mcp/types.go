// ABOUTME: Defines the MCP types the rest of mcphub sees - tool info, call
// ABOUTME: results, and server configuration - independent of the SDK's wire types.
package mcp

import (
	"errors"
	"io"
	"time"
)

// Transport names accepted in ServerConfig.Transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportSSE   = "sse"
)

var (
	ErrNotConnected = errors.New("mcp: not connected")
	ErrClosed       = errors.New("mcp: connection closed")
)

// ClientName and ClientVersion identify mcphub during the handshake.
const (
	ClientName    = "mcphub"
	ClientVersion = "0.1.0"
)

// ToolInfo describes an MCP tool.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolCallResult is the response from tools/call.
type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is an MCP content block.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ServerConfig describes an MCP server.
//
// Stdio servers never inherit the host environment: only the variables named
// in EnvAllowlist are copied from it, plus the explicit Env values.
type ServerConfig struct {
	Name         string            `json:"name" yaml:"name"`
	Transport    string            `json:"transport,omitempty" yaml:"transport,omitempty"`
	Command      string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args         []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Dir          string            `json:"cwd,omitempty" yaml:"cwd,omitempty"`
	Env          map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	EnvAllowlist []string          `json:"envAllowlist,omitempty" yaml:"envAllowlist,omitempty"`
	URL          string            `json:"url,omitempty" yaml:"url,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Stderr receives a stdio server's standard error. Defaults to os.Stderr.
	Stderr io.Writer `json:"-" yaml:"-"`

	// TerminateGrace is how long Close waits for a stdio server to exit after
	// its stdin is closed. Defaults to two seconds.
	TerminateGrace time.Duration `json:"-" yaml:"-"`
}
