// ABOUTME: Implements Session - one named, exclusively-owned connection to a tool
// ABOUTME: provider that serializes its invocations and is closed exactly once.
package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/2389-research/mcphub/mcp"
)

// Session is a connected tool provider.
//
// At most one discover or invoke call is in flight per session. Only the
// lifecycle manager should call Close.
type Session struct {
	name   string
	client mcp.Client

	// slot holds the single in-flight token; waiters honor their context.
	slot chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// New wraps an already started client. Panics if client is nil.
func New(name string, client mcp.Client) *Session {
	if client == nil {
		panic("mcphub: client must not be nil")
	}
	return &Session{name: name, client: client, slot: make(chan struct{}, 1)}
}

// Connect creates the transport for config, performs the handshake, and
// returns the session.
func Connect(ctx context.Context, config mcp.ServerConfig) (*Session, error) {
	client, err := mcp.NewClient(config)
	if err != nil {
		return nil, err
	}
	if err := client.Start(ctx); err != nil {
		return nil, err
	}
	return New(config.Name, client), nil
}

// Name returns the provider name from configuration.
func (s *Session) Name() string { return s.name }

// Discover lists the capabilities the provider exposes, in the order the
// provider reports them.
func (s *Session) Discover(ctx context.Context) ([]mcp.ToolInfo, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	tools, err := s.client.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", s.name, err)
	}
	return tools, nil
}

// Invoke runs the named capability on this provider.
func (s *Session) Invoke(ctx context.Context, name string, args map[string]any) (*mcp.ToolCallResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	return s.client.CallTool(ctx, name, args)
}

// Close shuts the provider connection down. Later calls return the first
// result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

func (s *Session) acquire(ctx context.Context) error {
	select {
	case s.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for provider %s: %w", s.name, ctx.Err())
	}
}

func (s *Session) release() { <-s.slot }

// Compile-time interface assertion.
var _ mcp.Invoker = (*Session)(nil)
