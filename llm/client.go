// ABOUTME: Defines the Client interface - the abstraction layer that lets the
// ABOUTME: orchestrator talk to any model provider (OpenAI, Anthropic, Gemini, ...).
package llm

import "context"

// DefaultMaxTokens is used when a request does not set MaxTokens.
const DefaultMaxTokens = 4096

// Client is the interface for LLM communication.
//
// Implementations are plain values constructed by the caller and handed to
// the orchestrator; nothing in this package keeps a shared client.
type Client interface {
	CreateMessage(ctx context.Context, req *Request) (*Response, error)
}
