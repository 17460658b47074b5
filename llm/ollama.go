// ABOUTME: Ollama API client implementing the llm.Client interface.
// ABOUTME: Uses the OpenAI-compatible API for local inference via Ollama.
package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOllamaBaseURL is the default Ollama API endpoint.
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// DefaultOllamaModel is the default model for Ollama.
const DefaultOllamaModel = "llama3.2"

// OllamaClient implements Client for the Ollama API using OpenAI-compatible endpoints.
type OllamaClient struct {
	client openai.Client
	model  string
}

// NewOllamaClient creates a new Ollama API client.
// If baseURL is empty, defaults to http://localhost:11434/v1.
// If model is empty, defaults to llama3.2.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaClient{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey("ollama"), // Ollama ignores API key but SDK requires it
		),
		model: model,
	}
}

// CreateMessage sends a message and returns the complete response.
func (o *OllamaClient) CreateMessage(ctx context.Context, req *Request) (*Response, error) {
	return createChatCompletion(ctx, o.client, o.model, req)
}

// Compile-time interface assertion.
var _ Client = (*OllamaClient)(nil)
