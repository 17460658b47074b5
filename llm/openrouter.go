// ABOUTME: OpenRouter API client implementing the llm.Client interface.
// ABOUTME: Uses the OpenAI-compatible API with OpenRouter's base URL and app headers.
package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// OpenRouterBaseURL is the base URL for OpenRouter's OpenAI-compatible API.
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// OpenRouterDefaultModel is the default model used when none is specified.
	OpenRouterDefaultModel = "anthropic/claude-3.5-sonnet"
)

// OpenRouterClient implements Client for the OpenRouter API.
type OpenRouterClient struct {
	client openai.Client
	model  string
}

// NewOpenRouterClient creates an OpenRouter client. referer and appTitle are
// optional and sent as HTTP-Referer and X-Title for app identification.
func NewOpenRouterClient(apiKey, model, referer, appTitle string) *OpenRouterClient {
	if model == "" {
		model = OpenRouterDefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(OpenRouterBaseURL),
	}
	if referer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", referer))
	}
	if appTitle != "" {
		opts = append(opts, option.WithHeader("X-Title", appTitle))
	}

	return &OpenRouterClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// CreateMessage sends a message and returns the complete response.
func (o *OpenRouterClient) CreateMessage(ctx context.Context, req *Request) (*Response, error) {
	return createChatCompletion(ctx, o.client, o.model, req)
}

// Compile-time interface assertion.
var _ Client = (*OpenRouterClient)(nil)
