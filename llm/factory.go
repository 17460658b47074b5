// ABOUTME: Builds a concrete llm.Client from a provider name and credentials.
// ABOUTME: Keeps backend selection out of the orchestrator and the binary.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider names accepted by New.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOllama     = "ollama"
	ProviderOpenRouter = "openrouter"
)

// ProviderConfig selects and configures a model backend.
type ProviderConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string

	// RequestsPerMinute wraps the client in a RateLimitedClient when positive.
	RequestsPerMinute int
}

// New constructs the client described by cfg.
func New(ctx context.Context, cfg ProviderConfig) (Client, error) {
	var client Client

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: api key is required", ProviderOpenAI)
		}
		client = NewOpenAIClient(cfg.APIKey, cfg.Model)
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: api key is required", ProviderAnthropic)
		}
		client = NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: api key is required", ProviderGemini)
		}
		gemini, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		client = gemini
	case ProviderOllama:
		client = NewOllamaClient(cfg.BaseURL, cfg.Model)
	case ProviderOpenRouter:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s: api key is required", ProviderOpenRouter)
		}
		client = NewOpenRouterClient(cfg.APIKey, cfg.Model, "", "mcphub")
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}

	if cfg.RequestsPerMinute > 0 {
		client = NewRateLimitedClient(client, cfg.RequestsPerMinute, 1)
	}
	return client, nil
}
