// ABOUTME: Loads runtime settings from the environment (and an optional .env
// ABOUTME: file) - model backend, credentials, and turn limits.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/2389-research/mcphub/llm"
)

// Settings holds everything configurable through the environment.
type Settings struct {
	ModelProvider string `env:"MCPHUB_MODEL_PROVIDER" envDefault:"openai"`
	Model         string `env:"MCPHUB_MODEL"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	OllamaBaseURL    string `env:"OLLAMA_BASE_URL"`

	// BaseURL overrides the backend endpoint for Anthropic and Gemini.
	BaseURL string `env:"MCPHUB_BASE_URL"`

	MaxRounds         int           `env:"MCPHUB_MAX_ROUNDS" envDefault:"10"`
	InvokeTimeout     time.Duration `env:"MCPHUB_INVOKE_TIMEOUT" envDefault:"30s"`
	ConnectTimeout    time.Duration `env:"MCPHUB_CONNECT_TIMEOUT" envDefault:"30s"`
	HistorySize       int           `env:"MCPHUB_HISTORY_SIZE" envDefault:"6"`
	SystemPrompt      string        `env:"MCPHUB_SYSTEM_PROMPT"`
	MaxTokens         int           `env:"MCPHUB_MAX_TOKENS" envDefault:"4096"`
	RequestsPerMinute int           `env:"MCPHUB_REQUESTS_PER_MINUTE" envDefault:"0"`
	ParallelTools     bool          `env:"MCPHUB_PARALLEL_TOOLS" envDefault:"true"`

	AllowedTools []string `env:"MCPHUB_ALLOWED_TOOLS" envSeparator:","`
	DeniedTools  []string `env:"MCPHUB_DENIED_TOOLS" envSeparator:","`

	// HistoryFile persists the conversation window between runs when set.
	HistoryFile string `env:"MCPHUB_HISTORY_FILE"`
}

// LoadSettings loads dotenvPath (if it exists) into the process
// environment without overriding variables already set, then parses the
// environment.
func LoadSettings(dotenvPath string) (Settings, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	settings, err := env.ParseAs[Settings]()
	if err != nil {
		return Settings{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate checks that limits are usable.
func (s Settings) Validate() error {
	var errs []error
	if s.MaxRounds < 1 {
		errs = append(errs, fmt.Errorf("MCPHUB_MAX_ROUNDS must be at least 1, got %d", s.MaxRounds))
	}
	if s.InvokeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("MCPHUB_INVOKE_TIMEOUT must be positive, got %s", s.InvokeTimeout))
	}
	if s.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("MCPHUB_CONNECT_TIMEOUT must be positive, got %s", s.ConnectTimeout))
	}
	if s.HistorySize < 0 {
		errs = append(errs, fmt.Errorf("MCPHUB_HISTORY_SIZE must not be negative, got %d", s.HistorySize))
	}
	if s.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("MCPHUB_REQUESTS_PER_MINUTE must not be negative, got %d", s.RequestsPerMinute))
	}
	return errors.Join(errs...)
}

// LLM returns the backend selection for llm.New, picking the credential
// that matches the configured provider.
func (s Settings) LLM() llm.ProviderConfig {
	cfg := llm.ProviderConfig{
		Provider:          strings.ToLower(strings.TrimSpace(s.ModelProvider)),
		Model:             s.Model,
		BaseURL:           s.BaseURL,
		RequestsPerMinute: s.RequestsPerMinute,
	}
	switch cfg.Provider {
	case llm.ProviderAnthropic:
		cfg.APIKey = s.AnthropicAPIKey
	case llm.ProviderGemini:
		cfg.APIKey = s.GeminiAPIKey
	case llm.ProviderOpenRouter:
		cfg.APIKey = s.OpenRouterAPIKey
	case llm.ProviderOllama:
		cfg.BaseURL = s.OllamaBaseURL
	default:
		cfg.APIKey = s.OpenAIAPIKey
	}
	return cfg
}
