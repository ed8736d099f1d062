package llm

import (
	"context"
	"fmt"
)

// Config holds all provider configuration.
type Config struct {
	// Provider selects the backend. Values: "gemini", "openai", "mock".
	Provider string

	Gemini GeminiConfig
	OpenAI OpenAIConfig
	Retry  RetryConfig
}

// NewProvider creates a Provider from configuration, wrapped with retry.
// Configuration problems (unknown provider, missing API key) are reported
// here, before any model call.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(base, cfg.Retry), nil
}
