package insight

import (
	"context"
	"fmt"
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Providers accepted by NewGenerator.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

// ProviderConfig selects and configures a text generation provider.
type ProviderConfig struct {
	Provider        string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
}

// NewGenerator builds the generator named by cfg.Provider. ProviderNone
// yields a nil Generator, which makes the Requester always use the fallback.
func NewGenerator(ctx context.Context, cfg ProviderConfig) (Generator, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		g, err := NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderAnthropic:
		return NewAnthropicGenerator(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown insight provider %q (want gemini, anthropic or none)", cfg.Provider)
	}
}
