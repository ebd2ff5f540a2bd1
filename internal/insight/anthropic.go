package insight

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no Anthropic model is configured.
const DefaultAnthropicModel = "claude-haiku-4-5-20251001"

// AnthropicGenerator generates text with the Anthropic Messages API.
type AnthropicGenerator struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewAnthropicGenerator creates an Anthropic-backed generator. An empty key
// leaves the SDK to read ANTHROPIC_API_KEY from the environment.
func NewAnthropicGenerator(apiKey, model string, opts ...option.RequestOption) *AnthropicGenerator {
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicGenerator{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// Generate sends prompt as a single user message and returns the first text block.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := g.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: 512,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in API response")
}

// Name returns the provider and model.
func (g *AnthropicGenerator) Name() string {
	return fmt.Sprintf("anthropic:%s", g.model)
}
