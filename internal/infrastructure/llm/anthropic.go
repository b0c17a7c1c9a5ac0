package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"PaperDigest/internal/config"
	"PaperDigest/internal/ports"
)

// AnthropicGenerator implements ports.TextGenerator using the Claude messages API.
type AnthropicGenerator struct {
	client *anthropic.Client
	model  string
}

var _ ports.TextGenerator = (*AnthropicGenerator)(nil)

// NewAnthropicGenerator creates a Claude client. Retries are disabled so the
// summary timeout bounds the whole call.
func NewAnthropicGenerator(cfg config.LLMConfig) *AnthropicGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicGenerator{client: &client, model: cfg.Model}
}

// Generate sends the prompt as one user turn and returns the first text block.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: maxSummaryTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Code: apiErr.StatusCode}
		}
		return "", fmt.Errorf("call claude api: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			if text := strings.TrimSpace(block.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", ErrEmptyResponse
}
