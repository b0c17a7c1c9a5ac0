package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"PaperDigest/internal/config"
	"PaperDigest/internal/ports"
)

// GeminiGenerator implements ports.TextGenerator using the Gemini API directly.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

var _ ports.TextGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a Gemini client; Endpoint overrides the base URL.
func NewGeminiGenerator(ctx context.Context, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.Endpoint) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.Endpoint)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: cfg.Model}, nil
}

// Generate runs a single-candidate completion for the prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.3),
			MaxOutputTokens: maxSummaryTokens,
			CandidateCount:  1,
		},
	)
	if err != nil {
		return "", classifyGeminiErr(err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func classifyGeminiErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Code: apiErr.Code, Body: apiErr.Message}
	}
	return fmt.Errorf("call gemini api: %w", err)
}
