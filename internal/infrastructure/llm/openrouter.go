package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"PaperDigest/internal/config"
	"PaperDigest/internal/ports"
)

// OpenRouterGenerator implements ports.TextGenerator backed by the
// OpenAI-compatible OpenRouter chat completions API.
type OpenRouterGenerator struct {
	endpoint   string
	model      string
	apiKey     string
	siteURL    string
	siteName   string
	httpClient *http.Client
}

var _ ports.TextGenerator = (*OpenRouterGenerator)(nil)

// NewOpenRouterGenerator builds a client from configuration.
func NewOpenRouterGenerator(cfg config.LLMConfig, client *http.Client) *OpenRouterGenerator {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenRouterGenerator{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		siteURL:    cfg.SiteURL,
		siteName:   cfg.SiteName,
		httpClient: client,
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate posts the prompt as a single user message.
func (c *OpenRouterGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("openrouter client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("openrouter client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.3,
		"max_tokens":  maxSummaryTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal openrouter payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send prompt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoded.Error != nil {
		msg := decoded.Error.Message
		if msg == "" {
			msg = "unknown error"
		}
		return "", &ProviderError{Message: msg}
	}
	if len(decoded.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
