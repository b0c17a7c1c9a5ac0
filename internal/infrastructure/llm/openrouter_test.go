package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PaperDigest/internal/config"
)

func testLLMConfig(endpoint string) config.LLMConfig {
	return config.LLMConfig{
		Provider: config.ProviderOpenRouter,
		Endpoint: endpoint,
		Model:    "google/gemini-2.0-flash-001",
		APIKey:   "sk-or-test",
		SiteURL:  "https://digest.example",
		SiteName: "ArXiv Daily Digest",
		Timeout:  5 * time.Second,
	}
}

func TestOpenRouterGeneratorSendsRequest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-or-test" {
			t.Errorf("unexpected authorization header: %s", r.Header.Get("Authorization"))
		}
		if r.Header.Get("HTTP-Referer") != "https://digest.example" || r.Header.Get("X-Title") != "ArXiv Daily Digest" {
			t.Errorf("missing attribution headers: %v", r.Header)
		}

		var body struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Model != "google/gemini-2.0-flash-001" || body.Temperature != 0.3 || body.MaxTokens != 200 {
			t.Errorf("unexpected payload: %+v", body)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" || body.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  • contribution\n"}}]}`))
	}))
	defer server.Close()

	gen := NewOpenRouterGenerator(testLLMConfig(server.URL), server.Client())
	text, err := gen.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "• contribution" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestOpenRouterGeneratorErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			name:   "status",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"bad key"}}`,
			check: func(err error) bool {
				var se *StatusError
				return errors.As(err, &se) && se.Code == http.StatusUnauthorized
			},
		},
		{
			name:   "provider error",
			status: http.StatusOK,
			body:   `{"error":{"message":"model overloaded"}}`,
			check: func(err error) bool {
				var pe *ProviderError
				return errors.As(err, &pe) && pe.Message == "model overloaded"
			},
		},
		{
			name:   "malformed",
			status: http.StatusOK,
			body:   `not json`,
			check:  func(err error) bool { return errors.Is(err, ErrMalformedResponse) },
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   `{"choices":[]}`,
			check:  func(err error) bool { return errors.Is(err, ErrEmptyResponse) },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewOpenRouterGenerator(testLLMConfig(server.URL), server.Client()).Generate(context.Background(), "x")
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestOpenRouterGeneratorMisconfigured(t *testing.T) {
	t.Parallel()

	cfg := testLLMConfig("")
	if _, err := NewOpenRouterGenerator(cfg, nil).Generate(context.Background(), "x"); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}
