package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/genai"

	"PaperDigest/internal/config"
)

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestSummarizeWithoutCredentials(t *testing.T) {
	t.Parallel()

	var calls int32
	gen := generatorFunc(func(context.Context, string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "never", nil
	})

	for _, client := range []*SummaryClient{
		NewSummaryClient(gen, config.LLMConfig{}, nil),
		NewSummaryClient(nil, config.LLMConfig{APIKey: "k"}, nil),
		nil,
	} {
		res := client.Summarize(context.Background(), "abstract")
		if res.OK() || res.Failure.Kind != KindMissingCredentials {
			t.Fatalf("unexpected result: %+v", res)
		}
		if s := res.String(); s == "" || !strings.HasPrefix(s, FailureMarker) {
			t.Fatalf("unexpected failure text: %q", s)
		}
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("generator must not be called without credentials")
	}
}

func TestSummarizeSuccess(t *testing.T) {
	t.Parallel()

	var gotPrompt string
	gen := generatorFunc(func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "• point one\n• point two\n", nil
	})

	res := NewSummaryClient(gen, config.LLMConfig{APIKey: "k"}, nil).Summarize(context.Background(), "  We propose X. ")
	if !res.OK() || res.Text != "• point one\n• point two" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.String() != res.Text {
		t.Fatalf("unexpected string form: %q", res.String())
	}
	if !strings.Contains(gotPrompt, "Abstract: We propose X.") || !strings.Contains(gotPrompt, "<=120 words") {
		t.Fatalf("unexpected prompt: %s", gotPrompt)
	}
}

func TestSummarizeTimeout(t *testing.T) {
	t.Parallel()

	gen := generatorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", fmt.Errorf("send prompt: %w", ctx.Err())
	})

	client := NewSummaryClient(gen, config.LLMConfig{APIKey: "k", Timeout: 20 * time.Millisecond}, nil)
	res := client.Summarize(context.Background(), "abstract")
	if res.OK() || res.Failure.Kind != KindTimeout {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSummarizeHTTPTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := testLLMConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := NewSummaryClient(NewOpenRouterGenerator(cfg, nil), cfg, nil)

	res := client.Summarize(context.Background(), "abstract")
	if res.OK() || res.Failure.Kind != KindTimeout {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSummarizeClassifiesFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		text string
		want FailureKind
	}{
		{name: "status", err: &StatusError{Code: 500, Body: "Bearer sk-secret-value"}, want: KindHTTPStatus},
		{name: "provider", err: &ProviderError{Message: "quota"}, want: KindProvider},
		{name: "malformed", err: fmt.Errorf("%w: eof", ErrMalformedResponse), want: KindMalformed},
		{name: "empty error", err: ErrEmptyResponse, want: KindEmpty},
		{name: "blank text", text: "   ", want: KindEmpty},
		{name: "network", err: errors.New("connection refused"), want: KindNetwork},
		{name: "gemini api", err: classifyGeminiErr(genai.APIError{Code: 429, Message: "slow down"}), want: KindHTTPStatus},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := generatorFunc(func(context.Context, string) (string, error) {
				return tt.text, tt.err
			})
			res := NewSummaryClient(gen, config.LLMConfig{APIKey: "k"}, nil).Summarize(context.Background(), "abstract")
			if res.OK() || res.Failure.Kind != tt.want {
				t.Fatalf("unexpected result: %+v", res)
			}
			if strings.Contains(res.String(), "sk-secret-value") {
				t.Fatalf("credential leaked into failure text: %s", res.String())
			}
		})
	}
}

func TestNewGeneratorSelectsProvider(t *testing.T) {
	t.Parallel()

	gen, err := NewGenerator(context.Background(), config.LLMConfig{})
	if err != nil || gen != nil {
		t.Fatalf("expected no generator without credential, got %v %v", gen, err)
	}

	gen, err = NewGenerator(context.Background(), testLLMConfig("https://openrouter.example"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := gen.(*OpenRouterGenerator); !ok {
		t.Fatalf("unexpected generator type: %T", gen)
	}

	gen, err = NewGenerator(context.Background(), config.LLMConfig{Provider: config.ProviderAnthropic, APIKey: "k", Model: "claude-3-5-haiku-latest"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := gen.(*AnthropicGenerator); !ok {
		t.Fatalf("unexpected generator type: %T", gen)
	}

	if _, err := NewGenerator(context.Background(), config.LLMConfig{Provider: "unknown", APIKey: "k"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
