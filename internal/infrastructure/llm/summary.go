package llm

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"PaperDigest/internal/config"
	"PaperDigest/internal/logging"
	"PaperDigest/internal/ports"
)

const (
	maxSummaryTokens      = 200
	defaultSummaryTimeout = 30 * time.Second

	// FailureMarker prefixes the printable form of every failed summary.
	FailureMarker = "❌"
)

// FailureKind classifies why a summary could not be produced.
type FailureKind string

const (
	KindMissingCredentials FailureKind = "missing_credentials"
	KindTimeout            FailureKind = "timeout"
	KindNetwork            FailureKind = "network"
	KindHTTPStatus         FailureKind = "http_status"
	KindProvider           FailureKind = "provider_error"
	KindMalformed          FailureKind = "malformed_response"
	KindEmpty              FailureKind = "empty_response"
)

// Failure describes a failed summarization.
type Failure struct {
	Kind   FailureKind
	Reason string
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindMissingCredentials:
		return "LLM API key not configured"
	case KindTimeout:
		return "request timeout, try again later"
	case KindEmpty:
		return "no response content received"
	}
	if f.Reason == "" {
		return string(f.Kind)
	}
	return string(f.Kind) + ": " + f.Reason
}

// Result is either a summary text or a failure, never both.
type Result struct {
	Text    string
	Failure *Failure
}

// OK reports whether the summary succeeded.
func (r Result) OK() bool {
	return r.Failure == nil
}

// String renders the summary, or the failure prefixed with FailureMarker.
func (r Result) String() string {
	if r.Failure != nil {
		return FailureMarker + " " + r.Failure.Error()
	}
	return r.Text
}

// SummaryClient compresses abstracts into short bullet digests. It never
// returns an error; every failure is folded into the Result.
type SummaryClient struct {
	generator  ports.TextGenerator
	configured bool
	timeout    time.Duration
	logger     *slog.Logger
}

// NewSummaryClient wraps a generator. A nil generator or an empty credential
// makes every call fail with KindMissingCredentials without network I/O.
func NewSummaryClient(gen ports.TextGenerator, cfg config.LLMConfig, logger *slog.Logger) *SummaryClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSummaryTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &SummaryClient{
		generator:  gen,
		configured: cfg.Configured(),
		timeout:    timeout,
		logger:     logger,
	}
}

// Summarize asks the generator for a bullet summary of one abstract.
func (c *SummaryClient) Summarize(ctx context.Context, abstract string) Result {
	if c == nil || c.generator == nil || !c.configured {
		return Result{Failure: &Failure{Kind: KindMissingCredentials}}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.generator.Generate(callCtx, BuildPrompt(abstract))
	if err != nil {
		failure := classify(err)
		c.logger.Warn("summary failed", "kind", failure.Kind, "reason", failure.Reason)
		return Result{Failure: failure}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Failure: &Failure{Kind: KindEmpty}}
	}
	return Result{Text: text}
}

// BuildPrompt embeds the abstract in the fixed summarization instruction.
func BuildPrompt(abstract string) string {
	return `You are an expert ML analyst. Summarise the following research abstract in <=120 words,
bullet style, focusing on contribution and why it matters. Avoid jargon and make it accessible.

Abstract: ` + strings.TrimSpace(abstract) + `

Format your response as concise bullet points highlighting:
• Key contribution/innovation
• Why it matters/potential impact
• Technical approach (simplified)`
}

func classify(err error) *Failure {
	reason := logging.Redact(err.Error())

	var (
		statusErr   *StatusError
		providerErr *ProviderError
		netErr      net.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: KindTimeout, Reason: reason}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Failure{Kind: KindTimeout, Reason: reason}
	case errors.As(err, &statusErr):
		return &Failure{Kind: KindHTTPStatus, Reason: logging.Redact(statusErr.Error())}
	case errors.As(err, &providerErr):
		return &Failure{Kind: KindProvider, Reason: logging.Redact(providerErr.Message)}
	case errors.Is(err, ErrMalformedResponse):
		return &Failure{Kind: KindMalformed, Reason: reason}
	case errors.Is(err, ErrEmptyResponse):
		return &Failure{Kind: KindEmpty, Reason: reason}
	default:
		return &Failure{Kind: KindNetwork, Reason: reason}
	}
}
