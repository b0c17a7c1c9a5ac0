package llm

import (
	"context"
	"fmt"

	"PaperDigest/internal/config"
	"PaperDigest/internal/ports"
)

// NewGenerator picks the text generator for the configured provider. It
// returns nil without error when no credential is set.
func NewGenerator(ctx context.Context, cfg config.LLMConfig) (ports.TextGenerator, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewAnthropicGenerator(cfg), nil
	case config.ProviderGemini:
		gen, err := NewGeminiGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case config.ProviderOpenRouter, "":
		return NewOpenRouterGenerator(cfg, nil), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
