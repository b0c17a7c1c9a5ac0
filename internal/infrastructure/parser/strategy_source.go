package parser

import (
	"context"
	"fmt"
	"log/slog"

	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
	"PaperDigest/internal/scanner"
)

// StrategySource implements PaperSearcher by delegating to the scanner
// strategy named in settings.
type StrategySource struct {
	registry *scanner.Registry
	provider string
	logger   *slog.Logger
}

var _ ports.PaperSearcher = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the configured provider name.
func NewStrategySource(reg *scanner.Registry, provider string, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		provider: provider,
		logger:   log,
	}
}

// Search resolves the provider strategy and runs one query through it.
func (s *StrategySource) Search(ctx context.Context, req ports.SearchRequest) ([]domain.Paper, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.provider)
	if err != nil {
		return nil, fmt.Errorf("resolve provider: %w", err)
	}

	s.debug("search upstream", "provider", s.provider, "query", req.Query, "max_results", req.MaxResults)

	papers, err := strategy.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.provider, err)
	}

	s.debug("upstream returned papers", "provider", s.provider, "count", len(papers))
	return papers, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
