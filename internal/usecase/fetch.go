package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
	"PaperDigest/internal/ranking"
)

// overFetchFactor compensates for records the local cutoff filter drops.
const overFetchFactor = 3

// Fetcher turns a digest configuration into a bounded, ordered candidate list.
type Fetcher struct {
	searcher ports.PaperSearcher
	now      func() time.Time
	logger   *slog.Logger
}

// NewFetcher wires the upstream searcher.
func NewFetcher(searcher ports.PaperSearcher, logger *slog.Logger) *Fetcher {
	return &Fetcher{searcher: searcher, now: time.Now, logger: logger}
}

// WithClock replaces the wall clock, mainly for tests.
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	f.now = now
	return f
}

// Fetch queries upstream for searchLimit = maxPapers*3 records, drops every
// record published before now-daysBack, optionally ranks the survivors and
// returns at most maxPapers of them.
func (f *Fetcher) Fetch(ctx context.Context, cfg domain.DigestConfig) ([]domain.Paper, error) {
	cfg = cfg.Normalized()
	now := f.now()
	cutoff := now.Add(-time.Duration(cfg.DaysBack) * 24 * time.Hour)
	keywords := cfg.KeywordList()
	searchLimit := cfg.MaxPapers * overFetchFactor

	req := ports.SearchRequest{
		Query:      BuildQuery(cfg.Categories, keywords),
		Categories: cfg.Categories,
		Keywords:   keywords,
		MaxResults: searchLimit,
	}

	raw, err := f.searcher.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	rankCtx := domain.RankingContext{
		Keywords:        keywords,
		PrioritySources: cfg.PrioritySourceList(),
		Now:             now,
	}

	candidates := make([]domain.ScoredCandidate, 0, len(raw))
	for examined, paper := range raw {
		if examined >= searchLimit {
			break
		}
		if paper.PublishedAt.Before(cutoff) {
			continue
		}
		cand := domain.ScoredCandidate{Paper: paper}
		if cfg.SortByRelevance {
			cand.Score = ranking.Score(paper, rankCtx)
		}
		candidates = append(candidates, cand)
	}

	if cfg.SortByRelevance {
		// Ties keep upstream order, which is newest first.
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})
	}

	if len(candidates) > cfg.MaxPapers {
		candidates = candidates[:cfg.MaxPapers]
	}

	papers := make([]domain.Paper, len(candidates))
	for i, cand := range candidates {
		papers[i] = cand.Paper
	}

	if f.logger != nil {
		f.logger.Debug("candidates fetched",
			"query", req.Query,
			"received", len(raw),
			"kept", len(papers),
			"cutoff", cutoff.UTC().Format(time.RFC3339))
	}

	return papers, nil
}

// BuildQuery renders the upstream boolean expression
// (cat:a OR cat:b) AND ("kw1" OR "kw2"); the keyword clause is omitted when
// there are no keywords.
func BuildQuery(categories, keywords []string) string {
	parts := make([]string, 0, 2)

	if len(categories) > 0 {
		cats := make([]string, len(categories))
		for i, cat := range categories {
			cats[i] = "cat:" + cat
		}
		parts = append(parts, "("+strings.Join(cats, " OR ")+")")
	} else {
		parts = append(parts, "cat:cs.*")
	}

	terms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			terms = append(terms, `"`+strings.ReplaceAll(kw, `"`, "")+`"`)
		}
	}
	if len(terms) > 0 {
		parts = append(parts, "("+strings.Join(terms, " OR ")+")")
	}

	return strings.Join(parts, " AND ")
}
