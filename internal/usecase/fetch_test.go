package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"PaperDigest/internal/domain"
	"PaperDigest/internal/ports"
)

var fixedNow = time.Date(2025, time.November, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return fixedNow.Add(-time.Duration(n) * 24 * time.Hour)
}

type fakeSearcher struct {
	papers []domain.Paper
	err    error
	calls  int
	last   ports.SearchRequest
}

func (f *fakeSearcher) Search(_ context.Context, req ports.SearchRequest) ([]domain.Paper, error) {
	f.calls++
	f.last = req
	return f.papers, f.err
}

func newTestFetcher(s ports.PaperSearcher) *Fetcher {
	return NewFetcher(s, nil).WithClock(func() time.Time { return fixedNow })
}

func scenarioPapers() []domain.Paper {
	// Upstream order is newest first.
	return []domain.Paper{
		{
			ID:          "fresh",
			Title:       "Scaling Laws Revisited",
			Abstract:    "We study compute budgets.",
			Authors:     []string{"J. Smith (Google Research)", "K. Lee"},
			PublishedAt: daysAgo(1),
		},
		{
			ID:          "middle",
			Title:       "Robust AI Planning",
			Abstract:    "Planners for robots.",
			Authors:     []string{"M. Chen"},
			PublishedAt: daysAgo(5),
		},
		{
			ID:          "stale",
			Title:       "Graph Coloring",
			Abstract:    "Heuristics for graphs.",
			Authors:     []string{"P. Q", "R. S", "T. U"},
			PublishedAt: daysAgo(10),
		},
	}
}

func TestBuildQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		categories []string
		keywords   []string
		want       string
	}{
		{
			name:       "categories and keywords",
			categories: []string{"cs.AI", "cs.LG"},
			keywords:   []string{"machine learning", "NLP"},
			want:       `(cat:cs.AI OR cat:cs.LG) AND ("machine learning" OR "NLP")`,
		},
		{
			name:       "blank keywords omitted",
			categories: []string{"cs.CV"},
			keywords:   []string{" "},
			want:       `(cat:cs.CV)`,
		},
		{
			name: "no categories",
			want: `cat:cs.*`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := BuildQuery(tt.categories, tt.keywords); got != tt.want {
				t.Fatalf("unexpected query: %s", got)
			}
		})
	}
}

func TestFetchOverFetchesAndUsesDefaults(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{}
	_, err := newTestFetcher(s).Fetch(context.Background(), domain.DigestConfig{MaxPapers: 4, DaysBack: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.last.MaxResults != 12 {
		t.Fatalf("unexpected search limit: %d", s.last.MaxResults)
	}
	if len(s.last.Categories) != len(domain.DefaultCategories) {
		t.Fatalf("unexpected categories: %v", s.last.Categories)
	}
	if s.last.Query != BuildQuery(domain.DefaultCategories, nil) {
		t.Fatalf("unexpected query: %s", s.last.Query)
	}
}

func TestFetchScenarioOrder(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{papers: scenarioPapers()}
	cfg := domain.DigestConfig{
		Keywords:        "AI",
		PrioritySources: "google",
		MaxPapers:       10,
		DaysBack:        30,
		SortByRelevance: true,
	}

	papers, err := newTestFetcher(s).Fetch(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"fresh", "middle", "stale"}
	if len(papers) != len(want) {
		t.Fatalf("unexpected paper count: %d", len(papers))
	}
	for i, id := range want {
		if papers[i].ID != id {
			t.Fatalf("unexpected order at %d: %s", i, papers[i].ID)
		}
	}
}

func TestFetchDropsPapersBeforeCutoff(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{papers: scenarioPapers()}
	papers, err := newTestFetcher(s).Fetch(context.Background(), domain.DigestConfig{
		Keywords:  "AI",
		MaxPapers: 10,
		DaysBack:  7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cutoff := daysAgo(7)
	if len(papers) != 2 {
		t.Fatalf("unexpected paper count: %d", len(papers))
	}
	for _, p := range papers {
		if p.PublishedAt.Before(cutoff) {
			t.Fatalf("paper %s is older than the cutoff", p.ID)
		}
	}
}

func TestFetchKeepsUpstreamOrderWithoutRelevance(t *testing.T) {
	t.Parallel()

	upstream := scenarioPapers()
	upstream[0], upstream[1] = upstream[1], upstream[0]

	s := &fakeSearcher{papers: upstream}
	papers, err := newTestFetcher(s).Fetch(context.Background(), domain.DigestConfig{
		Keywords:        "AI",
		MaxPapers:       10,
		DaysBack:        30,
		SortByRelevance: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if papers[0].ID != "middle" || papers[1].ID != "fresh" {
		t.Fatalf("unexpected order: %s, %s", papers[0].ID, papers[1].ID)
	}
}

func TestFetchNeverExceedsMaxPapers(t *testing.T) {
	t.Parallel()

	for _, total := range []int{0, 1, 3, 5, 50, 200} {
		upstream := make([]domain.Paper, total)
		for i := range upstream {
			upstream[i] = domain.Paper{ID: fmt.Sprintf("p%d", i), PublishedAt: fixedNow.Add(-time.Duration(i) * time.Minute)}
		}

		for _, maxPapers := range []int{1, 3, 20, 500} {
			s := &fakeSearcher{papers: upstream}
			papers, err := newTestFetcher(s).Fetch(context.Background(), domain.DigestConfig{
				MaxPapers:       maxPapers,
				DaysBack:        1,
				SortByRelevance: true,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			limit := maxPapers
			if limit > domain.MaxPapersCeiling {
				limit = domain.MaxPapersCeiling
			}
			if len(papers) > limit {
				t.Fatalf("fetch returned %d papers for cap %d", len(papers), limit)
			}
			if total < limit && len(papers) != total {
				t.Fatalf("fetch must not pad: got %d from %d", len(papers), total)
			}
		}
	}
}

func TestFetchScanCap(t *testing.T) {
	t.Parallel()

	// Upstream ignores max_results: six stale records followed by fresh ones.
	upstream := make([]domain.Paper, 0, 10)
	for i := 0; i < 6; i++ {
		upstream = append(upstream, domain.Paper{ID: fmt.Sprintf("stale%d", i), PublishedAt: daysAgo(30)})
	}
	for i := 0; i < 4; i++ {
		upstream = append(upstream, domain.Paper{ID: fmt.Sprintf("fresh%d", i), PublishedAt: daysAgo(0)})
	}

	s := &fakeSearcher{papers: upstream}
	papers, err := newTestFetcher(s).Fetch(context.Background(), domain.DigestConfig{MaxPapers: 2, DaysBack: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(papers) != 0 {
		t.Fatalf("records beyond the scan cap must not be examined: %v", papers)
	}
}

func TestFetchUpstreamFailureIsDistinct(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	s := &fakeSearcher{err: boom}
	_, err := newTestFetcher(s).Fetch(context.Background(), domain.DigestConfig{})
	if !errors.Is(err, ErrUpstreamUnavailable) || !errors.Is(err, boom) {
		t.Fatalf("unexpected error: %v", err)
	}
	if errors.Is(err, ErrNoPapers) {
		t.Fatalf("upstream failure must not look like an empty result")
	}
}
