package domain

import (
	"strings"
	"time"
)

// Paper is one search result from the upstream provider. Records are built per
// fetch and never mutated afterwards.
type Paper struct {
	ID          string
	Title       string
	Abstract    string
	Authors     []string
	PublishedAt time.Time
	PDFURL      string
	AbsURL      string
	Categories  []string
}

// RankingContext carries everything the score model needs besides the paper.
type RankingContext struct {
	Keywords        []string
	PrioritySources []string
	Now             time.Time
}

// ScoredCandidate pairs a paper with its relevance within one fetch.
type ScoredCandidate struct {
	Paper Paper
	Score float64
}

// FallbackSummary replaces any summary that failed to generate.
const FallbackSummary = "Summary generation failed — see original abstract"

// DigestEntry is a paper ready for rendering.
type DigestEntry struct {
	Paper   Paper
	Summary string
}

// SplitList splits a comma-separated string into trimmed, non-empty terms.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
