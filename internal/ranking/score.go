// Package ranking scores papers for relevance within a single fetch.
package ranking

import (
	"math"
	"strings"
	"time"

	"PaperDigest/internal/domain"
)

const (
	recencyWindowDays = 7
	recencyWeight     = 2.0
	titleHitPoints    = 3.0
	abstractHitPoints = 1.0
	authorSaturation  = 10.0
	priorityBonus     = 2.0
)

// DefaultPrioritySources applies when the caller supplies no priority source.
var DefaultPrioritySources = []string{
	"google", "openai", "microsoft", "meta", "deepmind", "anthropic",
	"stanford", "mit", "berkeley", "cmu", "oxford", "cambridge",
}

// Score returns an additive relevance signal. It only has meaning relative to
// other papers scored with the same context.
func Score(paper domain.Paper, ctx domain.RankingContext) float64 {
	return Recency(paper.PublishedAt, ctx.Now) +
		KeywordHits(paper.Title, ctx.Keywords, titleHitPoints) +
		KeywordHits(paper.Abstract, ctx.Keywords, abstractHitPoints) +
		Collaboration(len(paper.Authors)) +
		PriorityBonus(paper.Authors, ctx.PrioritySources)
}

// AgeDays is the number of whole days between published and now, never negative.
func AgeDays(published, now time.Time) int {
	days := math.Floor(now.UTC().Sub(published.UTC()).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// Recency gives up to 2 points to papers younger than a week.
func Recency(published, now time.Time) float64 {
	remaining := recencyWindowDays - AgeDays(published, now)
	if remaining <= 0 {
		return 0
	}
	return float64(remaining) / recencyWindowDays * recencyWeight
}

// KeywordHits awards points for every keyword found in text, case-insensitive.
func KeywordHits(text string, keywords []string, points float64) float64 {
	lower := strings.ToLower(text)
	var total float64
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(lower, kw) {
			total += points
		}
	}
	return total
}

// Collaboration uses author count as a proxy for institutional backing.
func Collaboration(authorCount int) float64 {
	return math.Min(float64(authorCount)/authorSaturation, 1.0)
}

// PriorityBonus is a flat 2 points when any pattern occurs in the author names.
func PriorityBonus(authors []string, sources []string) float64 {
	patterns := make([]string, 0, len(sources))
	for _, src := range sources {
		if src = strings.ToLower(strings.TrimSpace(src)); src != "" {
			patterns = append(patterns, src)
		}
	}
	if len(patterns) == 0 {
		patterns = DefaultPrioritySources
	}

	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = strings.ToLower(a)
	}
	blob := strings.Join(names, " ")

	for _, src := range patterns {
		if strings.Contains(blob, src) {
			return priorityBonus
		}
	}
	return 0
}
