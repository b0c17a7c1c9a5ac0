package domain

import "strings"

const (
	DefaultKeywords        = "artificial intelligence, machine learning, computer vision, NLP"
	DefaultPrioritySources = "google, openai, anthropic, deepmind"
	DefaultMaxPapers       = 20
	DefaultDaysBack        = 7

	// MaxPapersCeiling caps every fetch regardless of what the caller asks for.
	MaxPapersCeiling = 20
)

// DefaultCategories is used whenever a caller selects no category.
var DefaultCategories = []string{
	"cs.AI", // Artificial Intelligence
	"cs.LG", // Machine Learning
	"cs.CV", // Computer Vision
	"cs.CL", // Computation and Language
	"cs.RO", // Robotics
	"cs.CR", // Cryptography and Security
	"cs.HC", // Human-Computer Interaction
	"cs.IR", // Information Retrieval
}

// CategoryOption is a selectable category in the interactive form.
type CategoryOption struct {
	Code  string
	Label string
}

// CategoryOptions lists every category the form offers.
var CategoryOptions = []CategoryOption{
	{Code: "cs.AI", Label: "Artificial Intelligence"},
	{Code: "cs.LG", Label: "Machine Learning"},
	{Code: "cs.CV", Label: "Computer Vision"},
	{Code: "cs.CL", Label: "Natural Language Processing"},
	{Code: "cs.RO", Label: "Robotics"},
	{Code: "cs.CR", Label: "Cryptography & Security"},
	{Code: "cs.HC", Label: "Human-Computer Interaction"},
	{Code: "cs.IR", Label: "Information Retrieval"},
	{Code: "cs.NE", Label: "Neural & Evolutionary Computing"},
	{Code: "cs.DC", Label: "Distributed Computing"},
}

// DigestConfig describes a single digest request.
type DigestConfig struct {
	Email           string   `json:"email"`
	Keywords        string   `json:"keywords"`
	Categories      []string `json:"categories"`
	MaxPapers       int      `json:"max_papers"`
	DaysBack        int      `json:"days_back"`
	SortByRelevance bool     `json:"sort_by_relevance"`
	PrioritySources string   `json:"priority_sources"`
}

// DefaultDigestConfig returns the automation defaults.
func DefaultDigestConfig() DigestConfig {
	return DigestConfig{
		Keywords:        DefaultKeywords,
		MaxPapers:       DefaultMaxPapers,
		DaysBack:        DefaultDaysBack,
		SortByRelevance: true,
		PrioritySources: DefaultPrioritySources,
	}
}

// Normalized resolves defaults and clamps the paper cap into [1, MaxPapersCeiling].
func (c DigestConfig) Normalized() DigestConfig {
	c.Email = strings.TrimSpace(c.Email)
	switch {
	case c.MaxPapers <= 0:
		c.MaxPapers = DefaultMaxPapers
	case c.MaxPapers > MaxPapersCeiling:
		c.MaxPapers = MaxPapersCeiling
	}
	if c.DaysBack <= 0 {
		c.DaysBack = DefaultDaysBack
	}

	categories := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		if cat = strings.TrimSpace(cat); cat != "" {
			categories = append(categories, cat)
		}
	}
	if len(categories) == 0 {
		categories = append(categories, DefaultCategories...)
	}
	c.Categories = categories

	return c
}

// KeywordList returns the parsed keyword terms.
func (c DigestConfig) KeywordList() []string {
	return SplitList(c.Keywords)
}

// PrioritySourceList returns the parsed priority-source patterns.
func (c DigestConfig) PrioritySourceList() []string {
	return SplitList(c.PrioritySources)
}
