package web

import (
	"fmt"
	"strings"

	"PaperDigest/internal/domain"
)

const (
	formDefaultMaxPapers = 5
	formDefaultDaysBack  = 1
)

var (
	daysBackOptions       = []int{1, 2, 3, 7}
	defaultFormCategories = []string{"cs.AI", "cs.LG", "cs.CV", "cs.CL"}
)

// digestForm mirrors the fields of the interactive form.
type digestForm struct {
	Email           string   `form:"email"`
	Keywords        string   `form:"keywords"`
	Categories      []string `form:"categories"`
	MaxPapers       int      `form:"max_papers"`
	DaysBack        int      `form:"days_back"`
	SortByRelevance bool     `form:"sort_by_relevance"`
	PrioritySources string   `form:"priority_sources"`
}

func defaultForm() digestForm {
	return digestForm{
		Keywords:        domain.DefaultKeywords,
		Categories:      append([]string(nil), defaultFormCategories...),
		MaxPapers:       formDefaultMaxPapers,
		DaysBack:        formDefaultDaysBack,
		SortByRelevance: true,
		PrioritySources: domain.DefaultPrioritySources,
	}
}

// clamp keeps the form inside the ranges the widgets allow.
func (f digestForm) clamp() digestForm {
	f.Email = strings.TrimSpace(f.Email)
	switch {
	case f.MaxPapers < 1:
		f.MaxPapers = formDefaultMaxPapers
	case f.MaxPapers > domain.MaxPapersCeiling:
		f.MaxPapers = domain.MaxPapersCeiling
	}

	valid := false
	for _, d := range daysBackOptions {
		if f.DaysBack == d {
			valid = true
			break
		}
	}
	if !valid {
		f.DaysBack = formDefaultDaysBack
	}
	return f
}

func (f digestForm) toConfig() domain.DigestConfig {
	return domain.DigestConfig{
		Email:           f.Email,
		Keywords:        f.Keywords,
		Categories:      f.Categories,
		MaxPapers:       f.MaxPapers,
		DaysBack:        f.DaysBack,
		SortByRelevance: f.SortByRelevance,
		PrioritySources: f.PrioritySources,
	}
}

// Selected reports whether a category checkbox is ticked.
func (f digestForm) Selected(code string) bool {
	for _, c := range f.Categories {
		if c == code {
			return true
		}
	}
	return false
}

// cliCommand renders the automation command equivalent to the form.
func cliCommand(cfg domain.DigestConfig) string {
	var b strings.Builder
	b.WriteString("paperdigest \\\n")
	fmt.Fprintf(&b, "  --keywords %q \\\n", cfg.Keywords)
	fmt.Fprintf(&b, "  --categories %q \\\n", strings.Join(cfg.Categories, ","))
	fmt.Fprintf(&b, "  --max-papers %d \\\n", cfg.MaxPapers)
	fmt.Fprintf(&b, "  --days-back %d \\\n", cfg.DaysBack)
	if !cfg.SortByRelevance {
		b.WriteString("  --no-relevance-sort \\\n")
	}
	fmt.Fprintf(&b, "  --email %q \\\n", cfg.Email)
	fmt.Fprintf(&b, "  --priority-sources %q", cfg.PrioritySources)
	return b.String()
}
