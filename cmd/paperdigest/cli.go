package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"PaperDigest/internal/config"
	"PaperDigest/internal/domain"
	"PaperDigest/internal/usecase"
)

// Process exit codes.
const (
	ExitSuccess         = 0
	ExitDeliveryFailure = 1
	ExitUsage           = 2
	ExitConfigError     = 3
	ExitNoPapers        = 4
	ExitUpstream        = 5
)

// usageError marks an invalid invocation.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// configError marks a problem with the settings or the digest file.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// parseDigestFlags builds the digest configuration for one run. Values from
// --config are the base; flags given explicitly on the command line win.
func parseDigestFlags(args []string, stderr io.Writer) (domain.DigestConfig, error) {
	fs := flag.NewFlagSet("paperdigest", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := domain.DefaultDigestConfig()
	var (
		email           = fs.String("email", "", "Email address to send the digest to")
		configPath      = fs.String("config", "", "Path to a JSON digest config file")
		keywords        = fs.String("keywords", defaults.Keywords, "Comma-separated keywords")
		categories      = fs.String("categories", "", "Comma-separated categories (e.g. cs.AI,cs.LG)")
		maxPapers       = fs.Int("max-papers", defaults.MaxPapers, "Maximum number of papers")
		daysBack        = fs.Int("days-back", defaults.DaysBack, "Days to look back for papers")
		prioritySources = fs.String("priority-sources", defaults.PrioritySources, "Comma-separated priority sources")
		noRelevance     = fs.Bool("no-relevance-sort", false, "Disable relevance sorting")
	)
	if err := fs.Parse(args); err != nil {
		return domain.DigestConfig{}, &usageError{msg: err.Error()}
	}
	if fs.NArg() > 0 {
		return domain.DigestConfig{}, &usageError{msg: fmt.Sprintf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}
	}

	if *maxPapers < 0 || *daysBack < 0 {
		return domain.DigestConfig{}, &usageError{msg: "--max-papers and --days-back must not be negative"}
	}

	cfg := defaults
	if *configPath != "" {
		loaded, err := config.LoadDigestFile(*configPath)
		if err != nil {
			return domain.DigestConfig{}, &configError{err: err}
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "email":
			cfg.Email = *email
		case "keywords":
			cfg.Keywords = *keywords
		case "categories":
			cfg.Categories = domain.SplitList(*categories)
		case "max-papers":
			cfg.MaxPapers = *maxPapers
		case "days-back":
			cfg.DaysBack = *daysBack
		case "priority-sources":
			cfg.PrioritySources = *prioritySources
		case "no-relevance-sort":
			cfg.SortByRelevance = !*noRelevance
		}
	})

	return cfg, nil
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	var ue *usageError
	var ce *configError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ue):
		return ExitUsage
	case errors.As(err, &ce), usecase.IsConfigError(err):
		return ExitConfigError
	case errors.Is(err, usecase.ErrNoPapers):
		return ExitNoPapers
	case errors.Is(err, usecase.ErrUpstreamUnavailable):
		return ExitUpstream
	default:
		return ExitDeliveryFailure
	}
}
