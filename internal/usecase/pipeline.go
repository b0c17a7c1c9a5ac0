package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"PaperDigest/internal/domain"
	"PaperDigest/internal/infrastructure/llm"
	"PaperDigest/internal/logging"
	"PaperDigest/internal/ports"
	"PaperDigest/internal/render"
)

// Run outcomes stored in the history log.
const (
	OutcomeDelivered            = "delivered"
	OutcomeDeliveryFailed       = "delivery_failed"
	OutcomeNoTransport          = "no_transport"
	OutcomeNoPapers             = "no_papers"
	OutcomeUpstreamUnavailable  = "upstream_unavailable"
	OutcomeMissingRecipient     = "missing_recipient"
	OutcomeMissingLLMCredential = "missing_llm_credential"
)

// Summarizer compresses one abstract. It never fails outright.
type Summarizer interface {
	Summarize(ctx context.Context, abstract string) llm.Result
}

// DeliveryRouter sends a rendered digest through the configured transport.
type DeliveryRouter interface {
	Configured() bool
	TransportName() string
	Deliver(ctx context.Context, msg ports.Message) bool
}

// PipelineDeps wires all collaborators into the orchestrator.
type PipelineDeps struct {
	Fetcher       *Fetcher
	Summarizer    Summarizer
	Router        DeliveryRouter
	Recorder      ports.RunRecorder
	LLMConfigured bool
	Concurrency   int
	Logger        *slog.Logger
	Now           func() time.Time
}

// Pipeline sequences fetch, summarize, render and deliver for one digest.
type Pipeline struct {
	fetcher       *Fetcher
	summarizer    Summarizer
	router        DeliveryRouter
	recorder      ports.RunRecorder
	llmConfigured bool
	concurrency   int
	logger        *slog.Logger
	now           func() time.Time
}

// Report is everything a run produced. It is returned even when delivery
// fails so the rendered digest stays available.
type Report struct {
	RunID           string
	Config          domain.DigestConfig
	Entries         []domain.DigestEntry
	Digest          render.Digest
	SummaryFailures int
	Transport       string
	Delivered       bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		fetcher:       deps.Fetcher,
		summarizer:    deps.Summarizer,
		router:        deps.Router,
		recorder:      deps.Recorder,
		llmConfigured: deps.LLMConfigured,
		concurrency:   concurrency,
		logger:        logger,
		now:           now,
	}
}

// LLMConfigured reports whether summaries can be generated at all.
func (p *Pipeline) LLMConfigured() bool {
	return p.llmConfigured
}

// TransportName returns the delivery transport in use, or "".
func (p *Pipeline) TransportName() string {
	if p.router == nil {
		return ""
	}
	return p.router.TransportName()
}

// Run executes one digest. Configuration errors stop before any external
// call. A returned error wrapping ErrNoTransport or ErrDeliveryFailed comes
// with a complete report.
func (p *Pipeline) Run(ctx context.Context, cfg domain.DigestConfig) (*Report, error) {
	cfg = cfg.Normalized()
	started := p.now()
	report := &Report{RunID: uuid.NewString(), Config: cfg}
	log := p.logger.With("run_id", report.RunID)

	outcome, err := p.run(ctx, log, report)
	if err != nil {
		log.Warn("digest run finished with error", "outcome", outcome, "err", err)
	} else {
		log.Info("digest run finished", "outcome", outcome, "papers", len(report.Entries))
	}
	p.record(ctx, log, report, started, outcome)

	switch outcome {
	case OutcomeDelivered, OutcomeNoTransport, OutcomeDeliveryFailed:
		return report, err
	default:
		return nil, err
	}
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, report *Report) (string, error) {
	cfg := report.Config
	if cfg.Email == "" {
		return OutcomeMissingRecipient, ErrMissingRecipient
	}
	if !p.llmConfigured || p.summarizer == nil {
		return OutcomeMissingLLMCredential, ErrMissingLLMCredential
	}
	if p.fetcher == nil {
		return OutcomeUpstreamUnavailable, fmt.Errorf("%w: no paper source configured", ErrUpstreamUnavailable)
	}

	log.Info("searching for papers",
		"keywords", cfg.Keywords,
		"categories", strings.Join(cfg.Categories, ","),
		"max_papers", cfg.MaxPapers,
		"days_back", cfg.DaysBack)

	papers, err := p.fetcher.Fetch(ctx, cfg)
	if err != nil {
		return OutcomeUpstreamUnavailable, err
	}
	if len(papers) == 0 {
		return OutcomeNoPapers, ErrNoPapers
	}
	log.Info("papers found", "count", len(papers))

	report.Entries, report.SummaryFailures = p.summarize(ctx, log, papers)
	report.Digest = render.Render(report.Entries, cfg, p.now())

	if p.router == nil || !p.router.Configured() {
		return OutcomeNoTransport, ErrNoTransport
	}
	report.Transport = p.router.TransportName()

	report.Delivered = p.router.Deliver(ctx, ports.Message{
		To:        cfg.Email,
		Subject:   report.Digest.Subject,
		HTMLBody:  report.Digest.HTML,
		PlainBody: report.Digest.Plaintext,
	})
	if !report.Delivered {
		return OutcomeDeliveryFailed, fmt.Errorf("%w via %s", ErrDeliveryFailed, report.Transport)
	}
	return OutcomeDelivered, nil
}

// summarize runs one summary per paper with bounded parallelism. Each call
// writes only its own slot, so a failure never affects other papers.
func (p *Pipeline) summarize(ctx context.Context, log *slog.Logger, papers []domain.Paper) ([]domain.DigestEntry, int) {
	entries := make([]domain.DigestEntry, len(papers))
	failed := make([]bool, len(papers))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, paper := range papers {
		g.Go(func() error {
			res := p.summarizer.Summarize(ctx, paper.Abstract)
			summary := res.Text
			if !res.OK() || strings.HasPrefix(strings.TrimSpace(summary), llm.FailureMarker) {
				log.Warn("summary replaced by fallback", "paper", paper.ID, "reason", res.String())
				summary = domain.FallbackSummary
				failed[i] = true
			}
			entries[i] = domain.DigestEntry{Paper: paper, Summary: summary}
			return nil
		})
	}
	_ = g.Wait()

	failures := 0
	for _, f := range failed {
		if f {
			failures++
		}
	}
	return entries, failures
}

func (p *Pipeline) record(ctx context.Context, log *slog.Logger, report *Report, started time.Time, outcome string) {
	if p.recorder == nil {
		return
	}
	err := p.recorder.RecordRun(ctx, ports.RunRecord{
		RunID:           report.RunID,
		StartedAt:       started,
		Recipient:       report.Config.Email,
		Keywords:        report.Config.Keywords,
		Categories:      report.Config.Categories,
		PaperCount:      len(report.Entries),
		SummaryFailures: report.SummaryFailures,
		Delivered:       report.Delivered,
		Transport:       report.Transport,
		Outcome:         outcome,
	})
	if err != nil {
		log.Error("record run", "err", err)
	}
}

// IsConfigError reports whether err is a configuration problem detected
// before any external call.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrMissingRecipient) || errors.Is(err, ErrMissingLLMCredential)
}
