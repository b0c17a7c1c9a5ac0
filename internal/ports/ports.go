package ports

import (
	"context"
	"time"

	"PaperDigest/internal/domain"
)

// SearchRequest describes one upstream query. Query is the provider-side
// boolean expression; Categories and Keywords are the same terms in structured form.
type SearchRequest struct {
	Query      string
	Categories []string
	Keywords   []string
	MaxResults int
}

// PaperSearcher queries an upstream paper repository. Results come back newest first.
type PaperSearcher interface {
	Search(ctx context.Context, req SearchRequest) ([]domain.Paper, error)
}

// TextGenerator sends a prompt to an LLM and returns the generated text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Message is a rendered digest addressed to one recipient.
type Message struct {
	To        string
	Subject   string
	HTMLBody  string
	PlainBody string
}

// Transport delivers a message through one email service.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// RunRecord summarizes one orchestrator run for the optional history log.
type RunRecord struct {
	RunID           string
	StartedAt       time.Time
	Recipient       string
	Keywords        string
	Categories      []string
	PaperCount      int
	SummaryFailures int
	Delivered       bool
	Transport       string
	Outcome         string
}

// RunRecorder persists run records.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
