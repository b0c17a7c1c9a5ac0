package storage

import (
	"context"
	"reflect"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"

	"PaperDigest/internal/ports"
)

func TestResolveDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dsn    string
		driver string
		source string
		format sq.PlaceholderFormat
	}{
		{"postgres://u:p@localhost/digest", "postgres", "postgres://u:p@localhost/digest", sq.Dollar},
		{"postgresql://localhost/digest", "postgres", "postgresql://localhost/digest", sq.Dollar},
		{"sqlite:/var/lib/digest.db", "sqlite", "/var/lib/digest.db", sq.Question},
		{":memory:", "sqlite", ":memory:", sq.Question},
	}

	for _, tt := range tests {
		driver, source, format, err := resolveDSN(tt.dsn)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.dsn, err)
		}
		if driver != tt.driver || source != tt.source || format != tt.format {
			t.Fatalf("unexpected resolution for %s: %s %s", tt.dsn, driver, source)
		}
	}

	if _, _, _, err := resolveDSN("mysql://nope"); err == nil {
		t.Fatalf("expected error for unsupported dsn")
	}
}

func TestRunRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	base := time.Date(2025, time.November, 10, 8, 0, 0, 0, time.UTC)
	older := ports.RunRecord{
		RunID:      "run-1",
		StartedAt:  base.Add(-24 * time.Hour),
		Recipient:  "a@example.com",
		Keywords:   "AI",
		Categories: []string{"cs.AI", "cs.LG"},
		PaperCount: 3,
		Delivered:  true,
		Transport:  "sendgrid",
		Outcome:    "delivered",
	}
	newer := ports.RunRecord{
		RunID:           "run-2",
		StartedAt:       base,
		Recipient:       "a@example.com",
		Keywords:        "",
		SummaryFailures: 2,
		Outcome:         "no_papers",
	}

	for _, rec := range []ports.RunRecord{older, newer} {
		if err := repo.RecordRun(ctx, rec); err != nil {
			t.Fatalf("record run: %v", err)
		}
	}

	runs, err := repo.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("unexpected run count: %d", len(runs))
	}
	if runs[0].RunID != "run-2" || runs[1].RunID != "run-1" {
		t.Fatalf("unexpected order: %s, %s", runs[0].RunID, runs[1].RunID)
	}
	if !reflect.DeepEqual(runs[1], older) {
		t.Fatalf("unexpected record: %+v", runs[1])
	}
	if runs[0].Categories != nil || runs[0].SummaryFailures != 2 || runs[0].Delivered {
		t.Fatalf("unexpected record: %+v", runs[0])
	}

	limited, err := repo.RecentRuns(ctx, 1)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(limited) != 1 || limited[0].RunID != "run-2" {
		t.Fatalf("unexpected limited result: %+v", limited)
	}
}

func TestRunRepositoryRejectsDuplicateRunID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	rec := ports.RunRecord{RunID: "dup", StartedAt: time.Now(), Outcome: "delivered"}
	if err := repo.RecordRun(ctx, rec); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := repo.RecordRun(ctx, rec); err == nil {
		t.Fatalf("expected primary key violation")
	}
}
