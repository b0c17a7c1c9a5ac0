package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"PaperDigest/internal/config"
	"PaperDigest/internal/domain"
	"PaperDigest/internal/logging"
	"PaperDigest/internal/usecase"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.Config{}
	cfg.Search.Provider = config.SearchAPI
	cfg.LLM.Provider = config.ProviderOpenRouter
	cfg.History.DSN = "sqlite:" + filepath.Join(t.TempDir(), "runs.db")
	cfg.Scheduler.CronExpression = "0 8 * * *"
	return cfg
}

func TestRunDigestRecordsConfigErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	application, err := New(ctx, testConfig(t), logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer application.Close()

	report, err := application.RunDigest(ctx, domain.DigestConfig{Email: "reader@example.com"})
	if !errors.Is(err, usecase.ErrMissingLLMCredential) {
		t.Fatalf("unexpected error: %v", err)
	}
	if report != nil {
		t.Fatalf("unexpected report: %+v", report)
	}

	runs, err := application.History(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected history error: %v", err)
	}
	if len(runs) != 1 || runs[0].Outcome != usecase.OutcomeMissingLLMCredential {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestHistoryDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.History.DSN = ""
	application, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := application.History(context.Background(), 5); !errors.Is(err, ErrHistoryDisabled) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.History.DSN = ""
	cfg.LLM.Provider = "mystery"
	cfg.LLM.APIKey = "key"
	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}

func TestScheduleNeedsDigestFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.History.DSN = ""
	application, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := application.Schedule(context.Background(), ""); err == nil {
		t.Fatalf("expected missing file error")
	}

	missing := filepath.Join(t.TempDir(), "absent.json")
	if err := application.Schedule(context.Background(), missing); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScheduleStopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.History.DSN = ""
	application, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "digest.json")
	if err := os.WriteFile(path, []byte(`{"email":"reader@example.com"}`), 0o600); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := application.Schedule(ctx, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
