package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"PaperDigest/internal/ports"
)

const (
	runsTable       = "digest_runs"
	startedAtLayout = "2006-01-02 15:04:05.000000"
)

var runColumns = []string{
	"run_id", "started_at", "recipient", "keywords", "categories",
	"paper_count", "summary_failures", "delivered", "transport", "outcome",
}

// RunRepository appends one row per orchestrator run into Postgres or SQLite.
type RunRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunRecorder = (*RunRepository)(nil)

// Open connects to the DSN and creates the runs table if needed.
// postgres:// and postgresql:// DSNs use lib/pq; sqlite:<path>, file: and
// :memory: use the pure-Go SQLite driver.
func Open(ctx context.Context, dsn string) (*RunRepository, error) {
	driver, source, format, err := resolveDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// A single connection keeps an in-memory database alive and avoids
		// SQLITE_BUSY between writers.
		db.SetMaxOpenConns(1)
	}

	repo := NewRunRepository(db, format)
	if err := repo.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewRunRepository wires an existing sql.DB.
func NewRunRepository(db *sql.DB, format sq.PlaceholderFormat) *RunRepository {
	return &RunRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}
}

// Close releases the database handle.
func (r *RunRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func resolveDSN(dsn string) (driver, source string, format sq.PlaceholderFormat, err error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, sq.Dollar, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite:"), sq.Question, nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return "sqlite", dsn, sq.Question, nil
	default:
		return "", "", nil, fmt.Errorf("unsupported history dsn %q", dsn)
	}
}

func (r *RunRepository) migrate(ctx context.Context) error {
	schema := `CREATE TABLE IF NOT EXISTS ` + runsTable + ` (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		recipient TEXT NOT NULL,
		keywords TEXT NOT NULL,
		categories TEXT NOT NULL,
		paper_count INTEGER NOT NULL,
		summary_failures INTEGER NOT NULL,
		delivered BOOLEAN NOT NULL,
		transport TEXT NOT NULL,
		outcome TEXT NOT NULL
	)`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

// RecordRun inserts the run summary.
func (r *RunRepository) RecordRun(ctx context.Context, rec ports.RunRecord) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.
		Insert(runsTable).
		Columns(runColumns...).
		Values(
			rec.RunID,
			rec.StartedAt.UTC().Format(startedAtLayout),
			rec.Recipient,
			rec.Keywords,
			strings.Join(rec.Categories, ","),
			rec.PaperCount,
			rec.SummaryFailures,
			rec.Delivered,
			rec.Transport,
			rec.Outcome,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecentRuns lists the newest runs first.
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query, args, err := r.builder.
		Select(runColumns...).
		From(runsTable).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var result []ports.RunRecord
	for rows.Next() {
		var (
			rec        ports.RunRecord
			startedAt  string
			categories string
		)
		if err := rows.Scan(
			&rec.RunID, &startedAt, &rec.Recipient, &rec.Keywords, &categories,
			&rec.PaperCount, &rec.SummaryFailures, &rec.Delivered, &rec.Transport, &rec.Outcome,
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt, err = time.Parse(startedAtLayout, startedAt)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if categories != "" {
			rec.Categories = strings.Split(categories, ",")
		}
		result = append(result, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}
