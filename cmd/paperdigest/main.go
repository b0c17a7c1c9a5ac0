package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"PaperDigest/internal/app"
	"PaperDigest/internal/config"
	"PaperDigest/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "help", "-h", "--help":
		usage(stdout)
		return ExitSuccess
	case "serve":
		return runServe(ctx, args[1:], stderr)
	case "schedule":
		return runSchedule(ctx, args[1:], stderr)
	case "history":
		return runHistory(ctx, args[1:], stdout, stderr)
	default:
		return runDigest(ctx, args, stdout, stderr)
	}
}

func usage(w io.Writer) {
	_, _ = fmt.Fprint(w, `Usage:
  paperdigest [flags]                    run one digest and email it
  paperdigest serve [--addr A] [--open]  interactive form
  paperdigest schedule [--config F]      run the digest file on the cron schedule
  paperdigest history [-n N]             list recent runs

Digest flags:
  --email, --config, --keywords, --categories, --max-papers,
  --days-back, --priority-sources, --no-relevance-sort

Settings come from $PAPERDIGEST_CONFIG (YAML) and environment variables.
`)
}

func buildApp(ctx context.Context, stderr io.Writer) (*app.Application, int) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config error: %s\n", logging.Redact(err.Error()))
		return nil, ExitConfigError
	}
	return application, ExitSuccess
}

func runDigest(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	digestCfg, err := parseDigestFlags(args, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitCode(err)
	}

	application, code := buildApp(ctx, stderr)
	if application == nil {
		return code
	}
	defer application.Close()

	report, err := application.RunDigest(ctx, digestCfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "❌ %s\n", logging.Redact(err.Error()))
		return exitCode(err)
	}

	_, _ = fmt.Fprintf(stdout, "✅ Sent %d papers to %s via %s\n", len(report.Entries), report.Config.Email, report.Transport)
	if report.SummaryFailures > 0 {
		_, _ = fmt.Fprintf(stdout, "⚠️  %d summaries could not be generated\n", report.SummaryFailures)
	}
	return ExitSuccess
}

func runServe(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "", "Listen address (default from settings)")
	open := fs.Bool("open", false, "Open the form in the default browser")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	application, code := buildApp(ctx, stderr)
	if application == nil {
		return code
	}
	defer application.Close()

	if err := application.Serve(ctx, *addr, *open); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitDeliveryFailure
	}
	return ExitSuccess
}

func runSchedule(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "Digest config file (default from settings)")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	application, code := buildApp(ctx, stderr)
	if application == nil {
		return code
	}
	defer application.Close()

	if err := application.Schedule(ctx, *path); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitConfigError
	}
	return ExitSuccess
}

func runHistory(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	limit := fs.Int("n", 20, "Number of runs to show")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if *limit <= 0 {
		_, _ = fmt.Fprintln(stderr, "-n must be positive")
		return ExitUsage
	}

	application, code := buildApp(ctx, stderr)
	if application == nil {
		return code
	}
	defer application.Close()

	runs, err := application.History(ctx, *limit)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitConfigError
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tRUN\tOUTCOME\tPAPERS\tFAILED SUMMARIES\tTRANSPORT\tRECIPIENT")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.RunID, r.Outcome,
			r.PaperCount, r.SummaryFailures, dash(r.Transport), r.Recipient)
	}
	if err := tw.Flush(); err != nil {
		return ExitDeliveryFailure
	}
	return ExitSuccess
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
