package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/browser"

	"PaperDigest/internal/config"
	"PaperDigest/internal/domain"
	"PaperDigest/internal/infrastructure/llm"
	"PaperDigest/internal/infrastructure/mail"
	"PaperDigest/internal/infrastructure/parser"
	"PaperDigest/internal/infrastructure/scheduler"
	"PaperDigest/internal/infrastructure/storage"
	"PaperDigest/internal/logging"
	"PaperDigest/internal/ports"
	"PaperDigest/internal/scanner"
	"PaperDigest/internal/usecase"
	"PaperDigest/internal/web"
)

// ErrHistoryDisabled is returned by History when no DSN is configured.
var ErrHistoryDisabled = errors.New("run history is not configured")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	history  *storage.RunRepository
}

// New builds the application graph. Only an invalid provider name or an
// unreachable history database make it fail.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	httpClient := &http.Client{Timeout: cfg.Search.Timeout}
	registry := scanner.NewRegistry()
	registry.Register(parser.NewArxivAPISearcher(cfg.Search.APIURL, httpClient, cfg.Search.MinInterval))
	registry.Register(parser.NewArxivListingSearcher(cfg.Search.ListingURL, httpClient, cfg.Search.MinInterval))
	source := parser.NewStrategySource(registry, cfg.Search.Provider, baseLogger.With("component", "source"))

	generator, err := llm.NewGenerator(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}
	summarizer := llm.NewSummaryClient(generator, cfg.LLM, baseLogger.With("component", "llm"))

	router := mail.NewRouter(mail.SelectTransport(cfg.Email), baseLogger.With("component", "mail"))

	a := &Application{cfg: cfg, logger: baseLogger}

	var recorder ports.RunRecorder
	if cfg.History.DSN != "" {
		repo, err := storage.Open(ctx, cfg.History.DSN)
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		a.history = repo
		recorder = repo
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:       usecase.NewFetcher(source, baseLogger.With("component", "fetcher")),
		Summarizer:    summarizer,
		Router:        router,
		Recorder:      recorder,
		LLMConfigured: cfg.LLM.Configured() && generator != nil,
		Concurrency:   cfg.LLM.Concurrency,
		Logger:        baseLogger.With("component", "pipeline"),
	})

	baseLogger.Info("application ready",
		"search", cfg.Search.Provider,
		"llm", cfg.LLM.Provider,
		"llm_configured", a.pipeline.LLMConfigured(),
		"transport", a.pipeline.TransportName(),
		"history", a.history != nil)

	return a, nil
}

// Close releases the history database.
func (a *Application) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// RunDigest runs one digest for the given configuration.
func (a *Application) RunDigest(ctx context.Context, cfg domain.DigestConfig) (*usecase.Report, error) {
	return a.pipeline.Run(ctx, cfg)
}

// Serve runs the interactive form until ctx is cancelled.
func (a *Application) Serve(ctx context.Context, addr string, open bool) error {
	if addr == "" {
		addr = a.cfg.Web.Addr
	}

	gin.SetMode(gin.ReleaseMode)
	srv := web.NewServer(a.pipeline, web.Options{LLMModel: a.cfg.LLM.Model}, a.logger.With("component", "web"))

	if open {
		go func() {
			if err := browser.OpenURL("http://" + addr); err != nil {
				a.logger.Warn("open browser", "err", err)
			}
		}()
	}
	return srv.ListenAndServe(ctx, addr)
}

// Schedule runs the digest file on the configured cron expression until ctx
// is cancelled. The file is re-read on every trigger.
func (a *Application) Schedule(ctx context.Context, digestFile string) error {
	if digestFile == "" {
		digestFile = a.cfg.Scheduler.DigestFile
	}
	if digestFile == "" {
		return fmt.Errorf("no digest config file for scheduled runs")
	}
	if _, err := config.LoadDigestFile(digestFile); err != nil {
		return err
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	next, err := driver.Next(time.Now())
	if err != nil {
		return err
	}

	jobs := usecase.NewScheduler(driver, a.pipeline, func() (domain.DigestConfig, error) {
		return config.LoadDigestFile(digestFile)
	}, a.logger.With("component", "scheduler"))

	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression, "next", next, "file", digestFile)

	<-ctx.Done()
	return jobs.Stop(context.Background())
}

// History returns up to limit recent runs, newest first.
func (a *Application) History(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	if a.history == nil {
		return nil, ErrHistoryDisabled
	}
	return a.history.RecentRuns(ctx, limit)
}
