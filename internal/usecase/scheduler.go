package usecase

import (
	"context"
	"log/slog"
	"time"

	"PaperDigest/internal/domain"
	"PaperDigest/internal/logging"
	"PaperDigest/internal/ports"
)

// ConfigSource yields the digest configuration for one scheduled run.
type ConfigSource func() (domain.DigestConfig, error)

// Scheduler wires the cron-like driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	source   ConfigSource
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring digests. The source is
// consulted on every trigger so edits to the digest file apply to the next run.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, source ConfigSource, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, source: source, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil || s.source == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		s.RunOnce(ctx, trigger)
	})
}

// RunOnce loads the configuration and runs one digest, logging the outcome.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) {
	cfg, err := s.source()
	if err != nil {
		s.logger.Error("load digest config", "trigger", trigger, "err", err)
		return
	}
	if _, err := s.pipeline.Run(ctx, cfg); err != nil {
		s.logger.Error("scheduled digest failed", "trigger", trigger, "err", err)
		return
	}
	s.logger.Info("scheduled digest sent", "trigger", trigger)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
