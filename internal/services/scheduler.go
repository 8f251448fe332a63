package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/robfig/cron/v3"
)

// Runner is the part of ScraperService the scheduler and handlers need.
type Runner interface {
	Run(ctx context.Context, maxItems int) (*dtos.RunResult, error)
}

// Scheduler wraps robfig/cron and triggers periodic runs.
type Scheduler struct {
	cron     *cron.Cron
	spec     string // cron spec, e.g. "@every 6h"
	runner   Runner
	maxItems int
	logger   *slog.Logger
}

func NewScheduler(spec string, runner Runner, maxItems int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		spec:     spec,
		runner:   runner,
		maxItems: maxItems,
		logger:   logger,
	}
}

// Start registers the job and starts the cron loop. Ticks stop starting new
// runs once ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec, "max_items", s.maxItems)
	return nil
}

// Stop waits for a tick in flight to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := s.runner.Run(ctx, s.maxItems)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.logger.Info("previous run still in progress, skipping tick")
	case err != nil:
		s.logger.Error("scheduled run failed", "error", err)
	default:
		s.logger.Info("scheduled run complete",
			"success", result.Success,
			"jobs_added", result.JobsAdded,
			"jobs_updated", result.JobsUpdated,
		)
	}
}
