package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/jobboard/internal/config"
	"github.com/justsurfingit/jobboard/internal/dtos"
)

var (
	// ErrRunInProgress is returned when another run holds the process-wide lock.
	ErrRunInProgress = errors.New("a scrape run is already in progress")
	ErrNoSites       = errors.New("site registry is empty")
)

// JobUpserter persists one record and records its outcome in results.
type JobUpserter interface {
	UpsertJob(ctx context.Context, rec dtos.JobRecord, results *dtos.RunResult) bool
}

// ScraperService runs the fetch, extract, decode and upsert pipeline over
// every registered site, one site at a time.
type ScraperService struct {
	sites     []config.Site
	fetcher   PageFetcher
	extractor Extractor
	jobs      JobUpserter
	status    StatusStore
	logger    *slog.Logger

	mu      sync.Mutex
	running atomic.Bool
}

// NewScraperService wires the pipeline. extractor may be nil when no model
// is configured; runs then fail with ErrExtractorUnavailable.
func NewScraperService(sites []config.Site, fetcher PageFetcher, extractor Extractor, jobs JobUpserter, status StatusStore, logger *slog.Logger) *ScraperService {
	if status == nil {
		status = NewMemoryStatusStore()
	}
	return &ScraperService{
		sites:     sites,
		fetcher:   fetcher,
		extractor: extractor,
		jobs:      jobs,
		status:    status,
		logger:    logger,
	}
}

func (s *ScraperService) Sites() []config.Site {
	return s.sites
}

// Running reports whether a run is executing in this process.
func (s *ScraperService) Running() bool {
	return s.running.Load()
}

// LastRun returns the status of the most recent run, or nil.
func (s *ScraperService) LastRun(ctx context.Context) (*dtos.RunStatus, error) {
	return s.status.LastRun(ctx)
}

// Run processes every site in registry order. Site and job failures end up
// in the result's error list; the returned error is reserved for runs
// that could not execute at all.
func (s *ScraperService) Run(ctx context.Context, maxItems int) (*dtos.RunResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	if s.extractor == nil {
		return nil, ErrExtractorUnavailable
	}
	if len(s.sites) == 0 {
		return nil, ErrNoSites
	}
	if maxItems < 1 {
		return nil, fmt.Errorf("max items must be positive, got %d", maxItems)
	}

	s.running.Store(true)
	defer s.running.Store(false)

	status := dtos.RunStatus{
		RunID:     uuid.NewString(),
		State:     dtos.RunStateRunning,
		StartedAt: time.Now().UTC(),
		MaxItems:  maxItems,
	}
	logger := s.logger.With("run_id", status.RunID)
	s.saveStatus(ctx, logger, status)
	logger.Info("scrape run started", "sites", len(s.sites), "max_items", maxItems)

	results := dtos.NewRunResult()
	for _, site := range s.sites {
		if err := ctx.Err(); err != nil {
			runErr := fmt.Errorf("run cancelled before %s: %w", site.Label(), err)
			s.finish(ctx, logger, status, nil, runErr)
			return nil, runErr
		}
		s.runSite(ctx, logger, site, maxItems, results)
	}
	results.Finish()

	s.finish(ctx, logger, status, results, nil)
	logger.Info("scrape run finished",
		"success", results.Success,
		"jobs_added", results.JobsAdded,
		"jobs_updated", results.JobsUpdated,
		"errors", len(results.Errors),
	)
	return results, nil
}

func (s *ScraperService) runSite(ctx context.Context, logger *slog.Logger, site config.Site, maxItems int, results *dtos.RunResult) {
	label := site.Label()
	logger = logger.With("site", label)

	markup := s.fetcher.Fetch(ctx, site.URL, site.Selector, maxItems)
	if markup == "" {
		logger.Info("no job cards captured, skipping site", "url", site.URL)
		return
	}

	raw, err := s.extractor.Extract(ctx, markup, site)
	if err != nil {
		s.siteError(logger, label, results, err)
		return
	}

	records, err := DecodeJobRecords(raw)
	if err != nil {
		s.siteError(logger, label, results, err)
		return
	}
	logger.Info("extracted jobs", "count", len(records))

	for _, rec := range records {
		s.jobs.UpsertJob(ctx, rec, results)
	}
}

func (s *ScraperService) siteError(logger *slog.Logger, label string, results *dtos.RunResult, err error) {
	logger.Error("site failed", "error", err)
	results.AddError(fmt.Sprintf("Error scraping %s: %v", label, err))
}

func (s *ScraperService) finish(ctx context.Context, logger *slog.Logger, status dtos.RunStatus, results *dtos.RunResult, runErr error) {
	now := time.Now().UTC()
	status.FinishedAt = &now
	status.Result = results
	status.State = dtos.RunStateCompleted
	if runErr != nil {
		status.State = dtos.RunStateFailed
		status.Error = runErr.Error()
	}
	s.saveStatus(context.WithoutCancel(ctx), logger, status)
}

func (s *ScraperService) saveStatus(ctx context.Context, logger *slog.Logger, status dtos.RunStatus) {
	if err := s.status.SaveRun(ctx, status); err != nil {
		logger.Warn("could not save run status", "state", status.State, "error", err)
	}
}
