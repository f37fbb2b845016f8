package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qsrankings/internal/config"
	"qsrankings/internal/core/job"
	"qsrankings/internal/core/rankings"
	"qsrankings/internal/logger"
	"qsrankings/internal/platform/dataset"
	"qsrankings/internal/platform/tasks"
)

// PageRunner runs one attempt against a task. *rankings.Navigator is the
// production implementation.
type PageRunner interface {
	Run(ctx context.Context, task *tasks.Task) ([]rankings.Record, error)
}

// StatusTracker records task progress outside the dataset. *job.JobService
// implements it; tracking failures are logged and never fail the run.
type StatusTracker interface {
	InitPending(ctx context.Context, jobID, url string) error
	SetProcessing(ctx context.Context, jobID string, retryCount int) error
	Complete(ctx context.Context, jobID string, status job.Status, items int, errMsg string) error
}

type Options struct {
	// HandlePageTimeout bounds one attempt end to end.
	HandlePageTimeout time.Duration
	// Tracker is optional.
	Tracker StatusTracker
}

// Service seeds the year page, drives the queue and writes the outcome.
type Service struct {
	log   *logger.Logger
	queue tasks.Queue
	pages PageRunner
	sink  dataset.Sink
	opts  Options
}

func NewService(queue tasks.Queue, pages PageRunner, sink dataset.Sink, opts Options) *Service {
	if opts.HandlePageTimeout <= 0 {
		opts.HandlePageTimeout = 60 * time.Second
	}
	return &Service{log: logger.New("Crawler"), queue: queue, pages: pages, sink: sink, opts: opts}
}

// Run scrapes the ranking for input.Year. A task that exhausts its retries is
// not an error: it leaves a debug record in the sink instead.
func (s *Service) Run(ctx context.Context, input config.Input) error {
	if input.Year <= 0 {
		return fmt.Errorf("invalid year %d", input.Year)
	}
	seed := tasks.NewTask(rankings.URLForYear(input.Year))
	if err := s.queue.AddTask(ctx, seed); err != nil && !errors.Is(err, tasks.ErrDuplicate) {
		return fmt.Errorf("seed %s: %w", seed.URL, err)
	}
	s.track(func(tr StatusTracker) error { return tr.InitPending(ctx, seed.ID, seed.URL) })

	if err := s.queue.Run(ctx, s.handlePage, s.handleFailed); err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	s.log.LogInfo("Crawler finished.")
	return nil
}

func (s *Service) handlePage(ctx context.Context, t *tasks.Task) error {
	s.log.LogInfof("Processing %s...", t.URL)
	s.track(func(tr StatusTracker) error { return tr.SetProcessing(ctx, t.ID, t.RetryCount) })

	attemptCtx, cancel := context.WithTimeout(ctx, s.opts.HandlePageTimeout)
	defer cancel()

	records, err := s.pages.Run(attemptCtx, t)
	if err != nil {
		return err
	}
	items := make([]interface{}, len(records))
	for i, r := range records {
		items[i] = r
	}
	if err := s.sink.Push(ctx, items...); err != nil {
		return fmt.Errorf("push %d records: %w", len(items), err)
	}
	s.log.LogInfof("Stored %d universities from %s", len(records), t.URL)
	s.track(func(tr StatusTracker) error { return tr.Complete(ctx, t.ID, job.StatusCompleted, len(records), "") })
	return nil
}

func (s *Service) handleFailed(ctx context.Context, t *tasks.Task) error {
	s.log.LogWarnf("Request %s failed too many times", t.URL)
	if err := s.sink.Push(ctx, DebugRecord(t)); err != nil {
		return fmt.Errorf("push debug record: %w", err)
	}
	s.track(func(tr StatusTracker) error { return tr.Complete(ctx, t.ID, job.StatusFailed, 1, lastError(t)) })
	return nil
}

func (s *Service) track(f func(StatusTracker) error) {
	if s.opts.Tracker == nil {
		return
	}
	if err := f(s.opts.Tracker); err != nil {
		s.log.LogWarnf("update job status: %v", err)
	}
}

func lastError(t *tasks.Task) string {
	if len(t.ErrorMessages) == 0 {
		return ""
	}
	return t.ErrorMessages[len(t.ErrorMessages)-1]
}
