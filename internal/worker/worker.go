// Package worker runs durable background jobs from the store's job queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/metrics"
	"github.com/DukeRupert/jyotai/internal/repository"
)

// Worker polls the job queue with a fixed number of goroutines.
type Worker struct {
	jobs     repository.Jobs
	handlers map[string]JobHandler
	config   Config
	logger   *slog.Logger

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a new Worker. Register handlers, then call Start or Run.
func New(jobs repository.Jobs, config Config, logger *slog.Logger) (*Worker, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		jobs:     jobs,
		handlers: make(map[string]JobHandler),
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Register adds a job handler. Call this before Start.
func (w *Worker) Register(handler JobHandler) {
	jobType := handler.Type()
	if _, exists := w.handlers[jobType]; exists {
		w.logger.Warn("Overwriting existing handler", "job_type", jobType)
	}
	w.handlers[jobType] = handler
	w.logger.Debug("Registered job handler", "job_type", jobType)
}

// Start recovers stale jobs and launches the polling goroutines.
func (w *Worker) Start(ctx context.Context) {
	if err := w.recoverStaleJobs(ctx); err != nil {
		w.logger.Error("Failed to recover stale jobs", "error", err)
	}

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i+1)
	}

	w.logger.Info("Worker started", "concurrency", w.config.Concurrency)
}

// Run starts the worker and blocks until ctx is canceled, then stops it.
func (w *Worker) Run(ctx context.Context) error {
	w.Start(context.WithoutCancel(ctx))
	<-ctx.Done()
	w.Stop()
	return nil
}

// Stop signals all goroutines to stop and waits up to ShutdownTimeout.
// Jobs still running after that are recovered by the next Start.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker...")
		close(w.stopCh)
	})

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timeout exceeded, some jobs may still be running")
	}
}

func (w *Worker) recoverStaleJobs(ctx context.Context) error {
	count, err := w.jobs.RecoverStaleJobs(ctx, w.config.StaleJobThreshold)
	if err != nil {
		return fmt.Errorf("recover stale jobs: %w", err)
	}

	if count > 0 {
		w.logger.Warn("Recovered stale jobs", "count", count, "threshold", w.config.StaleJobThreshold)
	}

	return nil
}

func (w *Worker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	logger := w.logger.With("worker_id", workerID)
	logger.Debug("Worker started")

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			logger.Debug("Worker stopping")
			return
		case <-ticker.C:
			// Drain the queue before sleeping again.
			for {
				err := w.processNextJob(ctx, logger)
				if errors.Is(err, repository.ErrNoJobs) {
					break
				}
				if err != nil {
					logger.Error("Failed to process job", "error", err)
					break
				}
				select {
				case <-w.stopCh:
					return
				default:
				}
			}
		}
	}
}

// processNextJob claims and executes a single job.
// Returns repository.ErrNoJobs if nothing is due.
func (w *Worker) processNextJob(ctx context.Context, logger *slog.Logger) error {
	job, err := w.jobs.ClaimNextJob(ctx)
	if err != nil {
		return err
	}

	logger = logger.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts)
	logger.Info("Processing job")

	if job.Attempts > 1 {
		metrics.JobRetried(job.JobType)
	}
	metrics.JobStarted(job.JobType)
	start := time.Now()

	result, err := w.executeJob(ctx, job)
	if err != nil {
		metrics.JobFailed(job.JobType, time.Since(start))
		logger.Error("Job failed", "error", err)
		w.markJobFailed(ctx, job, err)
		return nil
	}

	metrics.JobCompleted(job.JobType, time.Since(start))
	logger.Info("Job completed", "duration_ms", time.Since(start).Milliseconds())
	if err := w.jobs.CompleteJob(ctx, job.ID, result); err != nil {
		return fmt.Errorf("mark job %s completed: %w", job.ID, err)
	}
	return nil
}

// executeJob runs the registered handler under JobTimeout.
func (w *Worker) executeJob(ctx context.Context, job *domain.Job) (json.RawMessage, error) {
	handler, ok := w.handlers[job.JobType]
	if !ok {
		return nil, NewPermanentError(fmt.Errorf("no handler registered for job type: %s", job.JobType))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	return handler.Handle(jobCtx, job.Payload)
}

// markJobFailed records the failure. Permanent errors and exhausted jobs move
// to failed; the store reschedules the rest with backoff.
func (w *Worker) markJobFailed(ctx context.Context, job *domain.Job, jobErr error) {
	permanent := IsPermanent(jobErr)
	if permanent {
		w.logger.Warn("Job failed with permanent error, will not retry", "job_id", job.ID, "error", jobErr)
	}

	if err := w.jobs.FailJob(ctx, job.ID, jobErr.Error(), permanent); err != nil {
		w.logger.Error("Failed to mark job as failed", "job_id", job.ID, "error", err)
	}
}

// RunOnce claims and executes at most one job. It reports whether a job ran.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	err := w.processNextJob(ctx, w.logger)
	if errors.Is(err, repository.ErrNoJobs) {
		return false, nil
	}
	return err == nil, err
}
