package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const jobColumns = `id, job_type, payload, status, priority, attempts, max_attempts,
	scheduled_at, started_at, completed_at, error_message, result, created_at`

const enqueueJob = `INSERT INTO jobs (id, job_type, payload, priority, max_attempts, scheduled_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + jobColumns

const getJob = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

const dequeueJob = `SELECT ` + jobColumns + ` FROM jobs
WHERE status = 'pending' AND scheduled_at <= NOW()
ORDER BY priority DESC, scheduled_at
LIMIT 1
FOR UPDATE SKIP LOCKED`

const markJobStarted = `UPDATE jobs
SET status = 'running', started_at = NOW(), attempts = attempts + 1
WHERE id = $1`

const markJobCompleted = `UPDATE jobs
SET status = 'completed', completed_at = NOW(), result = $2, error_message = ''
WHERE id = $1`

const markJobFailed = `UPDATE jobs
SET status = $2, error_message = $3, scheduled_at = $4
WHERE id = $1`

const recoverStaleJobs = `UPDATE jobs
SET status = 'pending', started_at = NULL
WHERE status = 'running' AND started_at < $1`

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		j       domain.Job
		status  string
		payload []byte
		result  []byte
	)
	err := row.Scan(
		&j.ID, &j.JobType, &payload, &status, &j.Priority, &j.Attempts, &j.MaxAttempts,
		&j.ScheduledAt, &j.StartedAt, &j.CompletedAt, &j.ErrorMessage, &result, &j.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	j.Status = domain.JobStatus(status)
	j.Payload = json.RawMessage(payload)
	j.Result = json.RawMessage(result)
	return &j, nil
}

// EnqueueJob inserts a pending job.
func (p *Postgres) EnqueueJob(ctx context.Context, params domain.EnqueueJobParams) (*domain.Job, error) {
	ctx, span := startSpan(ctx, "EnqueueJob", "jobs")
	defer span.End()

	job, err := scanJob(p.pool.QueryRow(ctx, enqueueJob,
		uuid.New(), params.JobType, []byte(params.Payload), params.Priority, params.MaxAttempts, params.ScheduledAt,
	))
	if err != nil {
		spanError(span, err)
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

// GetJob loads a job by ID.
func (p *Postgres) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	ctx, span := startSpan(ctx, "GetJob", "jobs")
	defer span.End()

	job, err := scanJob(p.pool.QueryRow(ctx, getJob, id))
	spanError(span, err)
	return job, err
}

// ClaimNextJob dequeues the highest priority due job. SKIP LOCKED lets
// several workers poll concurrently without blocking on each other.
func (p *Postgres) ClaimNextJob(ctx context.Context) (*domain.Job, error) {
	ctx, span := startSpan(ctx, "ClaimNextJob", "jobs")
	defer span.End()

	var job *domain.Job
	err := p.inTx(ctx, func(tx pgx.Tx) error {
		j, err := scanJob(tx.QueryRow(ctx, dequeueJob))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrNoJobs
			}
			return fmt.Errorf("dequeue job: %w", err)
		}
		if _, err := tx.Exec(ctx, markJobStarted, j.ID); err != nil {
			return fmt.Errorf("mark job started: %w", err)
		}
		j.Status = domain.JobStatusRunning
		j.Attempts++
		job = j
		return nil
	})
	spanError(span, err)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// CompleteJob marks a job as completed with its result.
func (p *Postgres) CompleteJob(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	ctx, span := startSpan(ctx, "CompleteJob", "jobs")
	defer span.End()

	if len(result) == 0 {
		result = json.RawMessage("{}")
	}
	if _, err := p.pool.Exec(ctx, markJobCompleted, id, []byte(result)); err != nil {
		spanError(span, err)
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// FailJob records a failed attempt.
func (p *Postgres) FailJob(ctx context.Context, id uuid.UUID, message string, permanent bool) error {
	ctx, span := startSpan(ctx, "FailJob", "jobs")
	defer span.End()

	job, err := scanJob(p.pool.QueryRow(ctx, getJob, id))
	if err != nil {
		spanError(span, err)
		return fmt.Errorf("load job: %w", err)
	}

	status, next := nextAfterFailure(job, permanent, time.Now())
	if _, err := p.pool.Exec(ctx, markJobFailed, id, string(status), message, next); err != nil {
		spanError(span, err)
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// RecoverStaleJobs resets long-running jobs back to pending.
func (p *Postgres) RecoverStaleJobs(ctx context.Context, threshold time.Duration) (int64, error) {
	ctx, span := startSpan(ctx, "RecoverStaleJobs", "jobs")
	defer span.End()

	tag, err := p.pool.Exec(ctx, recoverStaleJobs, time.Now().Add(-threshold))
	if err != nil {
		spanError(span, err)
		return 0, fmt.Errorf("recover stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// nextAfterFailure decides where a failed job goes and when it runs again.
func nextAfterFailure(job *domain.Job, permanent bool, now time.Time) (domain.JobStatus, time.Time) {
	if permanent || job.Attempts >= job.MaxAttempts {
		return domain.JobStatusFailed, job.ScheduledAt
	}
	return domain.JobStatusPending, now.Add(retryBackoff(job.Attempts))
}
