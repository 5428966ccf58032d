package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/repository"
)

// Job type constants. They must match the JobHandler.Type() values.
const (
	JobTypeGenerateReport = "generate_report"
	JobTypeGenerateMeme   = "generate_meme"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// DefaultMaxAttempts is used when no WithMaxAttempts option is given.
const DefaultMaxAttempts = 3

// ArtifactPayload is the payload of both artifact job types.
type ArtifactPayload struct {
	PredictionID string `json:"prediction_id"`
}

// EnqueueOption customizes enqueue parameters.
type EnqueueOption func(*domain.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *domain.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *domain.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *domain.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob marshals payload and adds a job of jobType to the queue.
func EnqueueJob(
	ctx context.Context,
	jobs repository.Jobs,
	jobType string,
	payload any,
	opts ...EnqueueOption,
) (*domain.Job, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	params := domain.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: DefaultMaxAttempts,
		ScheduledAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&params)
	}

	job, err := jobs.EnqueueJob(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

// EnqueueGenerateReport queues rendering of the PDF report for a prediction.
func EnqueueGenerateReport(ctx context.Context, jobs repository.Jobs, predictionID string, opts ...EnqueueOption) (*domain.Job, error) {
	return EnqueueJob(ctx, jobs, JobTypeGenerateReport, ArtifactPayload{PredictionID: predictionID}, opts...)
}

// EnqueueGenerateMeme queues rendering of the shareable meme for a prediction.
func EnqueueGenerateMeme(ctx context.Context, jobs repository.Jobs, predictionID string, opts ...EnqueueOption) (*domain.Job, error) {
	return EnqueueJob(ctx, jobs, JobTypeGenerateMeme, ArtifactPayload{PredictionID: predictionID}, opts...)
}
