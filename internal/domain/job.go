package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a background job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal returns true if the job will not run again.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is a durable unit of background work.
type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      json.RawMessage
	Status       JobStatus
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ScheduledAt  time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ErrorMessage string
	Result       json.RawMessage
	CreatedAt    time.Time
}

// JobResult is what generation jobs record on completion.
type JobResult struct {
	StorageKey  string `json:"storage_key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// EnqueueJobParams describes a job to be added to the queue.
type EnqueueJobParams struct {
	JobType     string
	Payload     json.RawMessage
	Priority    int32
	MaxAttempts int32
	ScheduledAt time.Time
}
