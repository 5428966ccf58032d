// Package repository persists entitlements, predictions, referrals and
// background jobs.
//
// Two stores implement Store: Postgres for production and Memory for local
// development and tests. Both serialize read-modify-write cycles on a single
// user record so concurrent quota consumption never overshoots.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("repository: not found")

	// ErrNoJobs is returned by ClaimNextJob when the queue is empty.
	ErrNoJobs = errors.New("repository: no jobs available")

	// ErrDuplicateCode is returned by InsertUserIfAbsent when the new
	// record's referral code already belongs to another user.
	ErrDuplicateCode = errors.New("repository: referral code already in use")
)

// UpdateFunc mutates a locked entitlement. Returning an error aborts the
// update and leaves the stored record untouched.
type UpdateFunc func(e *domain.Entitlement) error

// Entitlements stores per-user plan and quota records.
type Entitlements interface {
	GetUser(ctx context.Context, email string) (*domain.Entitlement, error)
	GetUserByReferralCode(ctx context.Context, code string) (*domain.Entitlement, error)

	// InsertUserIfAbsent stores e unless a record with the same email already
	// exists. It reports whether a row was created.
	InsertUserIfAbsent(ctx context.Context, e *domain.Entitlement) (bool, error)

	// UpdateUser loads the record for email under an exclusive lock, applies
	// fn and persists the result atomically.
	UpdateUser(ctx context.Context, email string, fn UpdateFunc) (*domain.Entitlement, error)

	// CreditReferral records that newEmail used code and, only if this is the
	// first time the pair has been seen, credits the code's owner with one
	// extra question. Both happen in one transaction.
	CreditReferral(ctx context.Context, code, newEmail string, now time.Time) (credited bool, err error)
}

// Predictions stores prediction documents.
type Predictions interface {
	CreatePrediction(ctx context.Context, p *domain.Prediction) error
	GetPrediction(ctx context.Context, id string) (*domain.Prediction, error)
	ListPredictions(ctx context.Context, filter domain.PredictionFilter) ([]domain.Prediction, error)
	CountFeatured(ctx context.Context) (int, error)
}

// Jobs is the durable background job queue.
type Jobs interface {
	EnqueueJob(ctx context.Context, params domain.EnqueueJobParams) (*domain.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// ClaimNextJob atomically marks the next runnable job as running and
	// returns it. It returns ErrNoJobs when nothing is due.
	ClaimNextJob(ctx context.Context) (*domain.Job, error)
	CompleteJob(ctx context.Context, id uuid.UUID, result json.RawMessage) error

	// FailJob records a failed attempt. Permanent failures, and jobs that have
	// used all their attempts, move to failed; others are rescheduled with
	// exponential backoff.
	FailJob(ctx context.Context, id uuid.UUID, message string, permanent bool) error

	// RecoverStaleJobs resets jobs stuck in running for longer than threshold.
	RecoverStaleJobs(ctx context.Context, threshold time.Duration) (int64, error)
}

// Store is the complete document store.
type Store interface {
	Entitlements
	Predictions
	Jobs

	Ping(ctx context.Context) error
}

// retryBackoff is the delay before attempt n+1 of a failed job.
func retryBackoff(attempts int32) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 10 {
		attempts = 10
	}
	return time.Duration(1<<uint(attempts-1)) * 30 * time.Second
}
