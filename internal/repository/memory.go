package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/google/uuid"
)

var _ Store = (*Memory)(nil)

type referralKey struct {
	code  string
	email string
}

// Memory is an in-process Store. Updates to one user are serialized by a
// per-email lock; different users never contend.
type Memory struct {
	mu          sync.RWMutex
	users       map[string]*domain.Entitlement
	codes       map[string]string // referral code -> email
	referrals   map[referralKey]domain.Referral
	predictions map[string]*domain.Prediction
	jobs        map[uuid.UUID]*domain.Job

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewMemory creates an empty store seeded with the featured gallery stories.
func NewMemory() *Memory {
	m := &Memory{
		users:       make(map[string]*domain.Entitlement),
		codes:       make(map[string]string),
		referrals:   make(map[referralKey]domain.Referral),
		predictions: make(map[string]*domain.Prediction),
		jobs:        make(map[uuid.UUID]*domain.Job),
		locks:       make(map[string]*sync.Mutex),
	}
	for _, p := range FeaturedSeed() {
		m.predictions[p.ID] = &p
	}
	return m
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) userLock(email string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[email]
	if !ok {
		l = &sync.Mutex{}
		m.locks[email] = l
	}
	return l
}

func cloneEntitlement(e *domain.Entitlement) *domain.Entitlement {
	c := *e
	c.PaymentInfo = append(json.RawMessage(nil), e.PaymentInfo...)
	return &c
}

// GetUser returns a copy of the record for email.
func (m *Memory) GetUser(_ context.Context, email string) (*domain.Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEntitlement(e), nil
}

// GetUserByReferralCode returns a copy of the code owner's record.
func (m *Memory) GetUserByReferralCode(_ context.Context, code string) (*domain.Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email, ok := m.codes[code]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEntitlement(m.users[email]), nil
}

// InsertUserIfAbsent stores e unless the email is taken.
func (m *Memory) InsertUserIfAbsent(_ context.Context, e *domain.Entitlement) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[e.Email]; ok {
		return false, nil
	}
	if _, taken := m.codes[e.ReferralCode]; taken {
		return false, ErrDuplicateCode
	}
	m.users[e.Email] = cloneEntitlement(e)
	m.codes[e.ReferralCode] = e.Email
	return true, nil
}

// UpdateUser applies fn under the user's lock.
func (m *Memory) UpdateUser(_ context.Context, email string, fn UpdateFunc) (*domain.Entitlement, error) {
	l := m.userLock(email)
	l.Lock()
	defer l.Unlock()

	m.mu.RLock()
	current, ok := m.users[email]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	e := cloneEntitlement(current)
	if err := fn(e); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.users[email] = cloneEntitlement(e)
	m.mu.Unlock()
	return e, nil
}

// CreditReferral records the referral and credits the owner once per pair.
func (m *Memory) CreditReferral(_ context.Context, code, newEmail string, now time.Time) (bool, error) {
	m.mu.RLock()
	owner, ok := m.codes[code]
	m.mu.RUnlock()
	if !ok {
		return false, ErrNotFound
	}

	l := m.userLock(owner)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	key := referralKey{code: code, email: newEmail}
	if _, seen := m.referrals[key]; seen {
		return false, nil
	}
	m.referrals[key] = domain.Referral{
		ReferrerEmail: owner,
		NewUserEmail:  newEmail,
		ReferralCode:  code,
		Credited:      true,
		CreatedAt:     now,
	}
	e := m.users[owner]
	e.QuotaTotal++
	e.ReferralCredits++
	e.UpdatedAt = now
	return true, nil
}

// CreatePrediction stores a copy of p.
func (m *Memory) CreatePrediction(_ context.Context, p *domain.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.predictions[p.ID] = &c
	return nil
}

// GetPrediction returns a copy of the prediction with id.
func (m *Memory) GetPrediction(_ context.Context, id string) (*domain.Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.predictions[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

// ListPredictions returns matching predictions, newest first.
func (m *Memory) ListPredictions(_ context.Context, filter domain.PredictionFilter) ([]domain.Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Prediction
	for _, p := range m.predictions {
		if filter.UserEmail != "" && p.UserEmail != filter.UserEmail {
			continue
		}
		if filter.FeaturedOnly && !p.IsFeatured {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CountFeatured returns the number of featured predictions.
func (m *Memory) CountFeatured(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.predictions {
		if p.IsFeatured {
			n++
		}
	}
	return n, nil
}

// EnqueueJob adds a pending job.
func (m *Memory) EnqueueJob(_ context.Context, params domain.EnqueueJobParams) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	j := &domain.Job{
		ID:          uuid.New(),
		JobType:     params.JobType,
		Payload:     params.Payload,
		Status:      domain.JobStatusPending,
		Priority:    params.Priority,
		MaxAttempts: params.MaxAttempts,
		ScheduledAt: params.ScheduledAt,
		CreatedAt:   now,
	}
	m.jobs[j.ID] = j
	c := *j
	return &c, nil
}

// GetJob returns a copy of the job with id.
func (m *Memory) GetJob(_ context.Context, id uuid.UUID) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *j
	return &c, nil
}

// ClaimNextJob marks the highest priority due job as running.
func (m *Memory) ClaimNextJob(context.Context) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var next *domain.Job
	for _, j := range m.jobs {
		if j.Status != domain.JobStatusPending || j.ScheduledAt.After(now) {
			continue
		}
		if next == nil || j.Priority > next.Priority ||
			(j.Priority == next.Priority && j.ScheduledAt.Before(next.ScheduledAt)) {
			next = j
		}
	}
	if next == nil {
		return nil, ErrNoJobs
	}
	next.Status = domain.JobStatusRunning
	next.StartedAt = &now
	next.Attempts++
	c := *next
	return &c, nil
}

// CompleteJob marks a job as completed.
func (m *Memory) CompleteJob(_ context.Context, id uuid.UUID, result json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	j.Status = domain.JobStatusCompleted
	j.CompletedAt = &now
	j.Result = result
	j.ErrorMessage = ""
	return nil
}

// FailJob records a failed attempt.
func (m *Memory) FailJob(_ context.Context, id uuid.UUID, message string, permanent bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.Status, j.ScheduledAt = nextAfterFailure(j, permanent, time.Now())
	j.ErrorMessage = message
	return nil
}

// RecoverStaleJobs resets jobs running longer than threshold.
func (m *Memory) RecoverStaleJobs(_ context.Context, threshold time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-threshold)
	var n int64
	for _, j := range m.jobs {
		if j.Status == domain.JobStatusRunning && j.StartedAt != nil && j.StartedAt.Before(cutoff) {
			j.Status = domain.JobStatusPending
			j.StartedAt = nil
			n++
		}
	}
	return n, nil
}
