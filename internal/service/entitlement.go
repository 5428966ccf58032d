// Package service contains the business logic layer.
//
// Services orchestrate interactions between the store, the language model
// and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Transaction coordination
// - Error translation (store errors -> domain errors)
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/DukeRupert/jyotai/internal/astro"
	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/metrics"
	"github.com/DukeRupert/jyotai/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// referralCodeAttempts bounds retries when a freshly generated referral code
// collides with an existing one.
const referralCodeAttempts = 5

var tracer = otel.Tracer("service")

// =============================================================================
// Interface Definition
// =============================================================================

// EntitlementService manages plans, question quotas and referrals.
type EntitlementService interface {
	// GetOrCreate returns the record for email, creating a standard-tier
	// record on first use. Concurrent first calls converge on one record.
	GetOrCreate(ctx context.Context, email string) (*domain.Entitlement, error)

	// Get returns the record for email.
	// Returns domain.ENOTFOUND if the user has never been seen.
	Get(ctx context.Context, email string) (*domain.Entitlement, error)

	// ConsumeOne deducts one question and returns how many remain.
	// Returns domain.EQUOTA when the quota is exhausted.
	ConsumeOne(ctx context.Context, email string) (*domain.Entitlement, int, error)

	// UpdatePlan moves the user onto plan, resetting the quota to the tier
	// constant and starting a fresh period.
	UpdatePlan(ctx context.Context, params UpdatePlanParams) (*domain.Entitlement, error)

	// CreditReferral records that newEmail signed up with code.
	// Returns domain.ENOTFOUND for an unknown code.
	CreditReferral(ctx context.Context, code, newEmail string) (*ReferralResult, error)
}

// UpdatePlanParams contains the input for a plan change.
type UpdatePlanParams struct {
	Email       string
	Plan        string
	PaymentRef  string
	Provider    string          // Payment provider, e.g. "stripe"
	PaymentInfo json.RawMessage // Optional opaque payment document from the client
}

// ReferralResult reports the outcome of CreditReferral.
type ReferralResult struct {
	ReferrerEmail string
	Credited      bool
}

// =============================================================================
// Implementation
// =============================================================================

type entitlementService struct {
	store  repository.Entitlements
	logger *slog.Logger
	now    func() time.Time
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(store repository.Entitlements, logger *slog.Logger) EntitlementService {
	return &entitlementService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// =============================================================================
// GetOrCreate
// =============================================================================

func (s *entitlementService) GetOrCreate(ctx context.Context, email string) (*domain.Entitlement, error) {
	const op = "entitlement.get_or_create"

	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	email = domain.NormalizeEmail(email)
	if err := validateEmail(op, email); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.email", email))

	e, err := s.store.GetUser(ctx, email)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.storeError(span, err, op)
	}

	lostRace := false
	for attempt := 0; attempt < referralCodeAttempts && !lostRace; attempt++ {
		fresh := domain.NewEntitlement(email, astro.ReferralCode(email), s.now())
		created, err := s.store.InsertUserIfAbsent(ctx, fresh)
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, s.storeError(span, err, op)
		}
		if created {
			s.logger.Info("Entitlement created", "email", email, "referral_code", fresh.ReferralCode)
			return fresh, nil
		}
		lostRace = true
	}
	if !lostRace {
		span.SetStatus(codes.Error, "referral code space exhausted")
		s.logger.Error("No unique referral code after retries", "email", email, "attempts", referralCodeAttempts)
		return nil, domain.Internal(repository.ErrDuplicateCode, op, "")
	}

	// Lost the race to a concurrent creator; read the winner.
	e, err = s.store.GetUser(ctx, email)
	if err != nil {
		return nil, s.storeError(span, err, op)
	}
	return e, nil
}

// =============================================================================
// Get
// =============================================================================

func (s *entitlementService) Get(ctx context.Context, email string) (*domain.Entitlement, error) {
	const op = "entitlement.get"

	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	email = domain.NormalizeEmail(email)
	if err := validateEmail(op, email); err != nil {
		return nil, err
	}

	e, err := s.store.GetUser(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NotFound(op, "user", email)
	}
	if err != nil {
		return nil, s.storeError(span, err, op)
	}

	// Reads show the post-rollover view without persisting it.
	rolled, _ := domain.ApplyPeriodRollover(*e, s.now())
	return &rolled, nil
}

// =============================================================================
// ConsumeOne
// =============================================================================

func (s *entitlementService) ConsumeOne(ctx context.Context, email string) (*domain.Entitlement, int, error) {
	const op = "entitlement.consume"

	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	current, err := s.GetOrCreate(ctx, email)
	if err != nil {
		return nil, 0, err
	}

	var rolledOver bool
	updated, err := s.store.UpdateUser(ctx, current.Email, func(e *domain.Entitlement) error {
		now := s.now()
		*e, rolledOver = domain.ApplyPeriodRollover(*e, now)
		if e.QuotaUsed >= e.QuotaTotal {
			return domain.QuotaExceeded(op, e.QuotaUsed, e.QuotaTotal)
		}
		e.QuotaUsed++
		e.UpdatedAt = now
		return nil
	})
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Code == domain.EQUOTA {
			metrics.QuotaDeniedTotal.WithLabelValues(current.Plan.String()).Inc()
			s.logger.Info("Question quota exhausted",
				"email", current.Email,
				"plan", current.Plan,
			)
			span.SetAttributes(attribute.Bool("quota.denied", true))
			return nil, 0, err
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, domain.NotFound(op, "user", current.Email)
		}
		return nil, 0, s.storeError(span, err, op)
	}

	if rolledOver {
		metrics.QuotaRolloversTotal.Inc()
		s.logger.Info("Premium quota period rolled over", "email", updated.Email)
	}
	metrics.QuotaConsumedTotal.WithLabelValues(updated.Plan.String()).Inc()

	remaining := updated.Remaining()
	span.SetAttributes(attribute.Int("quota.remaining", remaining))
	return updated, remaining, nil
}

// =============================================================================
// UpdatePlan
// =============================================================================

func (s *entitlementService) UpdatePlan(ctx context.Context, params UpdatePlanParams) (*domain.Entitlement, error) {
	const op = "entitlement.update_plan"

	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	// An omitted plan must not fall through to ParsePlan's standard default.
	if err := requireFields(op, map[string]string{"email": params.Email, "plan": params.Plan}); err != nil {
		return nil, err
	}
	plan, ok := domain.ParsePlan(params.Plan)
	if !ok {
		return nil, domain.NewValidationError(op, "plan", "Invalid plan. Must be 'standard' or 'premium'.")
	}

	current, err := s.GetOrCreate(ctx, params.Email)
	if err != nil {
		return nil, err
	}

	payment := buildPaymentInfo(params, s.now())

	updated, err := s.store.UpdateUser(ctx, current.Email, func(e *domain.Entitlement) error {
		e.ChangePlan(plan, s.now())
		if payment != nil {
			e.PaymentInfo = payment
		}
		return nil
	})
	if err != nil {
		return nil, s.storeError(span, err, op)
	}

	metrics.PlanChangesTotal.WithLabelValues(plan.String()).Inc()
	s.logger.Info("Plan updated",
		"email", updated.Email,
		"plan", plan,
		"payment_ref", params.PaymentRef,
	)
	return updated, nil
}

// buildPaymentInfo merges the client-supplied payment document with the
// payment reference. It returns nil when there is nothing to record.
func buildPaymentInfo(params UpdatePlanParams, now time.Time) json.RawMessage {
	if params.PaymentRef == "" && len(params.PaymentInfo) == 0 {
		return nil
	}

	info := map[string]any{}
	if len(params.PaymentInfo) > 0 {
		// Non-object documents are kept under "details".
		if err := json.Unmarshal(params.PaymentInfo, &info); err != nil {
			info = map[string]any{"details": json.RawMessage(params.PaymentInfo)}
		}
		if info == nil {
			// "null" decodes to a nil map
			info = map[string]any{}
		}
	}
	if params.PaymentRef != "" {
		info["payment_ref"] = params.PaymentRef
	}
	if params.Provider != "" {
		info["provider"] = params.Provider
	}
	info["updated_at"] = now.Format(time.RFC3339)

	out, err := json.Marshal(info)
	if err != nil {
		return nil
	}
	return out
}

// =============================================================================
// CreditReferral
// =============================================================================

func (s *entitlementService) CreditReferral(ctx context.Context, code, newEmail string) (*ReferralResult, error) {
	const op = "entitlement.credit_referral"

	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	code = astro.NormalizeReferralCode(code)
	newEmail = domain.NormalizeEmail(newEmail)
	if code == "" || newEmail == "" {
		return nil, domain.Invalid(op, "Missing referral code or email")
	}
	if err := validateEmail(op, newEmail); err != nil {
		return nil, err
	}

	owner, err := s.store.GetUserByReferralCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.ReferralsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.Errorf(domain.ENOTFOUND, op, "Invalid referral code")
	}
	if err != nil {
		return nil, s.storeError(span, err, op)
	}
	if owner.Email == newEmail {
		return nil, domain.NewValidationError(op, "new_user_email", "You cannot use your own referral code.")
	}

	credited, err := s.store.CreditReferral(ctx, code, newEmail, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		metrics.ReferralsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.Errorf(domain.ENOTFOUND, op, "Invalid referral code")
	}
	if err != nil {
		return nil, s.storeError(span, err, op)
	}

	if credited {
		metrics.ReferralsTotal.WithLabelValues("credited").Inc()
		s.logger.Info("Referral credited", "referrer", owner.Email, "new_user", newEmail)
	} else {
		metrics.ReferralsTotal.WithLabelValues("duplicate").Inc()
		s.logger.Info("Referral replay ignored", "referrer", owner.Email, "new_user", newEmail)
	}

	return &ReferralResult{ReferrerEmail: owner.Email, Credited: credited}, nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// storeError records err on span and converts it to a StorageUnavailable
// error. Domain errors produced inside update callbacks pass through.
func (s *entitlementService) storeError(span trace.Span, err error, op string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	s.logger.Error("Entitlement store failure", "op", op, "error", err)
	return domain.StorageUnavailable(err, op)
}

// requireFields reports every blank value as missing.
func requireFields(op string, fields map[string]string) error {
	var ve *domain.ValidationError
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			if ve == nil {
				ve = &domain.ValidationError{Op: op, Summary: "Missing required fields.", Fields: map[string]string{}}
			}
			ve.Fields[name] = "is required"
		}
	}
	if ve == nil {
		return nil
	}
	return ve
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validateEmail rejects identities that cannot be an email address.
func validateEmail(op, email string) error {
	if email == "" {
		return domain.NewValidationError(op, "email", "Email is required.")
	}
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return domain.NewValidationError(op, "email", "Invalid email address.")
	}
	return nil
}
