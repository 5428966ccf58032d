// Package domain contains core business types and interfaces.
//
// This file defines the entitlement record: a user's plan tier and the
// question quota that goes with it.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Plan represents the pricing tier of a user.
type Plan string

const (
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

// String returns the string representation of the plan.
func (p Plan) String() string {
	return string(p)
}

// IsValid returns true if the plan is a recognized value.
func (p Plan) IsValid() bool {
	switch p {
	case PlanStandard, PlanPremium:
		return true
	}
	return false
}

// ParsePlan normalizes s into a Plan. Empty input yields PlanStandard.
func ParsePlan(s string) (Plan, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PlanStandard, true
	}
	p := Plan(s)
	return p, p.IsValid()
}

// TierQuotas maps plans to the number of questions granted per period.
var TierQuotas = map[Plan]int{
	PlanStandard: 3,
	PlanPremium:  20,
}

// GetTierQuota returns the quota for a plan, defaulting to standard for unknown plans.
func GetTierQuota(plan Plan) int {
	if quota, ok := TierQuotas[plan]; ok {
		return quota
	}
	return TierQuotas[PlanStandard]
}

// Entitlement is the per-user record tracking plan tier and question usage.
//
// QuotaUsed never exceeds QuotaTotal. Every mutation in the service layer and
// the database CHECK constraint preserve that.
type Entitlement struct {
	Email           string
	Plan            Plan
	QuotaTotal      int
	QuotaUsed       int
	PeriodStart     time.Time
	ReferralCode    string
	ReferralCredits int
	PaymentInfo     json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewEntitlement returns a fresh standard-tier record for email.
func NewEntitlement(email, referralCode string, now time.Time) *Entitlement {
	return &Entitlement{
		Email:        email,
		Plan:         PlanStandard,
		QuotaTotal:   GetTierQuota(PlanStandard),
		PeriodStart:  now,
		ReferralCode: referralCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Remaining returns the number of questions left in the current period.
func (e *Entitlement) Remaining() int {
	if r := e.QuotaTotal - e.QuotaUsed; r > 0 {
		return r
	}
	return 0
}

// IsPremium returns true if the record is on the premium plan.
func (e *Entitlement) IsPremium() bool {
	return e.Plan == PlanPremium
}

// ApplyPeriodRollover resets usage when now falls in a later calendar month
// (UTC) than the record's period start. Only premium records roll over;
// standard quota is a one-time allowance.
//
// Calling it again within the same month is a no-op. The returned bool
// reports whether a reset happened.
func ApplyPeriodRollover(e Entitlement, now time.Time) (Entitlement, bool) {
	if e.Plan != PlanPremium {
		return e, false
	}
	if !laterMonth(now, e.PeriodStart) {
		return e, false
	}
	e.QuotaUsed = 0
	e.PeriodStart = now
	return e, true
}

// laterMonth reports whether a is in a calendar month after b.
func laterMonth(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	if a.Year() != b.Year() {
		return a.Year() > b.Year()
	}
	return a.Month() > b.Month()
}

// ChangePlan moves the record onto plan and starts a fresh period. The quota
// total is reset to the tier constant; earlier referral bonuses do not carry over.
func (e *Entitlement) ChangePlan(plan Plan, now time.Time) {
	e.Plan = plan
	e.QuotaTotal = GetTierQuota(plan)
	e.QuotaUsed = 0
	e.PeriodStart = now
	e.UpdatedAt = now
}

// NormalizeEmail lower-cases and trims an identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
