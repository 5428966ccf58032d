package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/jyotai/internal/billing"
	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/service"
)

// UserHandler serves plan changes, referrals and user lookups.
type UserHandler struct {
	entitlements service.EntitlementService
	billing      billing.Service
	logger       *slog.Logger
}

// NewUserHandler creates a new UserHandler.
// billingService may be nil when Stripe is not configured, in which case
// payment references are recorded without verification.
func NewUserHandler(entitlements service.EntitlementService, billingService billing.Service, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		entitlements: entitlements,
		billing:      billingService,
		logger:       logger,
	}
}

// RegisterRoutes registers user routes.
//
// Routes:
//   - POST /user/updatePlan
//   - POST /referral
//   - GET /user/{email}
func (h *UserHandler) RegisterRoutes(rt *Router) {
	rt.HandleFunc("POST /user/updatePlan", h.UpdatePlan)
	rt.HandleFunc("POST /referral", h.Referral)
	rt.HandleFunc("GET /user/{email}", h.Get)
}

// userView is the public JSON form of an entitlement record.
type userView struct {
	Email           string          `json:"email"`
	Plan            domain.Plan     `json:"plan"`
	QuotaTotal      int             `json:"quota_total"`
	QuotaUsed       int             `json:"quota_used"`
	QuotaRemaining  int             `json:"quota_remaining"`
	PeriodStart     time.Time       `json:"period_start"`
	ReferralCode    string          `json:"referral_code"`
	ReferralCredits int             `json:"referral_credits"`
	PaymentInfo     json.RawMessage `json:"payment_info,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func newUserView(e *domain.Entitlement) userView {
	return userView{
		Email:           e.Email,
		Plan:            e.Plan,
		QuotaTotal:      e.QuotaTotal,
		QuotaUsed:       e.QuotaUsed,
		QuotaRemaining:  e.Remaining(),
		PeriodStart:     e.PeriodStart,
		ReferralCode:    e.ReferralCode,
		ReferralCredits: e.ReferralCredits,
		PaymentInfo:     e.PaymentInfo,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// =============================================================================
// POST /user/updatePlan
// =============================================================================

type updatePlanRequest struct {
	Email       string          `json:"email" validate:"max=254"`
	Plan        string          `json:"plan" validate:"max=32"`
	PaymentInfo json.RawMessage `json:"payment_info"`
	PaymentRef  string          `json:"payment_ref" validate:"max=255"`
}

type updatePlanResponse struct {
	Success  bool     `json:"success"`
	UserData userView `json:"user_data"`
}

// UpdatePlan handles POST /user/updatePlan.
func (h *UserHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	const op = "handler.update_plan"

	var req updatePlanRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := validateStruct(op, req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	params := service.UpdatePlanParams{
		Email:       req.Email,
		Plan:        req.Plan,
		PaymentRef:  req.PaymentRef,
		PaymentInfo: req.PaymentInfo,
	}
	if err := h.verifyPayment(r, op, &params); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	ent, err := h.entitlements.UpdatePlan(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, updatePlanResponse{Success: true, UserData: newUserView(ent)})
}

// verifyPayment checks premium upgrades that cite a Stripe checkout session.
// Other references are recorded as given.
func (h *UserHandler) verifyPayment(r *http.Request, op string, params *service.UpdatePlanParams) error {
	if h.billing == nil || !billing.IsCheckoutRef(params.PaymentRef) {
		return nil
	}
	if plan, ok := domain.ParsePlan(params.Plan); !ok || plan != domain.PlanPremium {
		return nil
	}

	sess, err := h.billing.VerifyPayment(r.Context(), params.PaymentRef)
	if errors.Is(err, billing.ErrNotPaid) {
		return domain.Invalid(op, "Payment has not been completed.")
	}
	if err != nil {
		return domain.Upstream(err, op, "Failed to verify payment.")
	}
	if sess.Email != "" && domain.NormalizeEmail(sess.Email) != domain.NormalizeEmail(params.Email) {
		return domain.Invalid(op, "Payment reference does not belong to this email.")
	}

	params.Provider = "stripe"
	return nil
}

// =============================================================================
// POST /referral
// =============================================================================

type referralRequest struct {
	ReferralCode string `json:"referral_code" validate:"max=32"`
	NewUserEmail string `json:"new_user_email" validate:"max=254"`
}

type referralResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Referral handles POST /referral.
func (h *UserHandler) Referral(w http.ResponseWriter, r *http.Request) {
	const op = "handler.referral"

	var req referralRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := validateStruct(op, req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	res, err := h.entitlements.CreditReferral(r.Context(), req.ReferralCode, req.NewUserEmail)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	msg := "Referral credited successfully."
	if !res.Credited {
		msg = "Referral already recorded."
	}
	writeJSON(w, http.StatusOK, referralResponse{Success: true, Message: msg})
}

// =============================================================================
// GET /user/{email}
// =============================================================================

// Get handles GET /user/{email}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ent, err := h.entitlements.Get(r.Context(), r.PathValue("email"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": newUserView(ent)})
}
