package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/jyotai/internal/billing"
	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/service"
	"github.com/stripe/stripe-go/v79"
)

// webhookTimeout bounds the plan update triggered by one webhook event.
const webhookTimeout = 10 * time.Second

// BillingHandler creates Stripe checkouts and applies completed payments.
type BillingHandler struct {
	billing      billing.Service
	entitlements service.EntitlementService
	baseURL      string
	logger       *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
// billingService may be nil when Stripe is not configured.
func NewBillingHandler(billingService billing.Service, entitlements service.EntitlementService, baseURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing:      billingService,
		entitlements: entitlements,
		baseURL:      strings.TrimRight(baseURL, "/"),
		logger:       logger,
	}
}

// RegisterRoutes registers billing routes.
//
// Routes:
//   - POST /billing/checkout
//   - POST /webhooks/stripe (public, authenticated by signature)
func (h *BillingHandler) RegisterRoutes(rt *Router) {
	rt.HandleFunc("POST /billing/checkout", h.CreateCheckout)
	rt.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// =============================================================================
// POST /billing/checkout
// =============================================================================

type checkoutRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type checkoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// CreateCheckout handles POST /billing/checkout.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "handler.billing_checkout"

	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EUNAVAILABLE, op, "Billing is not configured."))
		return
	}

	var req checkoutRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := validateStruct(op, req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	email := domain.NormalizeEmail(req.Email)
	successURL := h.baseURL + service.UpgradeURL + "?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := h.baseURL + service.UpgradeURL + "?canceled=true"

	sess, err := h.billing.CreateCheckoutSession(r.Context(), email, successURL, cancelURL)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Upstream(err, op, "Failed to start checkout."))
		return
	}

	h.logger.Info("checkout session created", "email", email, "session_id", sess.ID)
	writeJSON(w, http.StatusOK, checkoutResponse{URL: sess.URL, SessionID: sess.ID})
}

// =============================================================================
// POST /webhooks/stripe
// =============================================================================

// HandleStripeWebhook processes incoming Stripe webhook events.
func (h *BillingHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	// Read body (limit to 64KB)
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	event, err := h.billing.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)

	switch event.Type {
	case billing.EventCheckoutCompleted:
		// Stripe retries on non-2xx, so only store failures are reported back.
		if err := h.handleCheckoutCompleted(r.Context(), event); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *BillingHandler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	sess, err := billing.SessionFromEvent(event)
	if err != nil {
		h.logger.Error("failed to parse checkout session", "error", err)
		return nil
	}
	if sess.Email == "" || sess.Plan == "" {
		h.logger.Warn("checkout session missing email or plan metadata", "session_id", sess.ID)
		return nil
	}
	if !sess.Paid {
		h.logger.Info("checkout completed without payment", "session_id", sess.ID)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), webhookTimeout)
	defer cancel()

	ent, err := h.entitlements.UpdatePlan(ctx, service.UpdatePlanParams{
		Email:      sess.Email,
		Plan:       sess.Plan,
		PaymentRef: sess.ID,
		Provider:   "stripe",
	})
	if err != nil {
		h.logger.Error("failed to apply checkout", "error", err, "session_id", sess.ID, "email", sess.Email)
		if domain.IsServerSide(domain.ErrorCode(err)) {
			return err
		}
		return nil
	}

	h.logger.Info("plan upgraded from checkout", "email", ent.Email, "plan", ent.Plan, "session_id", sess.ID)
	return nil
}
