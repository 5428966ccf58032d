// Package billing integrates Stripe Checkout for premium upgrades.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Metadata keys written on checkout sessions and read back by the webhook.
const (
	MetadataEmail = "email"
	MetadataPlan  = "plan"
)

// EventCheckoutCompleted is the only webhook event that changes plans.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrNotPaid is returned by VerifyPayment for sessions that have not been paid.
var ErrNotPaid = errors.New("billing: checkout session not paid")

// Service defines the billing operations used by the HTTP layer.
type Service interface {
	// CreateCheckoutSession starts a premium checkout for email and returns
	// the hosted checkout URL.
	CreateCheckoutSession(ctx context.Context, email, successURL, cancelURL string) (*CheckoutSession, error)

	// VerifyPayment confirms that a checkout session has been paid and
	// returns who it was for. Returns ErrNotPaid for open or unpaid sessions.
	VerifyPayment(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)
}

// CheckoutSession is the subset of a Stripe checkout session the service needs.
type CheckoutSession struct {
	ID    string
	URL   string
	Email string
	Plan  string
	Paid  bool
}

// Config holds the Stripe credentials and price.
type Config struct {
	SecretKey      string
	WebhookSecret  string
	PremiumPriceID string
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret  string
	premiumPriceID string
}

// NewStripeService creates a new Stripe billing service.
//
// The secret key authenticates API calls, the webhook secret verifies
// incoming events and the premium price is charged at checkout.
func NewStripeService(cfg Config) Service {
	stripe.Key = cfg.SecretKey

	return &stripeService{
		webhookSecret:  cfg.WebhookSecret,
		premiumPriceID: cfg.PremiumPriceID,
	}
}

func (s *stripeService) CreateCheckoutSession(ctx context.Context, email, successURL, cancelURL string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.premiumPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Context = ctx
	params.AddMetadata(MetadataEmail, email)
	params.AddMetadata(MetadataPlan, "premium")

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return FromStripeSession(sess), nil
}

func (s *stripeService) VerifyPayment(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get checkout session: %w", err)
	}
	out := FromStripeSession(sess)
	if !out.Paid {
		return out, ErrNotPaid
	}
	return out, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

// FromStripeSession extracts the fields the service needs. The email comes
// from metadata first, then from the customer details Stripe collected.
func FromStripeSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:  sess.ID,
		URL: sess.URL,
		Paid: sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired,
	}
	if sess.Metadata != nil {
		out.Email = sess.Metadata[MetadataEmail]
		out.Plan = sess.Metadata[MetadataPlan]
	}
	if out.Email == "" {
		if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
			out.Email = sess.CustomerDetails.Email
		} else {
			out.Email = sess.CustomerEmail
		}
	}
	return out
}

// SessionFromEvent decodes the checkout session carried by a webhook event.
func SessionFromEvent(event stripe.Event) (*CheckoutSession, error) {
	if event.Data == nil {
		return nil, errors.New("billing: event has no data")
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return FromStripeSession(&sess), nil
}

// IsCheckoutRef reports whether a payment reference names a checkout session.
func IsCheckoutRef(ref string) bool {
	return strings.HasPrefix(ref, "cs_")
}
