package billing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

func TestFromStripeSession(t *testing.T) {
	tests := []struct {
		name      string
		sess      *stripe.CheckoutSession
		wantEmail string
		wantPlan  string
		wantPaid  bool
	}{
		{
			name: "metadata wins",
			sess: &stripe.CheckoutSession{
				ID:              "cs_test_1",
				PaymentStatus:   stripe.CheckoutSessionPaymentStatusPaid,
				Metadata:        map[string]string{MetadataEmail: "meta@example.com", MetadataPlan: "premium"},
				CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "details@example.com"},
			},
			wantEmail: "meta@example.com",
			wantPlan:  "premium",
			wantPaid:  true,
		},
		{
			name: "falls back to customer details",
			sess: &stripe.CheckoutSession{
				ID:              "cs_test_2",
				PaymentStatus:   stripe.CheckoutSessionPaymentStatusUnpaid,
				CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "details@example.com"},
			},
			wantEmail: "details@example.com",
		},
		{
			name: "falls back to customer email",
			sess: &stripe.CheckoutSession{
				ID:            "cs_test_3",
				PaymentStatus: stripe.CheckoutSessionPaymentStatusNoPaymentRequired,
				CustomerEmail: "plain@example.com",
			},
			wantEmail: "plain@example.com",
			wantPaid:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromStripeSession(tt.sess)
			assert.Equal(t, tt.sess.ID, got.ID)
			assert.Equal(t, tt.wantEmail, got.Email)
			assert.Equal(t, tt.wantPlan, got.Plan)
			assert.Equal(t, tt.wantPaid, got.Paid)
		})
	}
}

func TestSessionFromEvent(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"id":             "cs_test_9",
		"object":         "checkout.session",
		"payment_status": "paid",
		"metadata":       map[string]string{"email": "a@example.com", "plan": "premium"},
	})
	require.NoError(t, err)

	sess, err := SessionFromEvent(stripe.Event{
		Type: EventCheckoutCompleted,
		Data: &stripe.EventData{Raw: raw},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_9", sess.ID)
	assert.Equal(t, "a@example.com", sess.Email)
	assert.Equal(t, "premium", sess.Plan)
	assert.True(t, sess.Paid)

	_, err = SessionFromEvent(stripe.Event{})
	assert.Error(t, err)
}

func TestIsCheckoutRef(t *testing.T) {
	assert.True(t, IsCheckoutRef("cs_test_123"))
	assert.False(t, IsCheckoutRef("pi_123"))
	assert.False(t, IsCheckoutRef(""))
}
