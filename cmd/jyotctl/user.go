package main

import (
	"encoding/json"
	"time"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/service"
	"github.com/spf13/cobra"
)

// entitlementJSON is the printed form of a user record.
type entitlementJSON struct {
	Email           string          `json:"email"`
	Plan            domain.Plan     `json:"plan"`
	QuotaTotal      int             `json:"quota_total"`
	QuotaUsed       int             `json:"quota_used"`
	QuotaRemaining  int             `json:"quota_remaining"`
	PeriodStart     time.Time       `json:"period_start"`
	ReferralCode    string          `json:"referral_code"`
	ReferralCredits int             `json:"referral_credits"`
	PaymentInfo     json.RawMessage `json:"payment_info,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func printEntitlement(cmd *cobra.Command, e *domain.Entitlement) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(entitlementJSON{
		Email:           e.Email,
		Plan:            e.Plan,
		QuotaTotal:      e.QuotaTotal,
		QuotaUsed:       e.QuotaUsed,
		QuotaRemaining:  e.Remaining(),
		PeriodStart:     e.PeriodStart,
		ReferralCode:    e.ReferralCode,
		ReferralCredits: e.ReferralCredits,
		PaymentInfo:     e.PaymentInfo,
		UpdatedAt:       e.UpdatedAt,
	})
}

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Inspect and change user entitlements",
	}
	cmd.AddCommand(newUserShowCmd(a), newUserSetPlanCmd(a))
	return cmd
}

func newUserShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <email>",
		Short: "Print a user's plan and quota as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer closeStore()

			e, err := service.NewEntitlementService(store, a.logger()).Get(cmd.Context(), args[0])
			if err != nil {
				return cliError(err)
			}
			return printEntitlement(cmd, e)
		},
	}
}

func newUserSetPlanCmd(a *app) *cobra.Command {
	var paymentRef string

	cmd := &cobra.Command{
		Use:   "set-plan <email> <plan>",
		Short: "Move a user onto a plan and reset their quota",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer closeStore()

			e, err := service.NewEntitlementService(store, a.logger()).UpdatePlan(cmd.Context(), service.UpdatePlanParams{
				Email:      args[0],
				Plan:       args[1],
				PaymentRef: paymentRef,
				Provider:   "manual",
			})
			if err != nil {
				return cliError(err)
			}
			return printEntitlement(cmd, e)
		},
	}

	cmd.Flags().StringVar(&paymentRef, "payment-ref", "", "payment reference to record with the change")
	return cmd
}
