package domain

import "time"

// Referral records one use of a referral code by a new user.
type Referral struct {
	ReferrerEmail string
	NewUserEmail  string
	ReferralCode  string
	Credited      bool
	CreatedAt     time.Time
}
