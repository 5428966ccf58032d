package astro

import (
	"math/rand/v2"
	"strings"
)

const referralAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ReferralPrefix starts every referral code.
const ReferralPrefix = "JYOT"

// ReferralCode derives a shareable code from an email address: the prefix,
// the first three characters of the address upper-cased, then four random
// base36 characters.
func ReferralCode(email string) string {
	head := email
	if len(head) > 3 {
		head = head[:3]
	}

	var b strings.Builder
	b.Grow(len(ReferralPrefix) + 7)
	b.WriteString(ReferralPrefix)
	b.WriteString(strings.ToUpper(head))
	for range 4 {
		b.WriteByte(referralAlphabet[rand.IntN(len(referralAlphabet))])
	}
	return b.String()
}

// NormalizeReferralCode trims and upper-cases user input.
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
