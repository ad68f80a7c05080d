package domain

import "fmt"

// BackfillPolicy decides how many payouts an overdue investment receives in one cycle.
type BackfillPolicy string

const (
	// BackfillSingle pays once at the run instant regardless of how overdue the investment is.
	BackfillSingle BackfillPolicy = "single"
	// BackfillCatchUp pays one payout per whole elapsed period.
	BackfillCatchUp BackfillPolicy = "catchup"
)

func ParseBackfillPolicy(s string) (BackfillPolicy, error) {
	switch p := BackfillPolicy(s); p {
	case BackfillSingle, BackfillCatchUp:
		return p, nil
	}
	return "", fmt.Errorf("unknown payout backfill policy %q", s)
}

// ReferralPolicy decides which completed deposits credit the referrer.
type ReferralPolicy string

const (
	ReferralEveryDeposit ReferralPolicy = "every"
	ReferralFirstDeposit ReferralPolicy = "first"
)

func ParseReferralPolicy(s string) (ReferralPolicy, error) {
	switch p := ReferralPolicy(s); p {
	case ReferralEveryDeposit, ReferralFirstDeposit:
		return p, nil
	}
	return "", fmt.Errorf("unknown referral bonus policy %q", s)
}
