package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int        `db:"id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Phone        string     `db:"phone"`
	Verified     bool       `db:"verified"`
	ReferralCode string     `db:"referral_code"`
	ReferredBy   *string    `db:"referred_by"`
	CreatedAt    time.Time  `db:"created_at"`
	LastLogin    *time.Time `db:"last_login"`
}

type Investment struct {
	ID         int             `db:"id"`
	UserID     int             `db:"user_id"`
	Amount     decimal.Decimal `db:"amount"`
	Plan       Plan            `db:"plan"`
	StartDate  time.Time       `db:"start_date"`
	LastPayout *time.Time      `db:"last_payout"`
	Active     bool            `db:"active"`
}

// DueCursor marks a position in the due scan, ordered by (DueSince, ID).
type DueCursor struct {
	Since time.Time
	ID    int
}

// Cursor is the scan position just past i.
func (i Investment) Cursor() DueCursor {
	return DueCursor{Since: i.DueSince(), ID: i.ID}
}

// DueSince is the instant the current payout window opened.
func (i Investment) DueSince() time.Time {
	if i.LastPayout != nil {
		return *i.LastPayout
	}
	return i.StartDate
}

// IsDue reports whether at least one full payout period has elapsed at now.
func (i Investment) IsDue(now time.Time) bool {
	return i.Active && !now.Before(i.DueSince().Add(PayoutPeriod))
}

type Transaction struct {
	ID            int               `db:"id"`
	UserID        int               `db:"user_id"`
	InvestmentID  *int              `db:"investment_id"`
	Amount        decimal.Decimal   `db:"amount"`
	Type          TransactionType   `db:"type"`
	Status        TransactionStatus `db:"status"`
	PaymentMethod PaymentMethod     `db:"payment_method"`
	Reference     string            `db:"reference"`
	CreatedAt     time.Time         `db:"created_at"`
	CompletedAt   *time.Time        `db:"completed_at"`
}

type Payout struct {
	ID           int             `db:"id"`
	InvestmentID int             `db:"investment_id"`
	Amount       decimal.Decimal `db:"amount"`
	PayoutDate   time.Time       `db:"payout_date"`
}

// ReferralSummary is what a referrer sees about the users they brought in.
type ReferralSummary struct {
	Code        string
	Referred    []User
	Earnings    []Transaction
	TotalEarned decimal.Decimal
}

// Registration is the input of a new account. ReferralCode is stored verbatim.
type Registration struct {
	Username     string
	Email        string
	Password     string
	Phone        string
	ReferralCode string
}
