package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const PayoutPeriod = 7 * 24 * time.Hour

// AmountScale is the number of decimal places stored for money.
const AmountScale = 8

var (
	// PayoutRate is the share of principal credited per payout period.
	PayoutRate = decimal.New(1, -2)
	// ReferralRate is the share of a completed deposit credited to the referrer.
	ReferralRate = decimal.New(5, -2)
)

// FitsAmountScale reports whether d is stored without rounding.
func FitsAmountScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountScale))
}

type Plan string

const (
	Plan5  Plan = "5"
	Plan10 Plan = "10"
	Plan20 Plan = "20"
	Plan50 Plan = "50"
)

var Plans = []Plan{Plan5, Plan10, Plan20, Plan50}

func ParsePlan(s string) (Plan, error) {
	switch p := Plan(s); p {
	case Plan5, Plan10, Plan20, Plan50:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlan, s)
}

// PlanForAmount maps a principal to its plan. Only the canonical amounts are accepted.
func PlanForAmount(amount decimal.Decimal) (Plan, error) {
	for _, p := range Plans {
		if p.Amount().Equal(amount) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidPlan, amount)
}

func (p Plan) Amount() decimal.Decimal {
	switch p {
	case Plan5:
		return decimal.NewFromInt(5)
	case Plan10:
		return decimal.NewFromInt(10)
	case Plan20:
		return decimal.NewFromInt(20)
	case Plan50:
		return decimal.NewFromInt(50)
	}
	return decimal.Zero
}

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionPayout     TransactionType = "payout"
	TransactionReferral   TransactionType = "referral"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionDeposit, TransactionWithdrawal, TransactionPayout, TransactionReferral:
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// ReferencePrefix is the human-readable prefix of references issued for the type.
func (t TransactionType) ReferencePrefix() string {
	switch t {
	case TransactionDeposit:
		return "INV"
	case TransactionWithdrawal:
		return "WDR"
	case TransactionPayout:
		return "PYT"
	case TransactionReferral:
		return "REF"
	}
	panic(fmt.Sprintf("domain: no reference prefix for transaction type %q", string(t)))
}

// InitialStatus is the status a transaction of this type is created with.
func (t TransactionType) InitialStatus() TransactionStatus {
	switch t {
	case TransactionDeposit, TransactionWithdrawal:
		return StatusPending
	case TransactionPayout, TransactionReferral:
		return StatusCompleted
	}
	panic(fmt.Sprintf("domain: no initial status for transaction type %q", string(t)))
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch st := TransactionStatus(s); st {
	case StatusPending, StatusCompleted, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown transaction status %q", s)
}

func (s TransactionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	case StatusPending:
		return false
	}
	return true
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusCompleted || next == StatusFailed
	case StatusCompleted, StatusFailed:
		return false
	}
	return false
}

type PaymentMethod string

const (
	MethodVisa    PaymentMethod = "visa"
	MethodMTN     PaymentMethod = "mtn"
	MethodSystem  PaymentMethod = "system"
	MethodPending PaymentMethod = "pending"
)

// ParseUserPaymentMethod accepts only the methods a user may choose.
func ParseUserPaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case MethodVisa, MethodMTN:
		return m, nil
	case MethodSystem, MethodPending:
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedPaymentMethod, s)
}
