package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateKey             = errors.New("duplicate key")
	ErrInvalidPlan              = errors.New("invalid investment plan")
	ErrInvalidTransactionState  = errors.New("invalid transaction state")
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
	ErrNotFound                 = errors.New("not found")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrInvalidCardNumber        = errors.New("invalid card number")
)

// DuplicateKeyError identifies the unique field a write collided on.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: %s already taken", ErrDuplicateKey, e.Field)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}
