package domain

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const ReferralCodeLength = 8

// NewReferralCode returns 8 uppercase hex characters taken from a random UUID.
func NewReferralCode() string {
	return strings.ToUpper(uuid.NewString()[:ReferralCodeLength])
}

// NewReference returns a reference such as PYT-3FA94C01BE for the transaction type.
func NewReference(t TransactionType) string {
	id := uuid.New()
	return t.ReferencePrefix() + "-" + strings.ToUpper(hex.EncodeToString(id[:5]))
}
