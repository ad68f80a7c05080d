package validate

import (
	"strings"

	"github.com/ShiraazMoollatjie/goluhn"
)

const maxReferralCodeLength = 32

// IsLuhn reports whether s is a Luhn-valid card number. Spaces are ignored.
func IsLuhn(s string) bool {
	digits := strings.ReplaceAll(s, " ", "")
	if digits == "" {
		return false
	}
	err := goluhn.Validate(digits)
	return err == nil
}

// IsReferralCode reports whether s could be a referral code at all.
func IsReferralCode(s string) bool {
	if s == "" || len(s) > maxReferralCodeLength {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
