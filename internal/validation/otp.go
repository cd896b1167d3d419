package validation

import (
	"errors"
)

// ValidateOTPCode checks that a verification code is exactly 6 ASCII digits.
// Checked before any provider call so malformed input never leaves the server.
func ValidateOTPCode(code string) error {
	if len(code) != 6 {
		return errors.New("verification code must be exactly 6 digits")
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return errors.New("verification code must contain digits only")
		}
	}
	return nil
}
