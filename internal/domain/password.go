package domain

import (
	"fmt"
	"strings"
)

const maxPasswordLength = 128

// ValidatePassword enforces the signup password policy.
// The bar is deliberately low: the second factor carries the security weight
// for students, and legacy accounts were migrated with short passwords.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be <= %d characters", ErrInvalidInput, maxPasswordLength)
	}
	return nil
}

// ValidateName rejects blank display names at signup.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return nil
}
