package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPCodeLength is the fixed width of issued codes.
const OTPCodeLength = 6

var otpCodeSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(OTPCodeLength), nil)

// GenerateOTPCode returns a fixed-length numeric code drawn from crypto/rand.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpCodeSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPCodeLength, n), nil
}

// OTPChallenge is a pending second-factor entry as held by an OTP store.
// At most one active challenge exists per identity; issuing a replacement
// invalidates the predecessor.
type OTPChallenge struct {
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the challenge is past its TTL at the given instant.
func (c OTPChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
