package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicateIdentity signals an email already registered in the same role partition.
	ErrDuplicateIdentity = errors.New("email already in use")
	// ErrBadCredentials signals a password mismatch for a known identity.
	ErrBadCredentials = errors.New("invalid password")
	// ErrInvalidOTP collapses expired, consumed, and mismatched codes into one
	// user-facing kind so verification reveals nothing about stored state.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrAccountLocked signals temporary lockout after repeated failed attempts.
	ErrAccountLocked = errors.New("account locked")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternal      = errors.New("internal error")
)
