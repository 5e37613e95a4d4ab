package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role partitions identity uniqueness and authentication rules.
// Students carry an OTP second factor; admins do not.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes and validates a role string from transport input.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
}

// Account is the authentication identity aggregate.
// Email is unique within its role partition, not globally.
type Account struct {
	AccountID    uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LoginAttempt records authentication outcomes for audit and lockout forensics.
type LoginAttempt struct {
	ID            int64
	AccountID     *uuid.UUID
	Email         string
	Role          Role
	AttemptAt     time.Time
	IPAddress     string
	Status        string
	FailureReason string
	UserAgent     string
}
