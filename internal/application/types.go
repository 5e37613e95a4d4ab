package application

import (
	"time"

	"github.com/google/uuid"
)

type Config struct {
	TokenTTL             time.Duration
	OTPTTL               time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration
}

type SignupRequest struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	AccountID uuid.UUID `json:"account_id"`
}

type LoginRequest struct {
	Role      string `json:"role"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

// LoginResponse covers both arms of the role dispatch: students get an
// OTP-pending indicator and no token, admins get a token directly.
type LoginResponse struct {
	OTPPending bool   `json:"otp_pending"`
	Token      string `json:"token,omitempty"`
	ExpiresIn  int64  `json:"expires_in,omitempty"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}
