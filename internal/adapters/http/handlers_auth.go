package http

import (
	"net/http"

	"github.com/campusdesk/auth-service/internal/application"
	"github.com/campusdesk/auth-service/internal/domain"
)

func (h *Handler) studentSignup(w http.ResponseWriter, r *http.Request) {
	const operation = "student_signup"
	var req application.SignupRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, operation, err)
		return
	}
	req.Role = string(domain.RoleStudent)
	resp, err := h.service.Signup(r.Context(), req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) studentLogin(w http.ResponseWriter, r *http.Request) {
	const operation = "student_login"
	var req application.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, operation, err)
		return
	}
	req.Role = string(domain.RoleStudent)
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()
	resp, err := h.service.LoginPassword(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"otp_pending": resp.OTPPending,
		"message":     "OTP sent to registered email",
	})
}

func (h *Handler) studentVerifyOTP(w http.ResponseWriter, r *http.Request) {
	const operation = "student_verify_otp"
	var req application.VerifyOTPRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, operation, err)
		return
	}
	resp, err := h.service.VerifyOTP(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	const operation = "admin_login"
	var req application.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, operation, err)
		return
	}
	req.Role = string(domain.RoleAdmin)
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()
	resp, err := h.service.LoginPassword(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, operation, err)
		return
	}
	writeJSON(w, http.StatusOK, application.TokenResponse{
		Token:     resp.Token,
		ExpiresIn: resp.ExpiresIn,
	})
}
