package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusdesk/auth-service/internal/domain"
	"github.com/campusdesk/auth-service/internal/ports"
)

// Service orchestrates signup, password login, OTP verification, and token
// issuance. Per login attempt the states are AWAITING_PASSWORD -> AWAITING_OTP
// -> AUTHENTICATED for students; admins go straight from password to token.
type Service struct {
	cfg         Config
	accounts    ports.AccountRepository
	attempts    ports.LoginAttemptRepository
	outbox      ports.OutboxRepository
	idempotency ports.IdempotencyRepository
	otps        ports.OTPStore
	lockouts    ports.LockoutStore
	hasher      ports.PasswordHasher
	tokenSigner ports.TokenSigner
	codeSender  ports.CodeSender
	logger      *slog.Logger
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Accounts    ports.AccountRepository
	Attempts    ports.LoginAttemptRepository
	Outbox      ports.OutboxRepository
	Idempotency ports.IdempotencyRepository
	OTPs        ports.OTPStore
	Lockouts    ports.LockoutStore
	Hasher      ports.PasswordHasher
	TokenSigner ports.TokenSigner
	CodeSender  ports.CodeSender
	Logger      *slog.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         deps.Config,
		accounts:    deps.Accounts,
		attempts:    deps.Attempts,
		outbox:      deps.Outbox,
		idempotency: deps.Idempotency,
		otps:        deps.OTPs,
		lockouts:    deps.Lockouts,
		hasher:      deps.Hasher,
		tokenSigner: deps.TokenSigner,
		codeSender:  deps.CodeSender,
		logger:      logger.With("module", "application", "layer", "service"),
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// Signup registers a new account. Duplicate (email, role) pairs are rejected;
// the same email under the other role partition is allowed.
func (s *Service) Signup(ctx context.Context, req SignupRequest, idempotencyKey string) (SignupResponse, error) {
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return SignupResponse{}, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return SignupResponse{}, err
	}
	if err := domain.ValidateName(req.Name); err != nil {
		return SignupResponse{}, err
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return SignupResponse{}, err
	}

	reserved := false
	if idempotencyKey != "" {
		if replay, err := s.idempotency.Get(ctx, idempotencyKey); err == nil && replay != nil && replay.Status == "COMPLETED" {
			var cached SignupResponse
			if json.Unmarshal(replay.ResponseBody, &cached) == nil {
				return cached, nil
			}
		}
		requestHash := hashRequest(req)
		if err := s.idempotency.Reserve(ctx, idempotencyKey, requestHash, s.nowFn().Add(7*24*time.Hour)); err != nil {
			return SignupResponse{}, fmt.Errorf("%w: idempotency key already in flight", domain.ErrInvalidInput)
		}
		reserved = true
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if reserved {
			_ = s.idempotency.Release(ctx, idempotencyKey)
		}
		return SignupResponse{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFn()
	payload, _ := json.Marshal(map[string]any{
		"email":      email,
		"role":       role,
		"created_at": now,
	})

	account, err := s.accounts.CreateWithOutboxTx(ctx, ports.CreateAccountTxParams{
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		PasswordHash:   passwordHash,
		Role:           role,
		IdempotencyKey: idempotencyKey,
		CreatedAtUTC:   now,
	}, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    "account.created",
		PartitionKey: email,
		Payload:      payload,
		OccurredAt:   now,
	})
	if err != nil {
		// A failed creation must free the reservation, otherwise every retry
		// under the same key reports an in-flight conflict instead of the
		// real error.
		if reserved {
			_ = s.idempotency.Release(ctx, idempotencyKey)
		}
		return SignupResponse{}, err
	}

	res := SignupResponse{AccountID: account.AccountID}
	if idempotencyKey != "" {
		responseBody, _ := json.Marshal(res)
		_ = s.idempotency.Complete(ctx, idempotencyKey, 201, responseBody, s.nowFn())
	}
	return res, nil
}

// LoginPassword is the single entry point for both roles. The OTP-skip rule
// for admins is the one explicit branch after credentials check out.
func (s *Service) LoginPassword(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return LoginResponse{}, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, err
	}

	lockKey := "login:" + string(role) + ":" + email
	lockState, err := s.lockouts.Get(ctx, lockKey)
	if err == nil && lockState.LockedUntil != nil && lockState.LockedUntil.After(s.nowFn()) {
		return LoginResponse{}, domain.ErrAccountLocked
	}

	account, err := s.accounts.GetByEmail(ctx, email, role)
	if err != nil {
		s.recordFailure(ctx, nil, email, role, req, "ACCOUNT_NOT_FOUND")
		return LoginResponse{}, domain.ErrNotFound
	}

	if err := s.hasher.Compare(account.PasswordHash, req.Password); err != nil {
		s.recordFailure(ctx, &account.AccountID, email, role, req, "INVALID_PASSWORD")
		_, _ = s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration)
		return LoginResponse{}, domain.ErrBadCredentials
	}

	_ = s.lockouts.Clear(ctx, lockKey)
	now := s.nowFn()
	_ = s.attempts.Insert(ctx, domain.LoginAttempt{
		AccountID: &account.AccountID,
		Email:     email,
		Role:      role,
		AttemptAt: now,
		IPAddress: req.IPAddress,
		Status:    "SUCCESS",
		UserAgent: req.UserAgent,
	})

	if role == domain.RoleAdmin {
		token, err := s.mintToken(account)
		if err != nil {
			return LoginResponse{}, fmt.Errorf("sign token: %w", err)
		}
		return LoginResponse{
			Token:     token,
			ExpiresIn: int64(s.cfg.TokenTTL.Seconds()),
		}, nil
	}

	code, err := s.otps.Issue(ctx, otpKey(email), s.cfg.OTPTTL)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("issue otp: %w", err)
	}

	// Delivery is fire-and-forget: the challenge is pending once the code is
	// in the store, whether or not the carrier accepts the message.
	if sendErr := s.codeSender.SendOTP(ctx, email, code); sendErr != nil {
		s.logger.WarnContext(ctx, "otp delivery failed",
			"operation", "login_password",
			"outcome", "degraded",
			"error", sendErr.Error(),
		)
	}

	payload, _ := json.Marshal(map[string]any{
		"account_id": account.AccountID,
		"issued_at":  now,
	})
	_ = s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    "auth.otp.issued",
		PartitionKey: account.AccountID.String(),
		Payload:      payload,
		OccurredAt:   now,
	})

	return LoginResponse{OTPPending: true}, nil
}

// VerifyOTP consumes a pending challenge and mints the session token.
// All failure shapes collapse to ErrInvalidOTP.
func (s *Service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (TokenResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return TokenResponse{}, err
	}
	if strings.TrimSpace(req.Code) == "" {
		return TokenResponse{}, fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	}

	ok, err := s.otps.Verify(ctx, otpKey(email), strings.TrimSpace(req.Code))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return TokenResponse{}, domain.ErrInvalidOTP
	}

	account, err := s.accounts.GetByEmail(ctx, email, domain.RoleStudent)
	if err != nil {
		return TokenResponse{}, err
	}

	token, err := s.mintToken(account)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("sign token: %w", err)
	}

	now := s.nowFn()
	payload, _ := json.Marshal(map[string]any{
		"account_id":       account.AccountID,
		"authenticated_at": now,
	})
	_ = s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    "auth.login.succeeded",
		PartitionKey: account.AccountID.String(),
		Payload:      payload,
		OccurredAt:   now,
	})

	return TokenResponse{
		Token:     token,
		ExpiresIn: int64(s.cfg.TokenTTL.Seconds()),
	}, nil
}

// ValidateToken checks signature and expiry for downstream consumers.
func (s *Service) ValidateToken(_ context.Context, token string) (ports.AuthClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(token)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	return claims, nil
}

func (s *Service) mintToken(account domain.Account) (string, error) {
	now := s.nowFn()
	return s.tokenSigner.Sign(ports.AuthClaims{
		AccountID: account.AccountID,
		Email:     account.Email,
		Role:      account.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	})
}

func (s *Service) recordFailure(ctx context.Context, accountID *uuid.UUID, email string, role domain.Role, req LoginRequest, reason string) {
	_ = s.attempts.Insert(ctx, domain.LoginAttempt{
		AccountID:     accountID,
		Email:         email,
		Role:          role,
		AttemptAt:     s.nowFn(),
		IPAddress:     req.IPAddress,
		Status:        "FAILED",
		FailureReason: reason,
		UserAgent:     req.UserAgent,
	})
}

// otpKey scopes store entries; OTP challenges exist only for students.
func otpKey(email string) string {
	return string(domain.RoleStudent) + ":" + email
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

func hashRequest(req any) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
