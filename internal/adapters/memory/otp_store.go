package memory

import (
	"context"
	"sync"
	"time"

	"github.com/campusdesk/auth-service/internal/domain"
)

// OTPStore is a process-local OTP challenge store.
//
// It exists for single-instance deployments and tests; the Redis adapter is
// the multi-instance form. A single mutex covers the map, which serializes
// issue/verify per identity: at most one concurrent Verify can observe an
// unconsumed entry, and consuming deletes it under the same lock.
type OTPStore struct {
	mu      sync.Mutex
	entries map[string]domain.OTPChallenge
	nowFn   func() time.Time
}

// NewOTPStore creates an empty in-memory store.
func NewOTPStore() *OTPStore {
	return &OTPStore{
		entries: make(map[string]domain.OTPChallenge),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// NewOTPStoreWithClock creates a store with an injected clock for tests.
func NewOTPStoreWithClock(nowFn func() time.Time) *OTPStore {
	s := NewOTPStore()
	s.nowFn = nowFn
	return s
}

// Issue overwrites any prior entry for the identity.
func (s *OTPStore) Issue(_ context.Context, identity string, ttl time.Duration) (string, error) {
	code, err := domain.GenerateOTPCode()
	if err != nil {
		return "", err
	}
	now := s.nowFn()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[identity] = domain.OTPChallenge{
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	return code, nil
}

// Verify consumes a matching, unexpired entry. Expired entries are swept
// lazily here; expiry holds regardless of when the sweep happens because the
// stored timestamp is always checked first.
func (s *OTPStore) Verify(_ context.Context, identity, candidate string) (bool, error) {
	now := s.nowFn()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[identity]
	if !ok {
		return false, nil
	}
	if entry.Expired(now) {
		delete(s.entries, identity)
		return false, nil
	}
	if entry.Code != candidate {
		return false, nil
	}
	delete(s.entries, identity)
	return true, nil
}
