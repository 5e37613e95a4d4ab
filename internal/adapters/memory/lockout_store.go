package memory

import (
	"context"
	"sync"
	"time"

	"github.com/campusdesk/auth-service/internal/ports"
)

// LockoutStore is the process-local counterpart of the Redis lockout store.
type LockoutStore struct {
	mu    sync.Mutex
	state map[string]ports.LockoutState
}

// NewLockoutStore creates an empty in-memory lockout store.
func NewLockoutStore() *LockoutStore {
	return &LockoutStore{state: make(map[string]ports.LockoutState)}
}

func (s *LockoutStore) Get(_ context.Context, key string) (ports.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[key], nil
}

func (s *LockoutStore) RecordFailure(_ context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state[key]
	st.FailedCount++
	if st.FailedCount >= threshold {
		lockedUntil := now.Add(lockoutWindow).UTC()
		st.LockedUntil = &lockedUntil
	}
	s.state[key] = st
	return st, nil
}

func (s *LockoutStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, key)
	return nil
}
