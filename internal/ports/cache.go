package ports

import (
	"context"
	"time"
)

// OTPStore manages single-use, time-limited numeric codes keyed by identity.
//
// Implementations must make issue/verify linearizable per identity: issuing
// overwrites any prior unconsumed code, and of any number of concurrent
// Verify calls holding the correct code, exactly one may succeed.
type OTPStore interface {
	// Issue generates a fresh code for the identity, replacing any prior
	// entry, and returns the code for delivery.
	Issue(ctx context.Context, identity string, ttl time.Duration) (string, error)
	// Verify reports whether the candidate matches the active entry. A true
	// result consumes the entry; expired, consumed, missing, and mismatched
	// candidates all report false.
	Verify(ctx context.Context, identity, candidate string) (bool, error)
}

// LockoutState is the current lockout envelope for a login key.
type LockoutState struct {
	FailedCount int
	LockedUntil *time.Time
}

// LockoutStore handles short-lived brute-force protection state.
type LockoutStore interface {
	Get(ctx context.Context, key string) (LockoutState, error)
	RecordFailure(ctx context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (LockoutState, error)
	Clear(ctx context.Context, key string) error
}
