package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisOTPStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisOTPStore(client), srv
}

func TestRedisOTPStoreIssueAndVerify(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "student:alice@college.edu", 5*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	ok, err := store.Verify(ctx, "student:alice@college.edu", code)
	if err != nil || !ok {
		t.Fatalf("expected verify to succeed, got ok=%v err=%v", ok, err)
	}

	ok, err = store.Verify(ctx, "student:alice@college.edu", code)
	if err != nil || ok {
		t.Fatalf("consumed code must not verify again, got ok=%v err=%v", ok, err)
	}
}

func TestRedisOTPStoreMismatchKeepsEntry(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "student:bob@college.edu", 5*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if ok, _ := store.Verify(ctx, "student:bob@college.edu", wrong); ok {
		t.Fatalf("mismatched candidate must not verify")
	}
	if ok, _ := store.Verify(ctx, "student:bob@college.edu", code); !ok {
		t.Fatalf("entry should survive a mismatched guess")
	}
}

func TestRedisOTPStoreReissueReplacesPrior(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.Issue(ctx, "student:carol@college.edu", 5*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	second, err := store.Issue(ctx, "student:carol@college.edu", 5*time.Minute)
	if err != nil {
		t.Fatalf("re-issue failed: %v", err)
	}
	if first == second {
		t.Skip("codes collided, cannot distinguish re-issue")
	}

	if ok, _ := store.Verify(ctx, "student:carol@college.edu", first); ok {
		t.Fatalf("replaced code must not verify")
	}
	if ok, _ := store.Verify(ctx, "student:carol@college.edu", second); !ok {
		t.Fatalf("latest code should verify")
	}
}

func TestRedisOTPStoreExpiry(t *testing.T) {
	t.Parallel()

	store, srv := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "student:dave@college.edu", 5*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Push the store clock past the stored deadline; the script rejects the
	// entry even before the key TTL sweeps it.
	store.nowFn = func() time.Time { return time.Now().UTC().Add(5*time.Minute + time.Second) }
	if ok, _ := store.Verify(ctx, "student:dave@college.edu", code); ok {
		t.Fatalf("expired code must not verify")
	}

	// The key TTL path removes the entry on its own as well.
	store.nowFn = func() time.Time { return time.Now().UTC() }
	if _, err := store.Issue(ctx, "student:dave@college.edu", time.Minute); err != nil {
		t.Fatalf("re-issue failed: %v", err)
	}
	srv.FastForward(2 * time.Minute)
	if srv.Exists("auth:otp:student:dave@college.edu") {
		t.Fatalf("expected key to be swept by ttl")
	}
}

func TestRedisOTPStoreConcurrentVerifySingleWinner(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "student:eve@college.edu", 5*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	const workers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Verify(ctx, "student:eve@college.edu", code); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}
