package memory

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestOTPStoreIssueAndVerify(t *testing.T) {
	t.Parallel()

	store := NewOTPStore()
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

func TestOTPStoreMismatchKeepsEntry(t *testing.T) {
	t.Parallel()

	store := NewOTPStore()
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

func TestOTPStoreReissueReplacesPrior(t *testing.T) {
	t.Parallel()

	store := NewOTPStore()
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

func TestOTPStoreExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	current := now
	var mu sync.Mutex
	store := NewOTPStoreWithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	})
	ctx := context.Background()

	code, err := store.Issue(ctx, "student:dave@college.edu", 5*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	mu.Lock()
	current = now.Add(5*time.Minute + time.Second)
	mu.Unlock()

	if ok, _ := store.Verify(ctx, "student:dave@college.edu", code); ok {
		t.Fatalf("expired code must not verify")
	}
}

func TestOTPStoreConcurrentVerifySingleWinner(t *testing.T) {
	t.Parallel()

	store := NewOTPStore()
	ctx := context.Background()

	code, err := store.Issue(ctx, "student:eve@college.edu", 5*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	const workers = 32
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
