package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campusdesk/auth-service/internal/ports"
)

func TestOutboxWorkerPublishesAndMarks(t *testing.T) {
	t.Parallel()

	repo := &fakeOutboxRepo{
		records: []ports.OutboxRecord{
			{OutboxID: uuid.New(), EventType: "account.created", Payload: []byte(`{}`)},
			{OutboxID: uuid.New(), EventType: "auth.otp.issued", Payload: []byte(`{}`)},
		},
	}
	pub := &fakePublisher{}
	worker := NewOutboxWorker(discardLogger(), repo, pub, time.Second, 10, 5)

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("process once failed: %v", err)
	}
	if len(pub.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(pub.published))
	}
	if len(repo.publishedIDs) != 2 {
		t.Fatalf("expected 2 records marked published, got %d", len(repo.publishedIDs))
	}
}

func TestOutboxWorkerMarksFailedAndDeadLettersExhausted(t *testing.T) {
	t.Parallel()

	failing := uuid.New()
	exhausted := uuid.New()
	repo := &fakeOutboxRepo{
		records: []ports.OutboxRecord{
			{OutboxID: failing, EventType: "account.created", Payload: []byte(`{}`)},
			{OutboxID: exhausted, EventType: "account.created", Payload: []byte(`{}`), RetryCount: 5},
		},
	}
	pub := &fakePublisher{err: errors.New("broker down")}
	worker := NewOutboxWorker(discardLogger(), repo, pub, time.Second, 10, 5)

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("process once failed: %v", err)
	}
	if len(repo.failedIDs) != 1 || repo.failedIDs[0] != failing {
		t.Fatalf("expected only the live record to be marked failed, got %v", repo.failedIDs)
	}
	if len(repo.deadLetteredIDs) != 1 || repo.deadLetteredIDs[0] != exhausted {
		t.Fatalf("expected the exhausted record to be dead-lettered, got %v", repo.deadLetteredIDs)
	}
	if len(pub.published) != 0 {
		t.Fatalf("no events should have been published")
	}
}

func TestOutboxWorkerDeadLettersAtRetryCeiling(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	repo := &fakeOutboxRepo{
		records: []ports.OutboxRecord{
			{OutboxID: id, EventType: "auth.otp.issued", Payload: []byte(`{}`), RetryCount: 4},
		},
	}
	pub := &fakePublisher{err: errors.New("broker down")}
	worker := NewOutboxWorker(discardLogger(), repo, pub, time.Second, 10, 5)

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("process once failed: %v", err)
	}
	if len(repo.deadLetteredIDs) != 1 || repo.deadLetteredIDs[0] != id {
		t.Fatalf("final failed attempt should dead-letter the record, got %v", repo.deadLetteredIDs)
	}
	if len(repo.failedIDs) != 0 {
		t.Fatalf("record at the ceiling should not be scheduled for retry, got %v", repo.failedIDs)
	}
}

func TestOutboxWorkerExhaustedRecordDoesNotStarveBatch(t *testing.T) {
	t.Parallel()

	exhausted := uuid.New()
	fresh := uuid.New()
	repo := &fakeOutboxRepo{
		records: []ports.OutboxRecord{
			{OutboxID: exhausted, EventType: "account.created", Payload: []byte(`{}`), RetryCount: 5},
			{OutboxID: fresh, EventType: "auth.otp.issued", Payload: []byte(`{}`)},
		},
	}
	pub := &fakePublisher{}
	worker := NewOutboxWorker(discardLogger(), repo, pub, time.Second, 1, 5)

	for i := 0; i < 10; i++ {
		if err := worker.processOnce(context.Background()); err != nil {
			t.Fatalf("poll %d failed: %v", i, err)
		}
		if len(pub.published) > 0 {
			break
		}
	}
	if len(pub.published) != 1 || pub.published[0] != "auth.otp.issued" {
		t.Fatalf("fresh event behind an exhausted record was never published, got %v", pub.published)
	}
}

func TestOutboxWorkerRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	worker := NewOutboxWorker(discardLogger(), &fakeOutboxRepo{}, &fakePublisher{}, 10*time.Millisecond, 10, 5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop after cancel")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOutboxRepo struct {
	mu              sync.Mutex
	records         []ports.OutboxRecord
	publishedIDs    []uuid.UUID
	failedIDs       []uuid.UUID
	deadLetteredIDs []uuid.UUID
}

func (f *fakeOutboxRepo) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, ports.OutboxRecord{
		OutboxID:  event.EventID,
		EventType: event.EventType,
		Payload:   event.Payload,
	})
	return nil
}

func (f *fakeOutboxRepo) ListUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.OutboxRecord
	for _, rec := range f.records {
		if rec.PublishedAt == nil && rec.DeadLetteredAt == nil && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) MarkPublished(_ context.Context, outboxID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishedIDs = append(f.publishedIDs, outboxID)
	for i := range f.records {
		if f.records[i].OutboxID == outboxID {
			t := at
			f.records[i].PublishedAt = &t
		}
	}
	return nil
}

func (f *fakeOutboxRepo) MarkDeadLettered(_ context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadLetteredIDs = append(f.deadLetteredIDs, outboxID)
	for i := range f.records {
		if f.records[i].OutboxID == outboxID {
			msg := errMsg
			f.records[i].LastError = &msg
			t := at
			f.records[i].LastErrorAt = &t
			f.records[i].DeadLetteredAt = &t
		}
	}
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedIDs = append(f.failedIDs, outboxID)
	for i := range f.records {
		if f.records[i].OutboxID == outboxID {
			f.records[i].RetryCount++
			msg := errMsg
			f.records[i].LastError = &msg
			t := at
			f.records[i].LastErrorAt = &t
		}
	}
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	err       error
	published []string
}

func (f *fakePublisher) Publish(_ context.Context, eventType string, _ []byte) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, eventType)
	return nil
}
