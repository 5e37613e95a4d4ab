package ports

import "context"

// EventPublisher delivers outbox payloads to the message fabric.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte) error
}

// CodeSender delivers an issued OTP to the account holder.
// Delivery is an external collaborator: the auth service only guarantees the
// code exists in the store, so send failures are logged, not surfaced.
type CodeSender interface {
	SendOTP(ctx context.Context, email, code string) error
}
