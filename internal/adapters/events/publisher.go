package events

import (
	"context"
	"log/slog"
)

// LoggingPublisher emits outbox events to the structured log stream.
// The campus deployment has no broker yet; this adapter keeps the outbox
// contract honest until one arrives.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte) error {
	p.logger.InfoContext(ctx, "published event", "event_type", eventType, "payload", string(payload))
	return nil
}
