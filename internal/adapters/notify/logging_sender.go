package notify

import (
	"context"
	"log/slog"
)

// LoggingSender is the dev/test stand-in for a real delivery channel.
// It logs that a challenge went out without ever logging the code itself.
type LoggingSender struct {
	logger *slog.Logger
}

func NewLoggingSender(logger *slog.Logger) *LoggingSender {
	return &LoggingSender{logger: logger}
}

func (s *LoggingSender) SendOTP(ctx context.Context, email, _ string) error {
	s.logger.InfoContext(ctx, "otp challenge dispatched",
		"module", "notify",
		"layer", "adapter",
		"operation", "send_otp",
		"outcome", "success",
		"recipient", email,
	)
	return nil
}
