package http

import (
	"context"
	"log/slog"
	"time"
)

const serviceName = "campusdesk-auth-service"

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "http",
		"layer", "adapter",
	)
}

func logRequest(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	httpLogger().InfoContext(ctx, "http request",
		"method", method,
		"path", path,
		"status_code", status,
		"duration_ms", elapsed.Milliseconds(),
		"request_id", requestIDFromContext(ctx),
	)
}

func logPanic(ctx context.Context, value any, stack []byte) {
	httpLogger().ErrorContext(ctx, "panic recovered",
		"panic", value,
		"stack", string(stack),
		"request_id", requestIDFromContext(ctx),
	)
}

func logHTTPOperationError(ctx context.Context, operation string, statusCode int, code, message string, err error) {
	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"status_code", statusCode,
		"error_code", code,
		"message", message,
		"request_id", requestIDFromContext(ctx),
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	if statusCode >= 500 {
		httpLogger().ErrorContext(ctx, "http operation failed", fields...)
		return
	}
	httpLogger().WarnContext(ctx, "http operation failed", fields...)
}
