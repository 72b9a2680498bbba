package log

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger stored by WithContext, or wraps the
// default slog logger.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides domain-specific logging helpers
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogEntryApplied logs a committed spending entry mutation.
func (sl *StructuredLogger) LogEntryApplied(ctx context.Context, op, id, entryType, amount, category string) {
	fields := NewFields().
		WithEntry(id, entryType, amount, category).
		WithOperation(op).
		WithCollection("spending")
	sl.logger.InfoContext(ctx, "Spending entry committed", fields.ToSlice()...)
}

// LogBalanceChanged logs one account balance movement.
func (sl *StructuredLogger) LogBalanceChanged(ctx context.Context, accountID, delta, balance string) {
	fields := NewFields().WithBalance(accountID, delta, balance)
	sl.logger.DebugContext(ctx, "Account balance changed", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)
	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
