package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// ReferenceNumberKey is the context key for the product reference number
	ReferenceNumberKey contextKey = "reference_number"
	// BatchIDKey is the context key for the pipeline batch ID
	BatchIDKey contextKey = "batch_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enrichedLogger := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// WithReferenceNumber adds the product reference number to context and
// returns an enriched logger, so every log line emitted while handling one
// product carries its correlation key.
func WithReferenceNumber(ctx context.Context, logger *zap.Logger, referenceNumber string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, ReferenceNumberKey, referenceNumber)
	enrichedLogger := logger.With(zap.String("reference_number", referenceNumber))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// WithBatchID adds a pipeline batch ID to context and returns enriched logger
func WithBatchID(ctx context.Context, logger *zap.Logger, batchID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, BatchIDKey, batchID)
	enrichedLogger := logger.With(zap.String("batch_id", batchID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetReferenceNumber retrieves the product reference number from context
func GetReferenceNumber(ctx context.Context) string {
	if ref, ok := ctx.Value(ReferenceNumberKey).(string); ok {
		return ref
	}
	return ""
}

// GetBatchID retrieves the pipeline batch ID from context
func GetBatchID(ctx context.Context) string {
	if batchID, ok := ctx.Value(BatchIDKey).(string); ok {
		return batchID
	}
	return ""
}
