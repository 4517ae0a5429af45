package logging

import (
	"context"
	"log/slog"

	"pokechat/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRequestID is the standardized structured logging key for request correlation identifiers.
	FieldRequestID = "request_id"
	// FieldEndpoint is the standardized structured logging key for HTTP endpoint paths.
	FieldEndpoint = "endpoint"
	// FieldEntity is the standardized structured logging key for identified entity names.
	FieldEntity = "entity"
	// FieldSimilarity is the standardized structured logging key for match similarity scores.
	FieldSimilarity = "similarity"
	// FieldHashMethod is the standardized structured logging key for perceptual hash methods.
	FieldHashMethod = "hash_method"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, rid))
	}
	if endpoint, ok := services.EndpointFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldEndpoint, endpoint))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
