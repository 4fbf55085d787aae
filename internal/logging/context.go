package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCatalogID is the standardized structured logging key for catalog identifiers.
	FieldCatalogID = "catalog_id"
	// FieldRunID is the standardized structured logging key for processing run identifiers.
	FieldRunID = "run_id"
	// FieldPath is the standardized structured logging key for filesystem paths.
	FieldPath = "path"
	// FieldTemplate is the standardized structured logging key for workflow template names.
	FieldTemplate = "template"
)

type contextKey int

const (
	catalogIDKey contextKey = iota
	runIDKey
)

// ContextWithCatalogID tags the context with the catalog ID being processed.
func ContextWithCatalogID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, catalogIDKey, id)
}

// ContextWithRunID tags the context with a processing run identifier.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := ctx.Value(catalogIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldCatalogID, id))
	}
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
