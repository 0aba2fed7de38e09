package shared

import (
	"context"

	"github.com/google/uuid"
)

// Key type for context values
type ContextKey string

// Context keys for various values
const (
	// CredentialContextKey is the context key for the caller's backend credential
	CredentialContextKey ContextKey = "credential"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID adds a trace ID to the context.
// This is useful for correlating logs and error responses.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, uuid.NewString())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SetCredential adds the caller's backend credential to the context.
func SetCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, CredentialContextKey, credential)
}

// GetCredential retrieves the caller's backend credential from the context.
// If none was set, it returns an empty string.
func GetCredential(ctx context.Context) string {
	credential, ok := ctx.Value(CredentialContextKey).(string)
	if !ok {
		return ""
	}
	return credential
}
