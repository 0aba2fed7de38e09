package shared

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()

	// Verify no trace ID in original context
	assert.Empty(t, GetTraceID(ctx))

	ctxWithTrace := SetTraceID(ctx)
	traceID := GetTraceID(ctxWithTrace)
	require.NotEmpty(t, traceID)

	// Trace IDs are uuids
	_, err := uuid.Parse(traceID)
	assert.NoError(t, err)

	// Original context remains unchanged
	assert.Empty(t, GetTraceID(ctx))
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123) // Not a string
	assert.Empty(t, GetTraceID(ctx))
}

func TestSetAndGetCredential(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetCredential(ctx))

	ctx = SetCredential(ctx, "caller-key")
	assert.Equal(t, "caller-key", GetCredential(ctx))
}
