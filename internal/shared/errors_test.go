package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	wrapped := fmt.Errorf("catalog: %w", NewValidationError("price", "must be >= 0"))
	require.ErrorIs(t, wrapped, ErrValidation)
	require.True(t, IsValidation(wrapped))
	require.False(t, IsNotFound(wrapped))

	var verr *ValidationError
	require.True(t, errors.As(wrapped, &verr))
	require.Equal(t, "price", verr.Field)

	require.ErrorIs(t, NewNotFoundError("product", "42"), ErrNotFound)
	require.ErrorIs(t, &InsufficientStockError{ProductID: "1", Name: "Redbull", Requested: 3, Available: 1}, ErrInsufficientStock)

	cause := errors.New("dial tcp: refused")
	ext := NewExternalServiceError("image-enhancer", cause)
	require.ErrorIs(t, ext, ErrExternalService)
	require.ErrorIs(t, ext, cause)
}

func TestAuditLoggerRetainsLimit(t *testing.T) {
	logger := NewAuditLogger(nil, 2)
	ctx := context.Background()

	require.Error(t, logger.Record(ctx, AuditLog{Action: "catalog:add"}))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, logger.Record(ctx, AuditLog{Action: "catalog:add", Entity: "product", EntityID: id}))
	}

	entries := logger.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "b", entries[0].EntityID)
	require.Equal(t, "c", entries[1].EntityID)
	require.False(t, entries[1].At.IsZero())
}
