package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	conn := fmt.Errorf("push: %w", &ConnectivityError{Op: "push", Err: context.DeadlineExceeded})
	auth := fmt.Errorf("pull: %w", &AuthError{Op: "pull", StatusCode: 401, Message: "bad key"})
	app := &ApplicationError{Op: "push", StatusCode: 422, Message: "phone is invalid"}
	mapping := &IdMappingError{OperationID: "op", EntityType: "client", TempID: -1}

	tests := []struct {
		name    string
		err     error
		checker func(error) bool
	}{
		{"connectivity", conn, IsConnectivity},
		{"auth", auth, IsAuth},
		{"application", app, IsApplication},
		{"id mapping", mapping, IsIdMapping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.checker(tt.err))
			for _, other := range tests {
				if other.name != tt.name {
					assert.False(t, other.checker(tt.err), "%s classified as %s", tt.name, other.name)
				}
			}
		})
	}

	assert.True(t, errors.Is(conn, context.DeadlineExceeded))
}

func TestSyncStatus_NeedsAttention(t *testing.T) {
	assert.False(t, SyncStatus{PendingCount: 3}.NeedsAttention())
	assert.True(t, SyncStatus{PendingCount: 3, FailedCount: 1}.NeedsAttention())
	assert.True(t, SyncStatus{AuthError: "rejected"}.NeedsAttention())
}

func TestAuthError_NotConfigured(t *testing.T) {
	err := fmt.Errorf("ping: %w", &AuthError{Op: "ping", Message: "no credentials", Err: ErrNotConfigured})

	assert.True(t, IsAuth(err))
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, err.Error(), "no credentials")
}
