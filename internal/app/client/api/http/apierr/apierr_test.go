package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/operation"
	"clinicsync/internal/domain/sync"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: fmt.Errorf("%w: client 5", clinic.ErrNotFound), status: http.StatusNotFound},
		{name: "operation not found", err: operation.ErrNotFound, status: http.StatusNotFound},
		{name: "invalid data", err: fmt.Errorf("%w: phone", clinic.ErrInvalidData), status: http.StatusUnprocessableEntity},
		{name: "dangling ref", err: clinic.ErrDanglingRef, status: http.StatusUnprocessableEntity},
		{name: "not retryable", err: operation.ErrNotRetryable, status: http.StatusConflict},
		{name: "sync in progress", err: sync.ErrSyncInProgress, status: http.StatusConflict},
		{name: "offline", err: sync.ErrOffline, status: http.StatusConflict},
		{name: "not configured", err: &sync.AuthError{Op: "sync", Err: sync.ErrNotConfigured}, status: http.StatusPreconditionFailed},
		{name: "connectivity", err: &sync.ConnectivityError{Op: "pull", Err: errors.New("timeout")}, status: http.StatusServiceUnavailable},
		{name: "auth", err: &sync.AuthError{Op: "pull", StatusCode: 401}, status: http.StatusBadGateway},
		{name: "other", err: errors.New("disk full"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var se huma.StatusError
			require.True(t, errors.As(From(tt.err), &se))
			assert.Equal(t, tt.status, se.GetStatus())
		})
	}
	assert.NoError(t, From(nil))
}
