package health

import (
	"context"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"clinicsync/internal/domain/sync"
)

type staticStatus sync.SyncStatus

func (s staticStatus) GetSyncStatus() sync.SyncStatus { return sync.SyncStatus(s) }

func TestHandler_report(t *testing.T) {
	tests := []struct {
		name   string
		status sync.SyncStatus
		want   string
	}{
		{name: "online", status: sync.SyncStatus{IsOnline: true, PendingCount: 3}, want: statusOK},
		{name: "offline", status: sync.SyncStatus{PendingCount: 2}, want: statusOffline},
		{name: "rejected operations", status: sync.SyncStatus{IsOnline: true, FailedCount: 1}, want: statusDegraded},
		{name: "bad api key while offline", status: sync.SyncStatus{AuthError: "401"}, want: statusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(staticStatus(tt.status), slog.Default(), huma.Middlewares{})
			handler.startedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			handler.now = func() time.Time { return handler.startedAt.Add(90 * time.Minute) }

			output, err := handler.report(context.Background(), nil)

			require.NoError(t, err)
			assert.Equal(t, tt.want, output.Body.Status)
			assert.Equal(t, tt.status.IsOnline, output.Body.Online)
			assert.Equal(t, tt.status.PendingCount, output.Body.PendingCount)
			assert.Equal(t, tt.status.FailedCount, output.Body.FailedCount)
			assert.Equal(t, "1h30m0s", output.Body.Uptime)
		})
	}
}
