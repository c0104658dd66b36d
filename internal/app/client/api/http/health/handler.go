package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"clinicsync/internal/domain/sync"
)

// StatusSource источник текущего статуса синхронизации
type StatusSource interface {
	GetSyncStatus() sync.SyncStatus
}

type Handler struct {
	status     StatusSource
	log        *slog.Logger
	middleware huma.Middlewares
	startedAt  time.Time
	now        func() time.Time
}

func NewHandler(status StatusSource, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		status:     status,
		log:        log,
		middleware: middleware,
		startedAt:  time.Now(),
		now:        time.Now,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.reportOp(), h.report)
}

func (h *Handler) report(_ context.Context, _ *struct{}) (*healthOutput, error) {
	st := h.status.GetSyncStatus()

	return &healthOutput{Body: report{
		Status:       classify(st),
		Online:       st.IsOnline,
		Syncing:      st.IsSyncing,
		PendingCount: st.PendingCount,
		FailedCount:  st.FailedCount,
		LastSyncAt:   st.LastSyncAt,
		Uptime:       h.now().Sub(h.startedAt).Round(time.Second).String(),
	}}, nil
}

// classify: отклоненные операции и ошибка ключа важнее отсутствия связи
func classify(st sync.SyncStatus) string {
	switch {
	case st.NeedsAttention():
		return statusDegraded
	case !st.IsOnline:
		return statusOffline
	default:
		return statusOK
	}
}
