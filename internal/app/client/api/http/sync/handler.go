package sync

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"clinicsync/internal/app/client/api/http/apierr"
	"clinicsync/internal/domain/operation"
	"clinicsync/internal/domain/sync"
)

// Service операции движка синхронизации, доступные локальному API
type Service interface {
	GetSyncStatus() sync.SyncStatus
	OnSyncStatusChange(fn func(sync.SyncStatus)) func()
	FullSync(ctx context.Context) (*sync.SyncResult, error)
	SyncStats() sync.SyncStats
	SetWorkOffline(offline bool)
	PendingOperations(ctx context.Context) ([]*operation.Operation, error)
	FailedOperations(ctx context.Context) ([]*operation.Operation, error)
	RetryOperation(ctx context.Context, id string) error
}

type Handler struct {
	service    Service
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service Service, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.getStatusOp(), h.getStatus)
	huma.Register(api, h.triggerOp(), h.trigger)
	huma.Register(api, h.getStatsOp(), h.getStats)
	huma.Register(api, h.setOfflineOp(), h.setOffline)
	huma.Register(api, h.listOperationsOp(), h.listOperations)
	huma.Register(api, h.retryOperationOp(), h.retryOperation)
}

func (h *Handler) currentStatus() statusResponse {
	return newStatusResponse(h.service.GetSyncStatus())
}

func (h *Handler) getStatus(_ context.Context, _ *struct{}) (*statusOutput, error) {
	return &statusOutput{Body: h.currentStatus()}, nil
}

// trigger выполняет цикл синхронизации и возвращает его итог
func (h *Handler) trigger(ctx context.Context, _ *struct{}) (*triggerOutput, error) {
	result, err := h.service.FullSync(ctx)
	if err != nil && result == nil {
		return nil, apierr.From(err)
	}
	if err != nil {
		h.log.Warn("manual sync failed", slog.String("error", err.Error()))
	}
	return &triggerOutput{Body: result}, nil
}

func (h *Handler) getStats(_ context.Context, _ *struct{}) (*statsOutput, error) {
	return &statsOutput{Body: h.service.SyncStats()}, nil
}

func (h *Handler) setOffline(_ context.Context, input *offlineInput) (*statusOutput, error) {
	h.service.SetWorkOffline(input.Body.Offline)
	h.log.Info("work offline toggled", slog.Bool("offline", input.Body.Offline))
	return &statusOutput{Body: h.currentStatus()}, nil
}

func (h *Handler) listOperations(ctx context.Context, input *operationsInput) (*operationsOutput, error) {
	var (
		ops []*operation.Operation
		err error
	)
	if input.Status == "failed" {
		ops, err = h.service.FailedOperations(ctx)
	} else {
		ops, err = h.service.PendingOperations(ctx)
	}
	if err != nil {
		return nil, apierr.From(err)
	}

	views := make([]operationView, 0, len(ops))
	for _, op := range ops {
		view, err := newOperationView(op)
		if err != nil {
			return nil, apierr.From(err)
		}
		views = append(views, view)
	}
	return &operationsOutput{Body: views}, nil
}

func (h *Handler) retryOperation(ctx context.Context, input *retryInput) (*retryOutput, error) {
	if err := h.service.RetryOperation(ctx, input.ID); err != nil {
		return nil, apierr.From(err)
	}
	return &retryOutput{Body: h.currentStatus()}, nil
}
