package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) getStatusOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-get-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/status",
		Summary:     "Получить статус синхронизации",
		Description: "Связь с сервером, фаза цикла, число неотправленных и отклоненных операций",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) triggerOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-trigger",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync",
		Summary:     "Синхронизировать сейчас",
		Description: "Загружает справочники и отправляет журнал. 409, если цикл уже идет или включен офлайн-режим",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getStatsOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-get-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/stats",
		Summary:     "Статистика синхронизаций",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) setOfflineOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-set-offline",
		Method:      http.MethodPut,
		Path:        "/api/v1/sync/offline",
		Summary:     "Включить или выключить офлайн-режим",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) listOperationsOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-list-operations",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/operations",
		Summary:     "Журнал неподтвержденных операций",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) retryOperationOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-retry-operation",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/operations/{id}/retry",
		Summary:     "Повторить отклоненную операцию",
		Description: "Возвращает отклоненную сервером операцию в очередь",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}
