package apierr

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/operation"
	"clinicsync/internal/domain/sync"
	"clinicsync/internal/infrastructure/storage/sqlite"
)

// From переводит ошибку движка в HTTP-ответ
func From(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, clinic.ErrNotFound), errors.Is(err, operation.ErrNotFound),
		errors.Is(err, sqlite.ErrSettingNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, clinic.ErrInvalidData), errors.Is(err, clinic.ErrDanglingRef),
		errors.Is(err, clinic.ErrUnknownEntity), errors.Is(err, operation.ErrInvalidOperation):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, operation.ErrDuplicate), errors.Is(err, operation.ErrNotRetryable),
		errors.Is(err, sync.ErrSyncInProgress), errors.Is(err, sync.ErrOffline):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, sync.ErrNotConfigured):
		return huma.Error412PreconditionFailed(err.Error())
	case sync.IsConnectivity(err):
		return huma.Error503ServiceUnavailable(err.Error())
	case sync.IsAuth(err), sync.IsApplication(err):
		return huma.Error502BadGateway(err.Error())
	}
	return huma.Error500InternalServerError("internal error", err)
}
