package sync

import (
	"errors"
	"fmt"
)

var (
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrOffline        = errors.New("working offline")
	ErrNotConfigured  = errors.New("server credentials are not configured")
)

// ConnectivityError сервер недоступен: таймаут, DNS, отказ в соединении, 5xx после повторов.
// Не фатальна, повторяется в следующем цикле.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity error during %s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// AuthError сервер отверг ключ или филиал. Фатальна для текущего цикла.
type AuthError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("auth error during %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("auth error during %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ApplicationError сервер отклонил операцию (валидация). Автоматически не повторяется.
type ApplicationError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("rejected by server during %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// IdMappingError операция ссылается на временный id, у которого еще нет канонического.
// Нарушение порядка отправки, цикл останавливается.
type IdMappingError struct {
	OperationID string
	EntityType  string
	TempID      int64
}

func (e *IdMappingError) Error() string {
	return fmt.Sprintf("operation %s references unmapped temporary %s id %d", e.OperationID, e.EntityType, e.TempID)
}

func IsConnectivity(err error) bool {
	var target *ConnectivityError
	return errors.As(err, &target)
}

func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

func IsApplication(err error) bool {
	var target *ApplicationError
	return errors.As(err, &target)
}

func IsIdMapping(err error) bool {
	var target *IdMappingError
	return errors.As(err, &target)
}
