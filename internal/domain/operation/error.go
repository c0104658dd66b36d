package operation

import (
	"errors"
)

var (
	ErrInvalidOperation = errors.New("invalid pending operation")
	ErrNotFound         = errors.New("pending operation not found")
	ErrDuplicate        = errors.New("pending operation already exists")
	ErrNotRetryable     = errors.New("pending operation is not in failed state")
)
