package clinic

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrUnknownEntity = errors.New("unknown entity type")
	ErrDanglingRef   = errors.New("reference does not resolve to a local entity")
)
