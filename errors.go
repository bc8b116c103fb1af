package mediagate

import "errors"

var (
	// ErrNotFound is returned when the requested object does not exist
	ErrNotFound = errors.New("not found")
	// ErrStorageUnavailable is returned when the storage backend cannot be reached
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
