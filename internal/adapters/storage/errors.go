package storage

import (
	"errors"
	"fmt"
)

// Common storage error types
var (
	ErrFileNotFound       = errors.New("file not found")
	ErrInvalidKey         = errors.New("invalid file id")
	ErrInvalidData        = errors.New("invalid data")
	ErrStorageUnavailable = errors.New("storage service unavailable")
	ErrRejected           = errors.New("rejected by file host")
	ErrNotConfigured      = errors.New("file host not configured")
)

// StorageError represents a file host operation error with additional context
type StorageError struct {
	Op      string // Operation that failed (e.g., "Upload", "ResolveURL")
	Key     string // File ID involved in the operation
	Message string // Message reported by the host, if any
	Err     error  // Underlying error
}

func (e *StorageError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Key != "" {
		return fmt.Sprintf("storage %s operation failed for key '%s': %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s operation failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError
func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// RejectedError records a refusal reported by the host
func RejectedError(op, key, message string) *StorageError {
	return &StorageError{
		Op:      op,
		Key:     key,
		Message: message,
		Err:     ErrRejected,
	}
}

// IsNotFound returns true if the error indicates a file was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}

// IsRejected returns true if the host refused the operation
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
