package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the logship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrStorage is matched by every error a storage backend returns from Store.
	ErrStorage = errors.New("logship: storage failure")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("logship: invalid configuration")

	// ErrClosed is returned by operations on an appender after Close.
	ErrClosed = errors.New("logship: appender closed")
)

// StorageError describes a failed Store call on a specific backend.
type StorageError struct {
	// Backend names the backend variant (e.g. "immudb", "immudb-vault", "kafka").
	Backend string

	// Op is the step that failed (e.g. "begin", "insert", "put").
	Op string

	// Err is the underlying cause.
	Err error
}

// NewStorageError wraps err as a StorageError.
func NewStorageError(backend, op string, err error) *StorageError {
	return &StorageError{Backend: backend, Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("logship: %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is reports ErrStorage as a match so callers need not know the concrete type.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
