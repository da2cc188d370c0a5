package logship

import "github.com/bft-labs/logship/internal/domain"

// Errors returned by the appender and its backends.
var (
	// ErrStorage matches every error returned by a backend's Store.
	ErrStorage = domain.ErrStorage

	// ErrInvalidConfig is returned by New and NewStorage for unusable configuration.
	ErrInvalidConfig = domain.ErrInvalidConfig

	// ErrClosed is returned after Close.
	ErrClosed = domain.ErrClosed
)

// StorageError describes a failed Store call.
type StorageError = domain.StorageError
