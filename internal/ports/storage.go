package ports

import (
	"context"

	"github.com/bft-labs/logship/internal/domain"
)

// Storage is a durable sink for flushed batches.
// Store is never called concurrently on the same instance: flushes are mutually
// exclusive. Implementations must leave themselves usable after a failed call.
type Storage interface {
	// Store persists the batch in order.
	// Returns nil on success or an error matching domain.ErrStorage.
	Store(ctx context.Context, batch domain.Batch) error
}
