package ports

import "github.com/bft-labs/logship/internal/domain"

// Encoder turns a structured event into the payload bytes that get buffered.
// Implementations must be deterministic and free of side effects.
type Encoder interface {
	Encode(event domain.Event) ([]byte, error)
}
