package app

import "time"

// Default trigger thresholds.
const (
	DefaultMaxCount    = 100
	DefaultMaxBytes    = 1 << 20 // 1 MiB
	DefaultMaxInterval = 10 * time.Second
)

// Thresholds holds the three independent flush triggers.
type Thresholds struct {
	// MaxCount is the number of pending payloads that forces a flush.
	MaxCount int

	// MaxBytes is the buffered payload size that forces a flush.
	MaxBytes int

	// MaxInterval is the staleness since the last flush that forces a flush.
	// It is a trigger only, never a deadline on the flush itself.
	MaxInterval time.Duration
}

// DefaultThresholds returns 100 payloads, 1 MiB and 10 seconds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxCount:    DefaultMaxCount,
		MaxBytes:    DefaultMaxBytes,
		MaxInterval: DefaultMaxInterval,
	}
}

// ShouldFlush reports whether any trigger has been reached.
// Reaching a threshold exactly counts.
func ShouldFlush(count, bytes int, sinceLastFlush time.Duration, t Thresholds) bool {
	return count >= t.MaxCount ||
		bytes >= t.MaxBytes ||
		sinceLastFlush >= t.MaxInterval
}
