package ports

import "time"

// FlushEventEmitter is notified about every flush attempt that reached storage.
// Calls are made from the flush goroutine and must return quickly.
type FlushEventEmitter interface {
	OnFlushSuccess(flushID string, payloads, bytes int, duration time.Duration)
	OnFlushError(flushID string, err error, payloads, bytes int, duration time.Duration)
}
