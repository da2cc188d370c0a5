package app

import (
	"sync"

	"github.com/bft-labs/logship/internal/domain"
)

// maxCapacityHint caps the pre-sized capacity of a fresh batch. Larger batches
// grow as payloads arrive.
const maxCapacityHint = 1024

// Buffer is the double buffer producers append into.
//
// Appends hold the read side of mu so any number of producers proceed together;
// each serialises only on the short critical section of the active batch.
// Swap holds the write side, so it observes every append that started before it
// and no append can land in a batch after it has been swapped out.
type Buffer struct {
	mu       sync.RWMutex
	active   *pendingBatch
	capacity int
}

type pendingBatch struct {
	mu       sync.Mutex
	payloads domain.Batch
	bytes    int
}

// NewBuffer creates an empty buffer. capacity pre-sizes each fresh batch,
// up to maxCapacityHint.
func NewBuffer(capacity int) *Buffer {
	capacity = max(0, min(capacity, maxCapacityHint))
	return &Buffer{
		active:   newPendingBatch(capacity),
		capacity: capacity,
	}
}

func newPendingBatch(capacity int) *pendingBatch {
	return &pendingBatch{payloads: make(domain.Batch, 0, capacity)}
}

// Append adds payload to the active batch and returns the batch length and
// buffered byte count right after the append.
func (b *Buffer) Append(payload []byte) (count, bytes int) {
	b.mu.RLock()
	p := b.active
	p.mu.Lock()
	p.payloads = append(p.payloads, payload)
	p.bytes += len(payload)
	count, bytes = len(p.payloads), p.bytes
	p.mu.Unlock()
	b.mu.RUnlock()
	return count, bytes
}

// Swap replaces the active batch with an empty one and returns the old batch.
// The returned batch is owned by the caller; no producer will touch it again.
func (b *Buffer) Swap() domain.Batch {
	b.mu.Lock()
	old := b.active
	b.active = newPendingBatch(b.capacity)
	b.mu.Unlock()
	return old.payloads
}

// Len returns the number of payloads in the active batch.
func (b *Buffer) Len() int {
	count, _ := b.stats()
	return count
}

// Size returns the buffered byte count of the active batch.
func (b *Buffer) Size() int {
	_, bytes := b.stats()
	return bytes
}

func (b *Buffer) stats() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p := b.active
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads), p.bytes
}
