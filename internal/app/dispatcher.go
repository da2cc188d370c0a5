package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

const (
	// claimPollInterval is how often a synchronous Flush retries claiming the flag.
	claimPollInterval = 5 * time.Millisecond

	// Storage failures are logged at most errorLogBurst times per errorLogInterval.
	errorLogInterval = time.Second
	errorLogBurst    = 5
)

// DispatcherConfig contains configuration for the dispatcher.
type DispatcherConfig struct {
	Thresholds Thresholds

	// Backend names the storage variant in log lines.
	Backend string

	// Now returns the current time for trigger evaluation. Defaults to time.Now.
	Now func() time.Time
}

// Dispatcher decides when to flush and runs at most one flush at a time.
type Dispatcher struct {
	config  DispatcherConfig
	buffer  *Buffer
	storage ports.Storage
	logger  ports.Logger
	emitter ports.FlushEventEmitter
	now     func() time.Time

	// lastFlush is the unix-nano time of the last completed flush attempt.
	lastFlush atomic.Int64
	// flushing is the in-progress flag; only CompareAndSwap(false, true) claims it.
	flushing atomic.Bool

	errLimiter *rate.Limiter
	suppressed atomic.Int64
}

// NewDispatcher creates a dispatcher draining buffer into storage.
// emitter may be nil.
func NewDispatcher(
	config DispatcherConfig,
	buffer *Buffer,
	storage ports.Storage,
	logger ports.Logger,
	emitter ports.FlushEventEmitter,
) *Dispatcher {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	d := &Dispatcher{
		config:     config,
		buffer:     buffer,
		storage:    storage,
		logger:     logger,
		emitter:    emitter,
		now:        now,
		errLimiter: rate.NewLimiter(rate.Every(errorLogInterval/errorLogBurst), errorLogBurst),
	}
	d.lastFlush.Store(now().UnixNano())
	return d
}

// Append buffers payload and starts a background flush if a trigger fired.
// It never blocks on a flush and never reports storage failures.
// Returns true if this call started a flush.
func (d *Dispatcher) Append(payload []byte) bool {
	count, bytes := d.buffer.Append(payload)
	return d.MaybeFlush(count, bytes)
}

// MaybeFlush evaluates the triggers against the given batch length and size and,
// if one fired and no flush is running, starts a flush goroutine.
// Losing the claim to a concurrent producer is expected and not an error.
func (d *Dispatcher) MaybeFlush(count, bytes int) bool {
	if !ShouldFlush(count, bytes, d.SinceLastFlush(), d.config.Thresholds) {
		return false
	}
	if !d.flushing.CompareAndSwap(false, true) {
		return false
	}
	go d.flushAsync()
	return true
}

func (d *Dispatcher) flushAsync() {
	// No deadline: the sync interval only triggers flushes. Backends apply their own timeouts.
	_ = d.flush(context.Background(), true)
}

// Flush waits for any running flush, then flushes the active batch synchronously
// and returns the storage error. ctx bounds the wait and is passed to the backend.
func (d *Dispatcher) Flush(ctx context.Context) error {
	if err := d.claim(ctx); err != nil {
		return err
	}
	return d.flush(ctx, true)
}

// Shutdown flushes like Flush but keeps the in-progress flag claimed afterwards,
// so no further flush can start. Payloads appended later stay in the buffer.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if err := d.claim(ctx); err != nil {
		return err
	}
	return d.flush(ctx, false)
}

// InProgress reports whether a flush currently holds the flag.
func (d *Dispatcher) InProgress() bool {
	return d.flushing.Load()
}

// LastFlush returns the completion time of the last flush attempt,
// or the construction time before the first one.
func (d *Dispatcher) LastFlush() time.Time {
	return time.Unix(0, d.lastFlush.Load())
}

// SinceLastFlush returns the elapsed time since LastFlush by the dispatcher clock.
func (d *Dispatcher) SinceLastFlush() time.Duration {
	return d.now().Sub(d.LastFlush())
}

func (d *Dispatcher) claim(ctx context.Context) error {
	if d.flushing.CompareAndSwap(false, true) {
		return nil
	}
	ticker := time.NewTicker(claimPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if d.flushing.CompareAndSwap(false, true) {
				return nil
			}
		}
	}
}

// flush must only be called while holding the flag. The timestamp is updated
// before the flag is released so the next trigger sees fresh timing.
func (d *Dispatcher) flush(ctx context.Context, release bool) error {
	batch := d.buffer.Swap()

	var err error
	if !batch.Empty() {
		err = d.store(ctx, batch)
	}

	d.lastFlush.Store(d.now().UnixNano())
	if release {
		d.flushing.Store(false)
	}
	return err
}

func (d *Dispatcher) store(ctx context.Context, batch domain.Batch) (err error) {
	flushID := uuid.NewString()
	bytes := batch.TotalBytes()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = domain.NewStorageError(d.config.Backend, "store", fmt.Errorf("panic: %v", r))
		}
		d.report(flushID, batch.Size(), bytes, time.Since(start), err)
	}()

	return d.storage.Store(ctx, batch)
}

func (d *Dispatcher) report(flushID string, payloads, bytes int, duration time.Duration, err error) {
	if err != nil {
		if d.errLimiter.Allow() {
			fields := []ports.Field{
				ports.String("flush_id", flushID),
				ports.String("backend", d.config.Backend),
				ports.Int("payloads", payloads),
				ports.Int("bytes", bytes),
				ports.Duration("duration", duration),
				ports.Err(err),
			}
			if n := d.suppressed.Swap(0); n > 0 {
				fields = append(fields, ports.Int64("suppressed", n))
			}
			d.logger.Error("flush failed, batch dropped", fields...)
		} else {
			d.suppressed.Add(1)
		}
		if d.emitter != nil {
			d.notify(flushID, func() { d.emitter.OnFlushError(flushID, err, payloads, bytes, duration) })
		}
		return
	}

	d.logger.Debug("flushed batch",
		ports.String("flush_id", flushID),
		ports.String("backend", d.config.Backend),
		ports.Int("payloads", payloads),
		ports.Int("bytes", bytes),
		ports.Duration("duration", duration),
	)
	if d.emitter != nil {
		d.notify(flushID, func() { d.emitter.OnFlushSuccess(flushID, payloads, bytes, duration) })
	}
}

// notify runs an event handler callback. A panicking handler is logged and
// the flush still completes.
func (d *Dispatcher) notify(flushID string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("flush event handler panicked",
				ports.String("flush_id", flushID),
				ports.Any("panic", r),
			)
		}
	}()
	fn()
}
