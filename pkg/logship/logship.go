package logship

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/bft-labs/logship/internal/app"
	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
	"github.com/bft-labs/logship/pkg/log"
)

// Appender buffers encoded log payloads and flushes them to a Storage in the
// background. All methods are safe for concurrent use.
type Appender struct {
	config     Config
	backend    string
	encoder    Encoder
	storage    Storage
	buffer     *app.Buffer
	dispatcher *app.Dispatcher
	lifecycle  *app.Lifecycle
	emitter    *eventEmitterWrapper
	logger     ports.Logger

	dropped atomic.Int64
}

// New creates an Appender in StateOpen.
// The backend is built from cfg.Backend unless WithStorage is given.
// Returns an error wrapping ErrInvalidConfig if the configuration is unusable.
func New(cfg Config, opts ...Option) (*Appender, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.With(o.logger, log.String("appender", cfg.Name))

	storage := o.storage
	backend := "custom"
	if storage == nil {
		s, err := newStorage(cfg.Backend, options{logger: logger, httpClient: o.httpClient})
		if err != nil {
			return nil, err
		}
		storage = s
		backend = cfg.Backend.Type
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler, backend: backend}
	buffer := app.NewBuffer(cfg.MaxPendingCount)
	dispatcher := app.NewDispatcher(app.DispatcherConfig{
		Thresholds: cfg.thresholds(),
		Backend:    backend,
		Now:        o.now,
	}, buffer, storage, logger, emitter)

	a := &Appender{
		config:     cfg,
		backend:    backend,
		encoder:    o.encoder,
		storage:    storage,
		buffer:     buffer,
		dispatcher: dispatcher,
		lifecycle:  app.NewLifecycle(logger, emitter),
		emitter:    emitter,
		logger:     logger,
	}

	logger.Info("appender created",
		log.String("backend", backend),
		log.Int("max_pending_count", cfg.MaxPendingCount),
		log.Int("max_pending_bytes", cfg.MaxPendingBytes),
		log.Duration("sync_interval", cfg.SyncInterval),
	)
	return a, nil
}

// Append buffers payload and may start a background flush.
// It never blocks on storage and never reports storage errors. After Close
// the payload is dropped and ErrClosed is returned.
// The appender keeps payload; callers must not modify it afterwards.
func (a *Appender) Append(payload []byte) error {
	if !a.lifecycle.Enter() {
		a.drop()
		return domain.ErrClosed
	}
	defer a.lifecycle.Exit()

	a.dispatcher.Append(payload)
	return nil
}

// AppendEvent encodes event with the configured Encoder and appends it.
func (a *Appender) AppendEvent(event Event) error {
	payload, err := a.encoder.Encode(event)
	if err != nil {
		return err
	}
	return a.Append(payload)
}

// Write implements io.Writer. Each call appends one payload with trailing
// newlines removed. p is copied, so callers may reuse it.
func (a *Appender) Write(p []byte) (int, error) {
	line := bytes.TrimRight(p, "\r\n")
	if len(line) == 0 {
		return len(p), nil
	}
	payload := make([]byte, len(line))
	copy(payload, line)

	if err := a.Append(payload); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush waits for a running flush and synchronously stores everything
// buffered so far. Unlike background flushes it returns the storage error.
func (a *Appender) Flush(ctx context.Context) error {
	if !a.lifecycle.Enter() {
		return domain.ErrClosed
	}
	defer a.lifecycle.Exit()

	return a.dispatcher.Flush(ctx)
}

// Close stops accepting appends, waits for appends and any flush in
// progress, flushes the remaining payloads once and closes the backend if it
// implements io.Closer. ctx bounds the waiting, including the backend close:
// once ctx is done the backend is left open, since a flush may still be using
// it. Close returns ErrClosed if called more than once.
func (a *Appender) Close(ctx context.Context) error {
	if err := a.lifecycle.TransitionTo(app.StateClosing, "Close() called"); err != nil {
		return err
	}

	var errs []error
	if err := a.lifecycle.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("wait for appends: %w", err))
	}
	if err := a.dispatcher.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("final flush: %w", err))
	}
	if err := a.closeStorage(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}

	if n := a.buffer.Len(); n > 0 {
		a.logger.Warn("payloads left unflushed at close", log.Int("payloads", n))
	}

	_ = a.lifecycle.TransitionTo(app.StateClosed, "Close() finished")
	return errors.Join(errs...)
}

// State returns the current lifecycle state.
func (a *Appender) State() State {
	return convertState(a.lifecycle.State())
}

// Dropped returns the number of payloads rejected because the appender was closed.
func (a *Appender) Dropped() int64 {
	return a.dropped.Load()
}

// Pending returns the number of payloads waiting for the next flush.
func (a *Appender) Pending() int {
	return a.buffer.Len()
}

// LastFlush returns the completion time of the last flush attempt.
func (a *Appender) LastFlush() time.Time {
	return a.dispatcher.LastFlush()
}

// Backend returns the storage backend name.
func (a *Appender) Backend() string {
	return a.backend
}

func (a *Appender) closeStorage(ctx context.Context) error {
	closer, ok := a.storage.(io.Closer)
	if !ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		a.logger.Warn("storage left open, close deadline passed", log.Err(err))
		return err
	}

	done := make(chan error, 1)
	go func() { done <- closer.Close() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		a.logger.Warn("storage close still running at deadline", log.Err(ctx.Err()))
		return ctx.Err()
	}
}

func (a *Appender) drop() {
	total := a.dropped.Add(1)
	a.emitter.dropped(1, total)
	if total == 1 || total%1000 == 0 {
		a.logger.Warn("append after close dropped", log.Int64("dropped_total", total))
	}
}
