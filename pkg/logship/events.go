package logship

import (
	"time"

	"github.com/bft-labs/logship/internal/app"
)

// State represents the lifecycle state of an Appender.
type State int

const (
	// StateOpen accepts appends.
	StateOpen State = iota
	// StateClosing rejects appends while the final flush runs.
	StateClosing
	// StateClosed rejects appends; the backend has been released.
	StateClosed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// FlushSuccessEvent is emitted after a batch was stored.
type FlushSuccessEvent struct {
	FlushID  string
	Backend  string
	Payloads int
	Bytes    int
	Duration time.Duration
}

// FlushErrorEvent is emitted after a batch failed to store and was dropped.
type FlushErrorEvent struct {
	FlushID  string
	Backend  string
	Error    error
	Payloads int
	Bytes    int
	Duration time.Duration
}

// DroppedEvent is emitted when an append is rejected because the appender is closed.
type DroppedEvent struct {
	Payloads int
	Total    int64
}

// EventHandler receives appender notifications.
// Embed BaseEventHandler to implement only the callbacks you need.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnFlushSuccess(event FlushSuccessEvent)
	OnFlushError(event FlushErrorEvent)
	OnDropped(event DroppedEvent)
}

// BaseEventHandler provides no-op implementations of all EventHandler methods.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)   {}
func (BaseEventHandler) OnFlushSuccess(FlushSuccessEvent) {}
func (BaseEventHandler) OnFlushError(FlushErrorEvent)     {}
func (BaseEventHandler) OnDropped(DroppedEvent)           {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
	backend string
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnFlushSuccess(flushID string, payloads, bytes int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlushSuccess(FlushSuccessEvent{
		FlushID:  flushID,
		Backend:  e.backend,
		Payloads: payloads,
		Bytes:    bytes,
		Duration: duration,
	})
}

func (e *eventEmitterWrapper) OnFlushError(flushID string, err error, payloads, bytes int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlushError(FlushErrorEvent{
		FlushID:  flushID,
		Backend:  e.backend,
		Error:    err,
		Payloads: payloads,
		Bytes:    bytes,
		Duration: duration,
	})
}

func (e *eventEmitterWrapper) dropped(payloads int, total int64) {
	if e.handler == nil {
		return
	}
	e.handler.OnDropped(DroppedEvent{Payloads: payloads, Total: total})
}

func convertState(s app.State) State {
	switch s {
	case app.StateOpen:
		return StateOpen
	case app.StateClosing:
		return StateClosing
	case app.StateClosed:
		return StateClosed
	default:
		return StateClosed
	}
}
