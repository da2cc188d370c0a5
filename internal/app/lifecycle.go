package app

import (
	"context"
	"sync"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

// State represents the lifecycle state of an appender.
type State int

const (
	StateOpen State = iota
	StateClosing
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

// Lifecycle gates appends against Close.
// Appends enter while the state is Open; Close moves to Closing, which
// stops new entries, then waits for entered appends before the final flush.
type Lifecycle struct {
	mu           sync.RWMutex
	state        State
	inflight     sync.WaitGroup
	logger       ports.Logger
	eventEmitter EventEmitter
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// NewLifecycle creates a lifecycle in StateOpen. emitter may be nil.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateOpen,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo attempts to transition to a new state.
// Only Open to Closing and Closing to Closed are valid; anything else
// returns domain.ErrClosed.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	valid := (oldState == StateOpen && newState == StateClosing) ||
		(oldState == StateClosing && newState == StateClosed)
	if !valid {
		l.mu.Unlock()
		return domain.ErrClosed
	}

	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}

// Enter registers an in-flight append. It returns false once the lifecycle
// has left StateOpen; callers must not call Exit in that case.
func (l *Lifecycle) Enter() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state != StateOpen {
		return false
	}
	l.inflight.Add(1)
	return true
}

// Exit marks an append registered by Enter as finished.
func (l *Lifecycle) Exit() {
	l.inflight.Done()
}

// Wait blocks until every entered append has exited or ctx is done.
func (l *Lifecycle) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		l.logger.Warn("appends still in flight at close", ports.Err(ctx.Err()))
		return ctx.Err()
	}
}
