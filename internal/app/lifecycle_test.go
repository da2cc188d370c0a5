package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// stateRecorder tracks state change events for testing.
type stateRecorder struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *stateRecorder) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *stateRecorder) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if l == nil {
		t.Fatal("NewLifecycle returned nil")
	}
	if l.State() != StateOpen {
		t.Errorf("initial state = %v, want StateOpen", l.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateOpen, "Open"},
		{StateClosing, "Closing"},
		{StateClosed, "Closed"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		got := tt.state.String()
		if got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr error
	}{
		{"open to closing", StateOpen, StateClosing, nil},
		{"closing to closed", StateClosing, StateClosed, nil},
		{"open to closed", StateOpen, StateClosed, domain.ErrClosed},
		{"closing to open", StateClosing, StateOpen, domain.ErrClosed},
		{"closed to closing", StateClosed, StateClosing, domain.ErrClosed},
		{"closed to open", StateClosed, StateOpen, domain.ErrClosed},
		{"open to open", StateOpen, StateOpen, domain.ErrClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			err := l.TransitionTo(tt.to, "test")

			if err != tt.wantErr {
				t.Errorf("TransitionTo() error = %v, want %v", err, tt.wantErr)
			}
			want := tt.to
			if tt.wantErr != nil {
				want = tt.from
			}
			if l.State() != want {
				t.Errorf("state = %v after transition, want %v", l.State(), want)
			}
		})
	}
}

func TestLifecycle_TransitionTo_EmitsEvents(t *testing.T) {
	emitter := &stateRecorder{}
	l := NewLifecycle(&mockLogger{}, emitter)

	_ = l.TransitionTo(StateClosing, "close called")
	_ = l.TransitionTo(StateClosed, "final flush done")

	events := emitter.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	if events[0].previous != StateOpen || events[0].current != StateClosing {
		t.Errorf("event 0: got %v->%v, want Open->Closing", events[0].previous, events[0].current)
	}
	if events[1].previous != StateClosing || events[1].current != StateClosed {
		t.Errorf("event 1: got %v->%v, want Closing->Closed", events[1].previous, events[1].current)
	}
	if events[0].reason != "close called" {
		t.Errorf("event 0 reason = %q", events[0].reason)
	}
}

func TestLifecycle_EnterRejectedAfterClosing(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if !l.Enter() {
		t.Fatal("Enter() = false while open")
	}
	l.Exit()

	if err := l.TransitionTo(StateClosing, "test"); err != nil {
		t.Fatal(err)
	}
	if l.Enter() {
		t.Error("Enter() = true after closing")
	}
}

func TestLifecycle_WaitForInflight(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	for i := 0; i < 3; i++ {
		if !l.Enter() {
			t.Fatal("Enter() = false while open")
		}
	}
	_ = l.TransitionTo(StateClosing, "test")

	go func() {
		time.Sleep(10 * time.Millisecond)
		for i := 0; i < 3; i++ {
			l.Exit()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}

func TestLifecycle_WaitTimeout(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	l.Enter()
	// Never call Exit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}

	// Clean up
	l.Exit()
}

func TestLifecycle_Concurrency(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if l.Enter() {
					_ = l.State()
					l.Exit()
				}
			}
		}()
	}

	// Concurrent transitions (all but one fail, which is expected)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.TransitionTo(StateClosing, "test")
		}()
	}

	wg.Wait()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if l.State() != StateClosing {
		t.Errorf("state = %v, want Closing", l.State())
	}
}
