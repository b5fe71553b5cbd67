// Package session models the lifecycle of one broker subscription attempt as
// a finite-state machine. A session is created per fetch, walks from init to
// closed exactly once and cannot be reused.
package session

import (
	"context"

	"github.com/looplab/fsm"
)

// State is a session lifecycle state.
type State string

const (
	StateInit       State = "init"
	StateConnecting State = "connecting"
	StateSubscribed State = "subscribed"
	StateCompleted  State = "completed"
	StateTimedOut   State = "timed_out"
	StateErrored    State = "errored"
	StateClosed     State = "closed"
)

const (
	EventConnect   = "connect"
	EventSubscribe = "subscribe"
	EventComplete  = "complete"
	EventTimeout   = "timeout"
	EventFail      = "fail"
	EventClose     = "close"
)

// TransitionFunc observes every state change.
type TransitionFunc func(from, to State)

// Session wraps the state machine and remembers the outcome state it
// passed through before closing.
type Session struct {
	fsm     *fsm.FSM
	outcome State
	onMove  TransitionFunc
}

// New returns a session in StateInit. onMove may be nil.
func New(onMove TransitionFunc) *Session {
	s := &Session{onMove: onMove}
	events := fsm.Events{
		{Name: EventConnect, Src: []string{string(StateInit)}, Dst: string(StateConnecting)},
		{Name: EventSubscribe, Src: []string{string(StateConnecting)}, Dst: string(StateSubscribed)},
		{Name: EventComplete, Src: []string{string(StateSubscribed)}, Dst: string(StateCompleted)},
		{Name: EventTimeout, Src: []string{string(StateSubscribed)}, Dst: string(StateTimedOut)},
		{Name: EventFail, Src: []string{string(StateConnecting), string(StateSubscribed)}, Dst: string(StateErrored)},
		{Name: EventClose, Src: []string{string(StateCompleted), string(StateTimedOut), string(StateErrored)}, Dst: string(StateClosed)},
	}
	callbacks := fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) { s.entered(State(e.Src), State(e.Dst)) },
	}
	s.fsm = fsm.NewFSM(string(StateInit), events, callbacks)
	return s
}

func (s *Session) entered(from, to State) {
	switch to {
	case StateCompleted, StateTimedOut, StateErrored:
		s.outcome = to
	}
	if s.onMove != nil {
		s.onMove(from, to)
	}
}

// Fire triggers the named event. Events not allowed from the current state
// return an fsm.InvalidEventError.
func (s *Session) Fire(ctx context.Context, event string) error {
	return s.fsm.Event(ctx, event)
}

// Can reports whether event is allowed in the current state.
func (s *Session) Can(event string) bool { return s.fsm.Can(event) }

// State returns the current state.
func (s *Session) State() State { return State(s.fsm.Current()) }

// Outcome returns the terminal outcome, or empty if none was reached yet.
func (s *Session) Outcome() State { return s.outcome }

// Closed reports whether the session reached its final state.
func (s *Session) Closed() bool { return s.State() == StateClosed }
