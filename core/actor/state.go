package actor

import (
	"fmt"
	"sync"
)

// State is the actor lifecycle state. Exactly one state is held at a time.
type State int

const (
	StateInitialized State = iota
	StateRunning
	StatePaused
	StateStopped
	StateError
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions is the single source of truth for legal state changes.
// Stop is legal from every state (including itself, so Stop is idempotent)
// and Error is reachable from any processing failure. An actor in Error
// cannot restart without an external Reset.
var transitions = map[State][]State{
	StateInitialized: {StateRunning, StateStopped, StateError},
	StateRunning:     {StatePaused, StateStopped, StateError},
	StatePaused:      {StateRunning, StateStopped, StateError},
	StateStopped:     {StateRunning, StateStopped, StateError},
	StateError:       {StateStopped, StateError},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Status is a state with its reason (set for Paused and Error).
type Status struct {
	State  State
	Reason string
}

// machine guards the current status and broadcasts every change so mailbox
// loops can park while the actor is not running.
type machine struct {
	mu      sync.RWMutex
	cur     Status
	changed chan struct{}
}

func newMachine() *machine {
	return &machine{
		cur:     Status{State: StateInitialized},
		changed: make(chan struct{}),
	}
}

func (m *machine) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

func (m *machine) Is(s State) bool {
	return m.Status().State == s
}

// Changed returns a channel closed on the next state change.
func (m *machine) Changed() <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.changed
}

// Transition moves to the target state if the transition table allows it.
func (m *machine) Transition(to State, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !canTransition(m.cur.State, to) {
		return fmt.Errorf("transition %s -> %s: %w", m.cur.State, to, ErrInvalidState)
	}
	m.cur = Status{State: to, Reason: reason}
	close(m.changed)
	m.changed = make(chan struct{})
	return nil
}
