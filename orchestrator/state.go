// ABOUTME: Implements the turn state machine - ensures the orchestrator only moves
// ABOUTME: between model calls, pending tool calls, and final text in legal steps.
package orchestrator

import (
	"fmt"
	"sync"
)

// State represents the current state of the orchestrator.
type State string

const (
	StateAwaitingInput    State = "awaiting_input"
	StateModelCall        State = "model_call"
	StateToolCallsPending State = "tool_calls_pending"
	StateFinalText        State = "final_text"
	StateError            State = "error"
)

var validTransitions = map[State][]State{
	StateAwaitingInput:    {StateModelCall, StateError},
	StateModelCall:        {StateToolCallsPending, StateFinalText, StateError},
	StateToolCallsPending: {StateModelCall, StateError},
	StateFinalText:        {StateAwaitingInput},
	StateError:            {StateAwaitingInput},
}

// StateMachine manages orchestrator state with validation.
type StateMachine struct {
	mu      sync.RWMutex
	current State
}

// NewStateMachine creates a new StateMachine awaiting input.
func NewStateMachine() *StateMachine {
	return &StateMachine{current: StateAwaitingInput}
}

// Current returns the current state.
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Transition attempts to move to a new state.
func (sm *StateMachine) Transition(to State) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, allowed := range validTransitions[sm.current] {
		if allowed == to {
			sm.current = to
			return nil
		}
	}
	return fmt.Errorf("invalid transition: %s -> %s", sm.current, to)
}

// ForceState sets state without validation (testing only).
func (sm *StateMachine) ForceState(state State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.current = state
}

// Reset returns to awaiting input.
func (sm *StateMachine) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.current = StateAwaitingInput
}
