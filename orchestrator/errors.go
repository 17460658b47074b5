// ABOUTME: Defines the turn-level errors the orchestrator returns - a failed model
// ABOUTME: call and a turn that never produced a final answer.
package orchestrator

import (
	"errors"
	"fmt"
)

// ErrMaxRounds means a turn kept requesting tool calls past the round limit.
var ErrMaxRounds = errors.New("maximum rounds exceeded")

// ModelCallError wraps a failure of the model backend during a turn.
type ModelCallError struct {
	Round int
	Err   error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call failed (round %d): %v", e.Round, e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }
