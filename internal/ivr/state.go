// Package ivr implements the menu execution engine: the per-call digit
// collection state machine, the action dispatcher, and the timeout/retry
// policy that together drive auto-attendant call handling.
package ivr

import (
	"errors"
	"fmt"
)

// State represents where a call session is in menu execution.
type State int

const (
	// StateAwaitingGreeting - The menu greeting is being played.
	StateAwaitingGreeting State = iota
	// StateCollecting - Waiting for a digit, timeout timer armed.
	StateCollecting
	// StateDispatching - A resolved action is being applied.
	StateDispatching
	// StateTerminated - The call left IVR handling (transfer, voicemail,
	// hangup, or caller abandoned). Terminal state.
	StateTerminated
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateAwaitingGreeting:
		return "AWAITING_GREETING"
	case StateCollecting:
		return "COLLECTING"
	case StateDispatching:
		return "DISPATCHING"
	case StateTerminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal.
func (s State) IsTerminal() bool {
	return s == StateTerminated
}

// Errors for events that arrive when the session cannot accept them.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionTerminated = errors.New("session already terminated")
	ErrNotCollecting     = errors.New("session is not collecting input")
	ErrInvalidDigit      = errors.New("not a DTMF digit")
)
