package checkout

import (
	"errors"
	"fmt"
	"log/slog"
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StatePersisting
	StateNotifying
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StatePersisting:
		return "persisting"
	case StateNotifying:
		return "notifying"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var transitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateValidating: {StateIdle, StatePersisting},
	StatePersisting: {StateNotifying, StateFailed},
	StateNotifying:  {StateComplete},
}

// CanTransition reports whether a submission in s may move to next. Complete
// and Failed are terminal; a retry starts a new submission from Idle.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// submission tracks the state of one Submit call.
type submission struct {
	state  State
	logger *slog.Logger
}

func newSubmission(logger *slog.Logger) *submission {
	return &submission{state: StateIdle, logger: logger}
}

// advance moves to next and panics on a move the machine does not allow.
func (s *submission) advance(next State) {
	if !s.state.CanTransition(next) {
		panic(fmt.Sprintf("checkout: illegal transition %s -> %s", s.state, next))
	}
	s.logger.Debug("checkout transition", "from", s.state.String(), "to", next.String())
	s.state = next
}

// StateOf is the state a submission settles in given Submit's error.
// Validation problems return the flow to idle.
func StateOf(err error) State {
	var verr *ValidationError
	switch {
	case err == nil:
		return StateComplete
	case errors.As(err, &verr), errors.Is(err, ErrEmptyCart), errors.Is(err, ErrOrderTooLarge):
		return StateIdle
	default:
		return StateFailed
	}
}
