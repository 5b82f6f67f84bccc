package statemachine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTransition means nothing is registered for the state/event pair.
	ErrNoTransition = errors.New("no transition available")
	// ErrRejected means transitions exist but every guard said no.
	ErrRejected = errors.New("transition rejected by guards")
)

// TransitionError carries the pair that failed to resolve. Err is one of
// ErrNoTransition or ErrRejected.
type TransitionError struct {
	From  string
	Event string
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: state %q, event %q", e.Err, e.From, e.Event)
}

func (e *TransitionError) Unwrap() error { return e.Err }

func transitionError(from, event any, cause error) *TransitionError {
	return &TransitionError{From: fmt.Sprint(from), Event: fmt.Sprint(event), Err: cause}
}

func IsNoTransitionAvailableError(err error) bool {
	return errors.Is(err, ErrNoTransition)
}

func IsTransitionRejectedError(err error) bool {
	return errors.Is(err, ErrRejected)
}
