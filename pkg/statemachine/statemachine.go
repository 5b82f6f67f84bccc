package statemachine

import "context"

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Action executes side effects during a transition. Returning an error aborts it.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // all must pass for the transition to proceed
	Actions []Action[S, E] // executed in order before the target state is returned
}

// Machine is the read side of a transition table.
type Machine[S, E comparable] interface {
	Fire(ctx context.Context, from S, event E, data any) (S, error)
	CanFire(ctx context.Context, from S, event E, data any) bool
	Events(from S) []E
}

// TransitionOption configures a single transition.
type TransitionOption[S, E comparable] func(*Transition[S, E])

// WithGuard appends a guard to the transition.
func WithGuard[S, E comparable](g Guard[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if g != nil {
			t.Guards = append(t.Guards, g)
		}
	}
}

// WithAction appends an action to the transition.
func WithAction[S, E comparable](a Action[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if a != nil {
			t.Actions = append(t.Actions, a)
		}
	}
}
