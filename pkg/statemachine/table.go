package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Table is a concurrency-safe transition table.
// Lookups use a nested map: [from][event][]Transition.
type Table[S, E comparable] struct {
	mu          sync.RWMutex
	transitions map[S]map[E][]Transition[S, E]
	order       map[S][]E
}

// NewTable returns an empty transition table.
func NewTable[S, E comparable]() *Table[S, E] {
	return &Table[S, E]{
		transitions: make(map[S]map[E][]Transition[S, E]),
		order:       make(map[S][]E),
	}
}

// Permit registers a transition from -> to triggered by event.
func (t *Table[S, E]) Permit(from S, event E, to S, opts ...TransitionOption[S, E]) *Table[S, E] {
	tr := Transition[S, E]{From: from, To: to, Event: event}
	for _, opt := range opts {
		opt(&tr)
	}
	t.add(tr)
	return t
}

func (t *Table[S, E]) add(tr Transition[S, E]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	events, ok := t.transitions[tr.From]
	if !ok {
		events = make(map[E][]Transition[S, E])
		t.transitions[tr.From] = events
	}
	if _, seen := events[tr.Event]; !seen {
		t.order[tr.From] = append(t.order[tr.From], tr.Event)
	}
	events[tr.Event] = append(events[tr.Event], tr)
}

// Fire resolves the target state for event fired in state from.
// Guards are evaluated in registration order; the first transition whose
// guards all pass has its actions executed and its target returned.
func (t *Table[S, E]) Fire(ctx context.Context, from S, event E, data any) (S, error) {
	t.mu.RLock()
	candidates := t.transitions[from][event]
	t.mu.RUnlock()

	if len(candidates) == 0 {
		return from, transitionError(from, event, ErrNoTransition)
	}

	tr, ok := firstAllowed(ctx, candidates, from, event, data)
	if !ok {
		return from, transitionError(from, event, ErrRejected)
	}

	for _, action := range tr.Actions {
		if err := action(ctx, from, tr.To, event, data); err != nil {
			return from, fmt.Errorf("action failed: %w", err)
		}
	}

	return tr.To, nil
}

// CanFire reports whether Fire would find an allowed transition. Actions are not run.
func (t *Table[S, E]) CanFire(ctx context.Context, from S, event E, data any) bool {
	t.mu.RLock()
	candidates := t.transitions[from][event]
	t.mu.RUnlock()

	_, ok := firstAllowed(ctx, candidates, from, event, data)
	return ok
}

// Events lists the events registered for a state, in registration order.
func (t *Table[S, E]) Events(from S) []E {
	t.mu.RLock()
	defer t.mu.RUnlock()

	events := make([]E, len(t.order[from]))
	copy(events, t.order[from])
	return events
}

func firstAllowed[S, E comparable](ctx context.Context, candidates []Transition[S, E], from S, event E, data any) (Transition[S, E], bool) {
	for _, tr := range candidates {
		passed := true
		for _, guard := range tr.Guards {
			if !guard(ctx, from, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return tr, true
		}
	}
	return Transition[S, E]{}, false
}
