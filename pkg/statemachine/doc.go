// Package statemachine provides a generic, stateless transition table for
// finite-state-machine style lifecycles.
//
// Unlike a classic FSM object, a Table does not hold a "current" state. The
// caller passes the state it loaded from storage and gets back the target
// state, which makes the same table safe to share between goroutines and
// between many records (one table, millions of subscriptions).
//
// A Table handles:
//  1. Transition lookup keyed by (from, event)
//  2. Guard evaluation to accept or reject a transition
//  3. Action execution before the transition is reported as successful
//
// Multiple transitions may be registered for the same (from, event) pair; the
// first one whose guards all pass wins, which allows priority ordering.
//
// # Usage
//
//	type Status string
//	type Event string
//
//	table := statemachine.NewBuilder[Status, Event]().
//	    From("active").When("cancel").To("canceled").Add().
//	    From("canceled").When("reactivate").To("active").Add().
//	    Build()
//
//	next, err := table.Fire(ctx, "active", "cancel", nil)
//	if statemachine.IsNoTransitionAvailableError(err) {
//	    // event not allowed in this state
//	}
//
// # Errors
//
// Fire returns a *TransitionError wrapping ErrNoTransition when nothing is
// registered for the (from, event) pair, and ErrRejected when every candidate
// was blocked by a guard. Action failures are wrapped and returned as-is.
package statemachine
