package statemachine

// Builder provides a fluent API for assembling a Table.
type Builder[S, E comparable] struct {
	table *Table[S, E]
	draft *Transition[S, E]
}

// NewBuilder creates a new table builder.
func NewBuilder[S, E comparable]() *Builder[S, E] {
	return &Builder[S, E]{table: NewTable[S, E]()}
}

// From starts a new transition. Any unfinished transition is discarded.
func (b *Builder[S, E]) From(state S) *Builder[S, E] {
	b.draft = &Transition[S, E]{From: state}
	return b
}

// When sets the event that triggers the current transition.
func (b *Builder[S, E]) When(event E) *Builder[S, E] {
	b.ensureDraft().Event = event
	return b
}

// To sets the target state of the current transition.
func (b *Builder[S, E]) To(state S) *Builder[S, E] {
	b.ensureDraft().To = state
	return b
}

// Guard adds a guard to the current transition.
func (b *Builder[S, E]) Guard(g Guard[S, E]) *Builder[S, E] {
	WithGuard(g)(b.ensureDraft())
	return b
}

// Action adds an action to the current transition.
func (b *Builder[S, E]) Action(a Action[S, E]) *Builder[S, E] {
	WithAction(a)(b.ensureDraft())
	return b
}

// Add finalizes the current transition.
func (b *Builder[S, E]) Add() *Builder[S, E] {
	if b.draft != nil {
		b.table.add(*b.draft)
		b.draft = nil
	}
	return b
}

// Build returns the constructed table. An unfinished transition is added first.
func (b *Builder[S, E]) Build() *Table[S, E] {
	b.Add()
	return b.table
}

func (b *Builder[S, E]) ensureDraft() *Transition[S, E] {
	if b.draft == nil {
		b.draft = &Transition[S, E]{}
	}
	return b.draft
}
