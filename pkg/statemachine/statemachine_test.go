package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innerbloom/billing/pkg/statemachine"
)

type docState string

type docEvent string

const (
	draft     docState = "draft"
	inReview  docState = "in_review"
	approved  docState = "approved"
	published docState = "published"
	rejected  docState = "rejected"

	submit  docEvent = "submit"
	approve docEvent = "approve"
	reject  docEvent = "reject"
	publish docEvent = "publish"
)

func TestTable_Fire(t *testing.T) {
	t.Parallel()

	table := statemachine.NewTable[docState, docEvent]().
		Permit(draft, submit, inReview).
		Permit(inReview, approve, approved).
		Permit(inReview, reject, rejected)

	ctx := context.Background()

	t.Run("resolves registered transition", func(t *testing.T) {
		t.Parallel()
		next, err := table.Fire(ctx, draft, submit, nil)
		require.NoError(t, err)
		assert.Equal(t, inReview, next)
	})

	t.Run("table is stateless", func(t *testing.T) {
		t.Parallel()
		first, err := table.Fire(ctx, inReview, approve, nil)
		require.NoError(t, err)
		second, err := table.Fire(ctx, inReview, reject, nil)
		require.NoError(t, err)
		assert.Equal(t, approved, first)
		assert.Equal(t, rejected, second)
	})

	t.Run("unknown pair returns no transition error and the original state", func(t *testing.T) {
		t.Parallel()
		next, err := table.Fire(ctx, draft, publish, nil)
		require.Error(t, err)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
		assert.False(t, statemachine.IsTransitionRejectedError(err))
		assert.Equal(t, draft, next)
		assert.ErrorIs(t, err, statemachine.ErrNoTransition)

		var te *statemachine.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "draft", te.From)
		assert.Equal(t, "publish", te.Event)
	})

	t.Run("events are listed in registration order", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []docEvent{approve, reject}, table.Events(inReview))
		assert.Empty(t, table.Events(published))
	})
}

func TestTable_Guards(t *testing.T) {
	t.Parallel()

	isEditor := func(_ context.Context, _ docState, _ docEvent, data any) bool {
		role, _ := data.(string)
		return role == "editor"
	}

	table := statemachine.NewTable[docState, docEvent]().
		Permit(approved, publish, published, statemachine.WithGuard(isEditor))

	ctx := context.Background()

	t.Run("guard allows", func(t *testing.T) {
		t.Parallel()
		assert.True(t, table.CanFire(ctx, approved, publish, "editor"))
		next, err := table.Fire(ctx, approved, publish, "editor")
		require.NoError(t, err)
		assert.Equal(t, published, next)
	})

	t.Run("guard rejects", func(t *testing.T) {
		t.Parallel()
		assert.False(t, table.CanFire(ctx, approved, publish, "viewer"))
		next, err := table.Fire(ctx, approved, publish, "viewer")
		require.Error(t, err)
		assert.True(t, statemachine.IsTransitionRejectedError(err))
		assert.Equal(t, approved, next)
	})
}

func TestTable_GuardPriority(t *testing.T) {
	t.Parallel()

	urgent := func(_ context.Context, _ docState, _ docEvent, data any) bool {
		v, _ := data.(bool)
		return v
	}

	table := statemachine.NewTable[docState, docEvent]().
		Permit(inReview, approve, published, statemachine.WithGuard(urgent)).
		Permit(inReview, approve, approved)

	ctx := context.Background()

	next, err := table.Fire(ctx, inReview, approve, true)
	require.NoError(t, err)
	assert.Equal(t, published, next)

	next, err = table.Fire(ctx, inReview, approve, false)
	require.NoError(t, err)
	assert.Equal(t, approved, next)
}

func TestTable_Actions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("actions run in order with transition details", func(t *testing.T) {
		t.Parallel()
		var calls []string
		record := func(name string) statemachine.Action[docState, docEvent] {
			return func(_ context.Context, from, to docState, event docEvent, _ any) error {
				calls = append(calls, name+":"+string(from)+"->"+string(to)+"@"+string(event))
				return nil
			}
		}

		table := statemachine.NewTable[docState, docEvent]().
			Permit(draft, submit, inReview,
				statemachine.WithAction(record("first")),
				statemachine.WithAction(record("second")),
			)

		_, err := table.Fire(ctx, draft, submit, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"first:draft->in_review@submit",
			"second:draft->in_review@submit",
		}, calls)
	})

	t.Run("failing action aborts transition", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		table := statemachine.NewTable[docState, docEvent]().
			Permit(draft, submit, inReview, statemachine.WithAction(
				func(context.Context, docState, docState, docEvent, any) error { return boom },
			))

		next, err := table.Fire(ctx, draft, submit, nil)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, draft, next)
	})

	t.Run("CanFire does not run actions", func(t *testing.T) {
		t.Parallel()
		ran := false
		table := statemachine.NewTable[docState, docEvent]().
			Permit(draft, submit, inReview, statemachine.WithAction(
				func(context.Context, docState, docState, docEvent, any) error {
					ran = true
					return nil
				},
			))

		assert.True(t, table.CanFire(ctx, draft, submit, nil))
		assert.False(t, ran)
	})
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	guardCalled := false
	table := statemachine.NewBuilder[docState, docEvent]().
		From(draft).When(submit).To(inReview).Add().
		From(inReview).When(approve).To(approved).
		Guard(func(context.Context, docState, docEvent, any) bool {
			guardCalled = true
			return true
		}).
		Add().
		From(approved).When(publish).To(published).
		Build()

	ctx := context.Background()

	next, err := table.Fire(ctx, draft, submit, nil)
	require.NoError(t, err)
	assert.Equal(t, inReview, next)

	next, err = table.Fire(ctx, inReview, approve, nil)
	require.NoError(t, err)
	assert.Equal(t, approved, next)
	assert.True(t, guardCalled)

	// Build adds the trailing unfinished transition.
	next, err = table.Fire(ctx, approved, publish, nil)
	require.NoError(t, err)
	assert.Equal(t, published, next)
}
