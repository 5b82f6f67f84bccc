package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/innerbloom/billing/pkg/billing"
)

func TestLifecycle_Events(t *testing.T) {
	t.Parallel()

	table := billing.Lifecycle()

	assert.Equal(t, []billing.Event{
		billing.EventSubscribe,
		billing.EventActivate,
		billing.EventMarkPastDue,
		billing.EventCancel,
	}, table.Events(billing.StatusActive))

	assert.Contains(t, table.Events(billing.StatusCanceled), billing.EventReactivate)
	assert.NotContains(t, table.Events(billing.StatusActive), billing.EventReactivate)
	assert.NotContains(t, table.Events(billing.StatusPastDue), billing.EventReactivate)

	assert.Contains(t, table.Events(billing.StatusPastDue), billing.EventExpireGrace)
	assert.NotContains(t, table.Events(billing.StatusActive), billing.EventExpireGrace)
}

func TestLifecycle_ExpireGraceRequiresElapsedDeadline(t *testing.T) {
	t.Parallel()

	// Without transition data the guard cannot confirm the deadline.
	assert.False(t, billing.Lifecycle().CanFire(context.Background(), billing.StatusPastDue, billing.EventExpireGrace, nil))
}
