package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innerbloom/billing/pkg/logger"
)

func TestError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestIdentifiers(t *testing.T) {
	t.Parallel()

	attr := logger.UserID("u1")
	assert.Equal(t, "user_id", attr.Key)
	assert.Equal(t, "u1", attr.Value.String())
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))

	attr = logger.RequestID("r1")
	assert.Equal(t, "request_id", attr.Key)
	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
}

func TestBillingAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attr slog.Attr
		key  string
		val  string
	}{
		{logger.Plan("MONTH"), "plan", "MONTH"},
		{logger.Status("PAST_DUE"), "status", "PAST_DUE"},
		{logger.Provider("mock"), "provider", "mock"},
		{logger.EventType("invoice.paid"), "event_type", "invoice.paid"},
		{logger.Event("subscription.canceled"), "event", "subscription.canceled"},
		{logger.Component("billing.sweeper"), "component", "billing.sweeper"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.key, tt.attr.Key)
		assert.Equal(t, tt.val, tt.attr.Value.String())
	}
}
