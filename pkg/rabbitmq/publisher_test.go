package rabbitmq_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innerbloom/billing/pkg/billing"
	"github.com/innerbloom/billing/pkg/rabbitmq"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	messages   []published
	declareErr error
	publishErr error
	closed     int
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.declareErr != nil {
		return c.declareErr
	}
	if kind == amqp.ExchangeTopic && durable {
		c.declared = append(c.declared, name)
	}
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.messages = append(c.messages, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func TestNewPublisher(t *testing.T) {
	t.Parallel()

	t.Run("declares default exchange", func(t *testing.T) {
		t.Parallel()
		ch := &fakeChannel{}
		_, err := rabbitmq.NewPublisher(ch, rabbitmq.Config{}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{rabbitmq.DefaultExchange}, ch.declared)
	})

	t.Run("declare failure closes channel", func(t *testing.T) {
		t.Parallel()
		ch := &fakeChannel{declareErr: errors.New("access refused")}
		_, err := rabbitmq.NewPublisher(ch, rabbitmq.Config{Exchange: "x"}, nil)
		assert.ErrorIs(t, err, rabbitmq.ErrDeclare)
		assert.Equal(t, 1, ch.closed)
	})
}

func TestDial_EmptyURL(t *testing.T) {
	t.Parallel()
	_, err := rabbitmq.Dial(rabbitmq.Config{}, nil)
	assert.ErrorIs(t, err, rabbitmq.ErrEmptyURL)
}

func TestPublisher_PublishChangeEvents(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	p, err := rabbitmq.NewPublisher(ch, rabbitmq.Config{PublishTimeout: time.Second}, nil)
	require.NoError(t, err)

	events := billing.NewBrokerPublisher(p)
	err = events.Publish(context.Background(), billing.ChangeEvent{
		Kind:   billing.ChangePastDue,
		UserID: "user-1",
		Plan:   billing.PlanMonth,
		Status: billing.StatusPastDue,
		Source: billing.SourceWebhook,
	})
	require.NoError(t, err)

	require.Len(t, ch.messages, 1)
	msg := ch.messages[0]
	assert.Equal(t, rabbitmq.DefaultExchange, msg.exchange)
	assert.Equal(t, "subscription.past_due", msg.key)
	assert.Equal(t, "application/json", msg.msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.msg.DeliveryMode)
	assert.JSONEq(t, `{
		"kind": "past_due",
		"user_id": "user-1",
		"plan": "MONTH",
		"status": "PAST_DUE",
		"source": "webhook",
		"occurred_at": "0001-01-01T00:00:00Z"
	}`, string(msg.msg.Body))
}

func TestPublisher_Errors(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, err := rabbitmq.NewPublisher(ch, rabbitmq.Config{}, nil)
	require.NoError(t, err)

	assert.Error(t, p.Publish(context.Background(), "subscription.created", []byte(`{}`)))

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, ch.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), "subscription.created", nil), rabbitmq.ErrPublisherClosed)
}
