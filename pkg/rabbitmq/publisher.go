package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/innerbloom/billing/pkg/logger"
)

// DefaultExchange is the topic exchange billing events are sent to.
const DefaultExchange = "billing.events"

var (
	ErrEmptyURL        = errors.New("rabbitmq: empty connection url, set AMQP_URL")
	ErrConnect         = errors.New("rabbitmq: failed to connect")
	ErrDeclare         = errors.New("rabbitmq: failed to declare exchange")
	ErrPublisherClosed = errors.New("rabbitmq: publisher is closed")
)

// Config describes the broker connection.
type Config struct {
	URL            string        `env:"AMQP_URL"`
	Exchange       string        `env:"AMQP_EXCHANGE" envDefault:"billing.events"`
	PublishTimeout time.Duration `env:"AMQP_PUBLISH_TIMEOUT" envDefault:"5s"`
}

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends messages to a topic exchange. It is safe for concurrent
// use; publishes are serialized because amqp channels are not.
type Publisher struct {
	mu       sync.Mutex
	conn     io.Closer
	channel  Channel
	exchange string
	timeout  time.Duration
	logger   *slog.Logger
	closed   bool
	now      func() time.Time
}

// Dial connects to the broker described by cfg and declares the exchange.
func Dial(cfg Config, log *slog.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyURL
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrConnect, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Join(ErrConnect, err)
	}

	p, err := NewPublisher(ch, cfg, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher wraps an open channel and declares the durable topic exchange.
func NewPublisher(ch Channel, cfg Config, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, errors.Join(ErrDeclare, err)
	}

	log.Info("rabbitmq publisher ready", slog.String("exchange", exchange))

	return &Publisher{
		channel:  ch,
		exchange: exchange,
		timeout:  cfg.PublishTimeout,
		logger:   log,
		now:      time.Now,
	}, nil
}

// Publish sends body under routingKey.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish message",
			slog.String("routing_key", routingKey),
			logger.Error(err),
		)
		return fmt.Errorf("rabbitmq: publish %s: %w", routingKey, err)
	}

	p.logger.DebugContext(ctx, "message published",
		slog.String("routing_key", routingKey),
		slog.Int("size", len(body)),
	)
	return nil
}

// Close closes the channel and, when owned, the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if err := p.channel.Close(); err != nil {
		errs = append(errs, err)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
