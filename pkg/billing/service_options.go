package billing

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithClock sets the time source. Times are normalized to UTC.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPublisher sets where change events are sent after each save.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) ServiceOption {
	return func(s *service) {
		if m != nil {
			s.metrics = m
		}
	}
}
