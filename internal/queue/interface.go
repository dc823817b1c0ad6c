package queue

import (
	"context"
)

// Publisher delivers domain events. Delivery is best effort: callers log
// failures and carry on.
type Publisher interface {
	// Publish sends one event
	Publish(ctx context.Context, event *Event) error

	// Close closes the underlying connection
	Close() error

	// HealthCheck verifies the connection is usable
	HealthCheck(ctx context.Context) error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

var _ Publisher = NoopPublisher{}

func (NoopPublisher) Publish(context.Context, *Event) error { return nil }
func (NoopPublisher) Close() error                          { return nil }
func (NoopPublisher) HealthCheck(context.Context) error     { return nil }
