package shared

import "context"

// EventPublisher publishes domain events raised by aggregates.
// Publishing happens after the owning transaction commits and never
// participates in it; delivery is best-effort.
type EventPublisher interface {
	// Publish publishes one or more domain events
	Publish(ctx context.Context, events ...DomainEvent) error
}
