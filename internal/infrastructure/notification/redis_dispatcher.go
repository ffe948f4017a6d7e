package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	appquotation "github.com/lab404/backend/internal/application/quotation"
	"github.com/lab404/backend/internal/domain/shared"
)

// RedisDispatcher publishes lifecycle events to a Redis pub/sub channel.
// Downstream consumers (mailers, websocket gateways) subscribe to the
// channel; this process never waits for them.
type RedisDispatcher struct {
	client  *redis.Client
	channel string
}

// NewRedisDispatcher creates a new RedisDispatcher
func NewRedisDispatcher(client *redis.Client, channel string) *RedisDispatcher {
	return &RedisDispatcher{client: client, channel: channel}
}

// Notify publishes the event as JSON to the configured channel
func (d *RedisDispatcher) Notify(ctx context.Context, event appquotation.LifecycleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}
	if err := d.client.Publish(ctx, d.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish lifecycle event: %w", err)
	}
	return nil
}

// Publish publishes domain events to the same channel, one message per
// event. Subscribers distinguish them from lifecycle notifications by the
// event type field in the payload.
func (d *RedisDispatcher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal domain event %s: %w", event.EventType(), err)
		}
		if err := d.client.Publish(ctx, d.channel, payload).Err(); err != nil {
			return fmt.Errorf("failed to publish domain event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// NopDispatcher discards all events. Used when notifications are disabled.
type NopDispatcher struct{}

// NewNopDispatcher creates a new NopDispatcher
func NewNopDispatcher() *NopDispatcher {
	return &NopDispatcher{}
}

// Notify discards the event
func (d *NopDispatcher) Notify(ctx context.Context, event appquotation.LifecycleEvent) error {
	return nil
}

// Publish discards the events
func (d *NopDispatcher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return nil
}

// Ensure implementations satisfy the collaborator ports
var (
	_ appquotation.NotificationDispatcher = (*RedisDispatcher)(nil)
	_ appquotation.NotificationDispatcher = (*NopDispatcher)(nil)
	_ shared.EventPublisher               = (*RedisDispatcher)(nil)
	_ shared.EventPublisher               = (*NopDispatcher)(nil)
)
