package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventGuard deduplicates event deliveries in Redis. The outbox delivers
// at least once; consumers claim each (event, order number) pair with
// SETNX so replays become no-ops.
type EventGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEventGuard creates a new EventGuard.
func NewEventGuard(client *redis.Client, ttl time.Duration) *EventGuard {
	return &EventGuard{client: client, ttl: ttl}
}

// FirstDelivery claims the delivery for the given event and order number.
// Returns true for the first delivery, false for a replay.
func (g *EventGuard) FirstDelivery(ctx context.Context, eventName, orderNumber string) (bool, error) {
	key := fmt.Sprintf("event:%s:%s", eventName, orderNumber)

	ok, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}
