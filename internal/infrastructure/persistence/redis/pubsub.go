package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/geopresensi/attendance-hub/internal/infrastructure/messaging"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUB/SUB ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// PubSubAdapter exposes the shared Redis client as the pub/sub transport the
// event bus expects. One adapter per process; the event bus owns the
// subscription lifecycle.
type PubSubAdapter struct {
	cache *Cache
}

// NewPubSubAdapter creates a pub/sub adapter on top of the shared client.
func NewPubSubAdapter(cache *Cache) *PubSubAdapter {
	return &PubSubAdapter{cache: cache}
}

// Publish serializes the message to JSON and publishes it to the channel.
func (a *PubSubAdapter) Publish(ctx context.Context, channel string, message interface{}) error {
	// Strings pass through untouched so the bus controls its own envelope.
	if s, ok := message.(string); ok {
		return a.cache.Client().Publish(ctx, channel, s).Err()
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return a.cache.Client().Publish(ctx, channel, data).Err()
}

// Subscribe subscribes to the given channels and streams messages until the
// context is cancelled. The returned channel is closed on cancellation.
func (a *PubSubAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	sub := a.cache.Subscribe(ctx, channels...)

	// Wait for the subscription to be confirmed before streaming.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("pubsub subscribe: %w", err)
	}

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		defer sub.Close()

		src := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close is a no-op; the underlying client is shared and closed by its owner.
func (a *PubSubAdapter) Close() error {
	return nil
}

var _ messaging.RedisClient = (*PubSubAdapter)(nil)
