package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis Pub/Sub channel shared by every instance.
const Channel = "fridgewatch:inventory-changed"

// RedisBus fans invalidations out across instances through Redis Pub/Sub.
// Publishing goes through Redis, so local subscribers are notified when the
// message comes back.
type RedisBus struct {
	client *redis.Client
	pubsub *redis.PubSub
	local  *LocalBus
	logger *slog.Logger
	done   chan struct{}
}

var _ Bus = (*RedisBus)(nil)

// NewRedisBus subscribes to Channel and starts relaying messages.
func NewRedisBus(ctx context.Context, client *redis.Client, logger *slog.Logger) (*RedisBus, error) {
	pubsub := client.Subscribe(ctx, Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", Channel, err)
	}

	b := &RedisBus{
		client: client,
		pubsub: pubsub,
		local:  NewLocalBus(),
		logger: logger,
		done:   make(chan struct{}),
	}
	go b.run()
	return b, nil
}

func (b *RedisBus) run() {
	defer close(b.done)
	for msg := range b.pubsub.Channel() {
		n := b.local.Deliver(msg.Payload)
		b.logger.Debug("invalidation received",
			slog.String("group_id", msg.Payload),
			slog.Int("subscribers", n),
		)
	}
}

// Publish sends key to every instance, including this one.
func (b *RedisBus) Publish(ctx context.Context, key string) error {
	if err := b.client.Publish(ctx, Channel, key).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(key string) *Subscription {
	return b.local.Subscribe(key)
}

// Close unsubscribes from Redis and waits for the relay goroutine to exit.
// The Redis client itself is left open.
func (b *RedisBus) Close() error {
	err := b.pubsub.Close()
	<-b.done
	b.local.Close()
	return err
}
