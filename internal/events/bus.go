// Package events carries "inventory changed" signals from whoever mutates a
// group's fridge to whoever displays its notifications.
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned by Publish after the bus has been closed.
var ErrClosed = errors.New("events: bus closed")

// Bus publishes invalidation signals keyed by group ID.
type Bus interface {
	Publish(ctx context.Context, key string) error
	Subscribe(key string) *Subscription
	Close() error
}

// Subscription receives a signal each time its key is published. Signals that
// arrive while one is already pending are merged into it.
type Subscription struct {
	key  string
	ch   chan struct{}
	bus  *LocalBus
	once sync.Once
}

// C returns the signal channel. It is never closed.
func (s *Subscription) C() <-chan struct{} {
	return s.ch
}

// Key returns the subscribed key.
func (s *Subscription) Key() string {
	return s.key
}

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.bus.remove(s) })
}

func (s *Subscription) notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// LocalBus is an in-process Bus.
type LocalBus struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

var _ Bus = (*LocalBus)(nil)

// NewLocalBus creates an empty in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]map[*Subscription]struct{})}
}

// Publish delivers the signal to every current subscriber of key.
func (b *LocalBus) Publish(_ context.Context, key string) error {
	if b.Deliver(key) < 0 {
		return ErrClosed
	}
	return nil
}

// Deliver notifies subscribers of key and reports how many there were, or -1
// if the bus is closed.
func (b *LocalBus) Deliver(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return -1
	}
	for s := range b.subs[key] {
		s.notify()
	}
	return len(b.subs[key])
}

// Subscribe registers interest in key. Subscribing to a closed bus returns a
// subscription that never fires.
func (b *LocalBus) Subscribe(key string) *Subscription {
	s := &Subscription{key: key, ch: make(chan struct{}, 1), bus: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return s
	}
	set, ok := b.subs[key]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[key] = set
	}
	set[s] = struct{}{}
	return s
}

// Subscribers reports how many subscriptions key currently has.
func (b *LocalBus) Subscribers(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[key])
}

// Close drops every subscription.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string]map[*Subscription]struct{})
	return nil
}

func (b *LocalBus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[s.key]
	delete(set, s)
	if len(set) == 0 {
		delete(b.subs, s.key)
	}
}

// PublishAfter publishes key once d has elapsed. Mutating clients use it to
// let the store backend settle before watchers refetch. The returned timer
// can be stopped to cancel the publish.
func PublishAfter(bus Bus, key string, d time.Duration, logger *slog.Logger) *time.Timer {
	return time.AfterFunc(d, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := bus.Publish(ctx, key); err != nil {
			logger.Error("failed to publish invalidation",
				slog.String("group_id", key),
				slog.String("error", err.Error()),
			)
		}
	})
}
