package pubsub

import (
	"sync"

	"github.com/rs/zerolog/log"
)

type SubscriptionID int64

// Pubsub fans messages out to every subscriber. Slow subscribers lose
// messages instead of blocking the publisher.
type Pubsub[T any] struct {
	nextID      SubscriptionID
	buffer      int
	closed      bool
	subscribers map[SubscriptionID]chan T
	mu          sync.RWMutex
}

// New returns a Pubsub whose subscriber channels hold up to buffer
// undelivered messages.
func New[T any](buffer int) *Pubsub[T] {
	return &Pubsub[T]{
		buffer:      buffer,
		subscribers: make(map[SubscriptionID]chan T),
	}
}

func (ps *Pubsub[T]) Subscribe() (SubscriptionID, <-chan T) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan T, ps.buffer)
	id := ps.nextID
	ps.nextID += 1

	if ps.closed {
		close(ch)
		return id, ch
	}

	ps.subscribers[id] = ch
	return id, ch
}

func (ps *Pubsub[T]) Unsubscribe(id SubscriptionID) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch, ok := ps.subscribers[id]
	if !ok {
		return
	}

	delete(ps.subscribers, id)
	close(ch)
}

func (ps *Pubsub[T]) Publish(msg T) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for id, ch := range ps.subscribers {
		select {
		case ch <- msg:
		default:
			log.Warn().
				Str("component", "pubsub").
				Int64("subscription_id", int64(id)).
				Interface("message", msg).
				Msg("Message dropped, channel full")
		}
	}
}

// Len returns the number of active subscriptions.
func (ps *Pubsub[T]) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.subscribers)
}

// Close closes every subscriber channel. Later subscriptions receive an
// already closed channel.
func (ps *Pubsub[T]) Close() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for id, ch := range ps.subscribers {
		delete(ps.subscribers, id)
		close(ch)
	}
	ps.closed = true
}
