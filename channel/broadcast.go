package channel

import (
	"context"
	"sync"

	"github.com/kbukum/flowkit/errors"
)

// Broadcast fans one produced sequence out to any number of subscribers.
// Each subscriber owns an independent Stream cursor and sees every item
// published after it subscribed, in publish order.
type Broadcast[T any] struct {
	buffer int

	mu     sync.Mutex
	subs   []*Stream[T]
	closed bool
}

// NewBroadcast creates a Broadcast whose subscriber streams use the given
// buffer capacity.
func NewBroadcast[T any](buffer int) *Broadcast[T] {
	return &Broadcast[T]{buffer: buffer}
}

// Subscribe registers a new consumer and returns its private cursor.
// Subscribing to a closed Broadcast yields an already-exhausted stream.
func (b *Broadcast[T]) Subscribe() *Stream[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := NewStream[T](b.buffer)
	if b.closed {
		s.Close()
		return s
	}
	b.subs = append(b.subs, s)
	return s
}

// Publish delivers item to every current subscriber. It blocks while any
// subscriber's buffer is full.
func (b *Broadcast[T]) Publish(ctx context.Context, item T) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.StreamClosed()
	}
	subs := make([]*Stream[T], len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		if err := s.Send(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every subscriber stream. Idempotent.
func (b *Broadcast[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		s.Close()
	}
	return nil
}
