package channel

import (
	"context"
	"sync"

	"github.com/kbukum/flowkit/errors"
)

// Stream is an ordered sequence of items, each delivered to exactly one
// consumer. After Close, reads drain the remaining buffered items and then
// report exhaustion forever.
//
// A Stream is single-producer: Send and Close must not be called
// concurrently with each other. Reads may run concurrently with both.
type Stream[T any] struct {
	ch chan T

	mu     sync.Mutex
	closed bool
}

// NewStream creates a Stream with the given buffer capacity.
func NewStream[T any](buffer int) *Stream[T] {
	if buffer < 0 {
		buffer = 0
	}
	return &Stream[T]{ch: make(chan T, buffer)}
}

// FromSlice creates a finite, already-closed Stream that yields the items in
// order and then reports exhaustion. Used for iterator input expansion.
func FromSlice[T any](items []T) *Stream[T] {
	s := NewStream[T](len(items))
	for _, item := range items {
		s.ch <- item
	}
	s.Close()
	return s
}

// Kind returns KindStream.
func (s *Stream[T]) Kind() Kind { return KindStream }

// Send appends one item to the stream. It blocks while the buffer is full
// and fails if the stream is already closed.
func (s *Stream[T]) Send(ctx context.Context, item T) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.StreamClosed()
	}
	s.mu.Unlock()

	select {
	case s.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Read returns the next item in order. Each item is observed by exactly one
// reader. Returns (zero, false, nil) once the stream is closed and drained.
func (s *Stream[T]) Read(ctx context.Context) (T, bool, error) {
	select {
	case item, open := <-s.ch:
		if !open {
			var zero T
			return zero, false, nil
		}
		return item, true, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

// Close marks the producer side finished. Buffered items remain readable;
// subsequent Close calls are no-ops.
func (s *Stream[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}
