package channel

import "context"

// Kind distinguishes the two channel flavors.
type Kind int

const (
	// KindValue marks a channel holding one re-readable item.
	KindValue Kind = iota
	// KindStream marks an ordered sequence consumed item by item.
	KindStream
)

// String returns the kind name for logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Channel is a readable dataflow source.
//
// Read returns the next item. The second return is false once the channel is
// exhausted: a closed, drained Stream. A Value channel is never exhausted.
// Read blocks until an item is available, the channel closes, or ctx is done.
type Channel[T any] interface {
	// Kind reports whether this channel behaves as a value or a stream.
	Kind() Kind
	// Read returns the next item. Returns (zero, false, nil) when exhausted.
	Read(ctx context.Context) (T, bool, error)
	// Close releases the consumer side. Safe to call more than once.
	Close() error
}
