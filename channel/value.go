package channel

import "context"

// Value is a channel holding a single item. Every Read by every consumer
// returns the same item; the item is never consumed.
type Value[T any] struct {
	item T
}

// NewValue creates a Value channel wrapping item.
func NewValue[T any](item T) *Value[T] {
	return &Value[T]{item: item}
}

// Kind returns KindValue.
func (v *Value[T]) Kind() Kind { return KindValue }

// Read returns the wrapped item. It never blocks and never exhausts, but it
// still honors an already-canceled context so callers get uniform semantics.
func (v *Value[T]) Read(ctx context.Context) (T, bool, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, false, err
	}
	return v.item, true, nil
}

// Close is a no-op; a Value channel holds no resources.
func (v *Value[T]) Close() error { return nil }
