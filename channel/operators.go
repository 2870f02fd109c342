package channel

import "context"

// Map derives a channel that transforms each item with fn. The derived
// channel keeps the source's kind, so mapping a value channel stays
// broadcast-safe and mapping a stream stays consume-once.
func Map[I, O any](src Channel[I], fn func(context.Context, I) (O, error)) Channel[O] {
	return &mapChannel[I, O]{src: src, fn: fn}
}

type mapChannel[I, O any] struct {
	src Channel[I]
	fn  func(context.Context, I) (O, error)
}

func (c *mapChannel[I, O]) Kind() Kind { return c.src.Kind() }

func (c *mapChannel[I, O]) Read(ctx context.Context) (O, bool, error) {
	var zero O
	v, ok, err := c.src.Read(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := c.fn(ctx, v)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (c *mapChannel[I, O]) Close() error { return c.src.Close() }

// Filter derives a channel that keeps only items satisfying the predicate.
func Filter[T any](src Channel[T], fn func(T) bool) Channel[T] {
	return &filterChannel[T]{src: src, fn: fn}
}

type filterChannel[T any] struct {
	src Channel[T]
	fn  func(T) bool
}

func (c *filterChannel[T]) Kind() Kind { return c.src.Kind() }

func (c *filterChannel[T]) Read(ctx context.Context) (T, bool, error) {
	for {
		v, ok, err := c.src.Read(ctx)
		if err != nil || !ok {
			var zero T
			return zero, false, err
		}
		if c.fn(v) {
			return v, true, nil
		}
	}
}

func (c *filterChannel[T]) Close() error { return c.src.Close() }

// Take derives a channel that yields at most n items, then reports
// exhaustion.
func Take[T any](src Channel[T], n int) Channel[T] {
	return &takeChannel[T]{src: src, remaining: n}
}

type takeChannel[T any] struct {
	src       Channel[T]
	remaining int
}

// Take caps a source of any kind, so the result behaves like a stream.
func (c *takeChannel[T]) Kind() Kind { return KindStream }

func (c *takeChannel[T]) Read(ctx context.Context) (T, bool, error) {
	if c.remaining <= 0 {
		var zero T
		return zero, false, nil
	}
	v, ok, err := c.src.Read(ctx)
	if err != nil || !ok {
		var zero T
		return zero, false, err
	}
	c.remaining--
	return v, true, nil
}

func (c *takeChannel[T]) Close() error { return c.src.Close() }

// Buffer derives a channel that groups items into slices of up to size.
// The final slice may be shorter.
func Buffer[T any](src Channel[T], size int) Channel[[]T] {
	if size <= 0 {
		size = 1
	}
	return &bufferChannel[T]{src: src, size: size}
}

type bufferChannel[T any] struct {
	src  Channel[T]
	size int
	done bool
}

func (c *bufferChannel[T]) Kind() Kind { return KindStream }

func (c *bufferChannel[T]) Read(ctx context.Context) ([]T, bool, error) {
	if c.done {
		return nil, false, nil
	}
	var batch []T
	for len(batch) < c.size {
		v, ok, err := c.src.Read(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			c.done = true
			break
		}
		batch = append(batch, v)
	}
	if len(batch) == 0 {
		return nil, false, nil
	}
	return batch, true, nil
}

func (c *bufferChannel[T]) Close() error { return c.src.Close() }

// Concat joins channels sequentially: all items of the first, then the
// second, and so on.
func Concat[T any](sources ...Channel[T]) Channel[T] {
	return &concatChannel[T]{sources: sources}
}

type concatChannel[T any] struct {
	sources []Channel[T]
	current int
}

func (c *concatChannel[T]) Kind() Kind { return KindStream }

func (c *concatChannel[T]) Read(ctx context.Context) (T, bool, error) {
	for c.current < len(c.sources) {
		src := c.sources[c.current]
		v, ok, err := src.Read(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		if ok {
			// A value source contributes a single item, otherwise Concat
			// would repeat it forever.
			if src.Kind() == KindValue {
				c.current++
			}
			return v, true, nil
		}
		c.current++
	}
	var zero T
	return zero, false, nil
}

func (c *concatChannel[T]) Close() error {
	var first error
	for _, src := range c.sources {
		if err := src.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Collect drains a channel into a slice. Draining a value channel would
// never terminate, so Collect returns its single item.
func Collect[T any](ctx context.Context, src Channel[T]) ([]T, error) {
	if src.Kind() == KindValue {
		v, ok, err := src.Read(ctx)
		if err != nil || !ok {
			return nil, err
		}
		return []T{v}, nil
	}

	var items []T
	for {
		v, ok, err := src.Read(ctx)
		if err != nil {
			return items, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, v)
	}
}
