package flow

import (
	"reflect"

	"github.com/kbukum/flowkit/channel"
	"github.com/kbukum/flowkit/errors"
)

// Bind resolves a source expression into a channel:
//   - a nil source, a Deferred that fails, or a Deferred that yields nil
//     cannot be resolved;
//   - with iterator set, the value is expanded element-wise into a finite
//     stream (a non-slice value becomes a single-element stream); a channel
//     source cannot be expanded and fails resolution;
//   - a value that already is a channel is adopted unchanged, so its
//     sharing semantics carry over;
//   - anything else becomes a value channel.
//
// A Deferred is evaluated exactly once, here.
func Bind(src SourceExpr, iterator bool) (channel.Channel[any], error) {
	if src == nil {
		return nil, errors.ChannelResolution("", "source is nil")
	}

	if deferred, ok := src.(Deferred); ok {
		resolved, err := deferred()
		if err != nil {
			return nil, errors.ChannelResolution("", "deferred evaluation failed").WithCause(err)
		}
		if resolved == nil {
			return nil, errors.ChannelResolution("", "deferred evaluation yielded nil")
		}
		src = resolved
	}

	if iterator {
		if _, ok := src.(channel.Channel[any]); ok {
			return nil, errors.ChannelResolution("", "a channel source cannot be expanded element-wise")
		}
		return channel.FromSlice(expand(src)), nil
	}

	if ch, ok := src.(channel.Channel[any]); ok {
		return ch, nil
	}

	return channel.NewValue(src), nil
}

// expand turns a slice or array into its elements; any other value is a
// single-element sequence.
func expand(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

// bindInput resolves one declared input, tagging resolution failures with
// the input name.
func bindInput(in Input) (channel.Channel[any], error) {
	ch, err := Bind(in.Source, in.Iterator)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			appErr.WithDetail("input", in.Name)
		}
		return nil, err
	}
	return ch, nil
}
