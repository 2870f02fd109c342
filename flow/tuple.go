package flow

import (
	"context"

	"github.com/kbukum/flowkit/channel"
)

// TupleSource pulls index-aligned input tuples from a set of bound input
// channels. Cardinality follows the channel kinds: with only value channels
// it yields exactly one tuple; with any stream it yields one tuple per
// aligned set of stream items, re-reading values each time, and stops as
// soon as any stream exhausts.
type TupleSource struct {
	names     []string
	channels  []channel.Channel[any]
	hasStream bool
	done      bool
}

// NewTupleSource binds the declared inputs in order and builds their tuple
// source. Any resolution failure aborts the construction.
func NewTupleSource(inputs []Input) (*TupleSource, error) {
	ts := &TupleSource{
		names:    make([]string, len(inputs)),
		channels: make([]channel.Channel[any], len(inputs)),
	}
	for i, in := range inputs {
		ch, err := bindInput(in)
		if err != nil {
			return nil, err
		}
		ts.names[i] = in.Name
		ts.channels[i] = ch
		if ch.Kind() == channel.KindStream {
			ts.hasStream = true
		}
	}
	return ts, nil
}

// Next pulls the next tuple. It returns false once the source is exhausted:
// after the single tuple for all-value inputs, or when any stream input
// runs out.
func (ts *TupleSource) Next(ctx context.Context) (map[string]any, bool, error) {
	if ts.done {
		return nil, false, nil
	}

	tuple := make(map[string]any, len(ts.channels))
	for i, ch := range ts.channels {
		v, ok, err := ch.Read(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			ts.done = true
			return nil, false, nil
		}
		tuple[ts.names[i]] = v
	}

	// All-value inputs produce exactly one tuple.
	if !ts.hasStream {
		ts.done = true
	}
	return tuple, true, nil
}

// Close closes every bound channel.
func (ts *TupleSource) Close() error {
	var first error
	for _, ch := range ts.channels {
		if err := ch.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
