package flow

import (
	"context"
	"testing"

	"github.com/kbukum/flowkit/errors"
)

func pullAll(t *testing.T, ts *TupleSource) []map[string]any {
	t.Helper()
	ctx := context.Background()
	var tuples []map[string]any
	for {
		tuple, ok, err := ts.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			return tuples
		}
		tuples = append(tuples, tuple)
	}
}

func TestTupleSourceAllValuesOneTuple(t *testing.T) {
	ts, err := NewTupleSource([]Input{
		{Name: "x", Source: "a"},
		{Name: "y", Source: 1},
	})
	if err != nil {
		t.Fatalf("new tuple source: %v", err)
	}

	tuples := pullAll(t, ts)
	if len(tuples) != 1 {
		t.Fatalf("all-value inputs must yield exactly one tuple, got %d", len(tuples))
	}
	if tuples[0]["x"] != "a" || tuples[0]["y"] != 1 {
		t.Fatalf("unexpected tuple %v", tuples[0])
	}

	// Exhaustion is terminal.
	if _, ok, _ := ts.Next(context.Background()); ok {
		t.Fatal("expected exhaustion after the single tuple")
	}
}

func TestTupleSourceStreamZipsToShortest(t *testing.T) {
	ts, err := NewTupleSource([]Input{
		{Name: "long", Source: []int{1, 2, 3}, Iterator: true},
		{Name: "short", Source: []string{"a", "b"}, Iterator: true},
	})
	if err != nil {
		t.Fatalf("new tuple source: %v", err)
	}

	tuples := pullAll(t, ts)
	if len(tuples) != 2 {
		t.Fatalf("expected 2 tuples (shortest stream), got %d", len(tuples))
	}
	if tuples[0]["long"] != 1 || tuples[0]["short"] != "a" {
		t.Fatalf("tuple 0 misaligned: %v", tuples[0])
	}
	if tuples[1]["long"] != 2 || tuples[1]["short"] != "b" {
		t.Fatalf("tuple 1 misaligned: %v", tuples[1])
	}
}

func TestTupleSourceValueRereadPerTuple(t *testing.T) {
	ts, err := NewTupleSource([]Input{
		{Name: "sample", Source: []string{"s1", "s2", "s3"}, Iterator: true},
		{Name: "ref", Source: "genome.fa"},
	})
	if err != nil {
		t.Fatalf("new tuple source: %v", err)
	}

	tuples := pullAll(t, ts)
	if len(tuples) != 3 {
		t.Fatalf("expected one tuple per stream item, got %d", len(tuples))
	}
	for i, tuple := range tuples {
		if tuple["ref"] != "genome.fa" {
			t.Fatalf("tuple %d: value input must repeat, got %v", i, tuple["ref"])
		}
	}
}

func TestTupleSourceBindFailurePropagates(t *testing.T) {
	_, err := NewTupleSource([]Input{
		{Name: "ok", Source: "fine"},
		{Name: "broken", Source: nil},
	})
	if !errors.IsCode(err, errors.ErrCodeChannelResolution) {
		t.Fatalf("expected CHANNEL_RESOLUTION, got %v", err)
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Details["input"] != "broken" {
		t.Fatalf("expected failing input name in details, got %v", appErr.Details)
	}
}
