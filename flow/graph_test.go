package flow

import (
	"testing"

	"github.com/kbukum/flowkit/errors"
)

func mustAdd(t *testing.T, g *Graph, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := g.AddProcess(&ProcessDef{Name: name, Script: "true"}); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
}

func TestGraphLevels(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, "fetch", "align", "sort", "report")
	g.Connect("fetch", "align")
	g.Connect("align", "sort")
	g.Connect("align", "report")

	levels, err := g.BuildLevels()
	if err != nil {
		t.Fatalf("build levels: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d: %v", len(levels), levels)
	}
	if levels[0][0] != "fetch" {
		t.Fatalf("expected fetch at level 0, got %v", levels[0])
	}
	if len(levels[2]) != 2 {
		t.Fatalf("expected sort and report at level 2, got %v", levels[2])
	}
}

func TestGraphCycleDetected(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, "a", "b")
	g.Connect("a", "b")
	g.Connect("b", "a")

	if _, err := g.BuildLevels(); !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestGraphUnknownEdge(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, "a")
	g.Connect("a", "ghost")

	if _, err := g.BuildLevels(); err == nil {
		t.Fatal("expected error for edge to unknown process")
	}
}

func TestGraphRejectsMalformedProcess(t *testing.T) {
	g := NewGraph()
	if err := g.AddProcess(&ProcessDef{Name: "", Script: "true"}); !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for empty name, got %v", err)
	}
	if err := g.AddProcess(&ProcessDef{Name: "a/b", Script: "true"}); !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for path-unsafe name, got %v", err)
	}
}

func TestGraphDuplicateProcess(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, "a")
	if err := g.AddProcess(&ProcessDef{Name: "a", Script: "true"}); err == nil {
		t.Fatal("expected duplicate process to be rejected")
	}
}
