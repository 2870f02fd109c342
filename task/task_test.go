package task

import (
	"testing"
	"time"

	"github.com/kbukum/flowkit/errors"
)

func TestNewRunDefaults(t *testing.T) {
	r := NewRun("align", 0, "/tmp/work", "echo hi", Config{})

	if r.Status != StatusCreated {
		t.Fatalf("expected Created, got %s", r.Status)
	}
	if r.ExitCode != -1 {
		t.Fatalf("expected exit code -1 before launch, got %d", r.ExitCode)
	}
	if len(r.Config.ValidExitCodes) != 1 || r.Config.ValidExitCodes[0] != 0 {
		t.Fatalf("expected default valid exit codes {0}, got %v", r.Config.ValidExitCodes)
	}
	if r.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("expected a generated ID")
	}
}

func TestStatusTransitions(t *testing.T) {
	r := NewRun("p", 0, "/tmp/w", "true", Config{})

	if err := r.Transition(StatusRunning); err != nil {
		t.Fatalf("Created -> Running: %v", err)
	}
	if err := r.Transition(StatusCompleted); err != nil {
		t.Fatalf("Running -> Completed: %v", err)
	}
	if !r.Terminal() {
		t.Fatal("Completed must be terminal")
	}

	// Terminal states never transition again.
	err := r.Transition(StatusRunning)
	if err == nil {
		t.Fatal("expected error leaving a terminal state")
	}
	if !errors.IsCode(err, errors.ErrCodeInvalidState) {
		t.Fatalf("expected INVALID_STATE, got %v", err)
	}
	if r.Status != StatusCompleted {
		t.Fatalf("failed transition must not mutate status, got %s", r.Status)
	}
}

func TestStatusCreatedCannotComplete(t *testing.T) {
	r := NewRun("p", 0, "/tmp/w", "true", Config{})
	if err := r.Transition(StatusCompleted); err == nil {
		t.Fatal("Created -> Completed must be rejected")
	}
}

func TestStatusCreatedCanFail(t *testing.T) {
	r := NewRun("p", 0, "/tmp/w", "true", Config{})
	if err := r.Transition(StatusFailed); err != nil {
		t.Fatalf("Created -> Failed (launch failure path): %v", err)
	}
}

func TestConfigAccepts(t *testing.T) {
	cfg := Config{ValidExitCodes: []int{0, 3}}
	if !cfg.Accepts(0) || !cfg.Accepts(3) {
		t.Fatal("expected 0 and 3 accepted")
	}
	if cfg.Accepts(1) {
		t.Fatal("expected 1 rejected")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{MaxDuration: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected negative max duration to fail validation")
	}

	cfg = Config{MaxDuration: time.Minute, DrainGrace: 100 * time.Millisecond}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestArtifactPath(t *testing.T) {
	r := NewRun("p", 0, "/work/abc", "true", Config{})
	if got := r.ArtifactPath(OutFile); got != "/work/abc/.command.out" {
		t.Fatalf("unexpected artifact path: %s", got)
	}
}
