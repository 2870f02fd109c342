package task

import "github.com/kbukum/flowkit/errors"

// Status is the lifecycle state of a task run.
type Status string

const (
	// StatusCreated means the run exists but has not been launched.
	StatusCreated Status = "CREATED"
	// StatusRunning means the subprocess has been spawned and not yet reaped.
	StatusRunning Status = "RUNNING"
	// StatusCompleted means the subprocess exited within its valid exit-code set.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed means the subprocess exited outside its valid exit-code set,
	// was killed by its timeout, or could not be launched at all.
	StatusFailed Status = "FAILED"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// validTransitions holds the allowed forward edges of the status machine.
// Terminal states have no outgoing edges.
var validTransitions = map[Status][]Status{
	StatusCreated: {StatusRunning, StatusFailed},
	StatusRunning: {StatusCompleted, StatusFailed},
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition moves the run to the given status, rejecting illegal moves.
// Transitions are monotonic: once terminal, a run never changes again.
func (r *Run) Transition(next Status) error {
	if !r.Status.CanTransition(next) {
		return errors.InvalidState(string(r.Status), string(next))
	}
	r.Status = next
	return nil
}
