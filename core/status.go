package core

import (
	"fmt"
	"time"

	"github.com/samber/mo"
)

// Status is the lifecycle state of an ingestion run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether no further transition can leave s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is allowed.
// Transitions only move toward a terminal state.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusCancelled
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	}
	return false
}

// Transition moves the run to next, stamping FinishedAt when next is terminal.
func (r *IngestionRun) Transition(next Status) error {
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next)
	}
	r.Status = next
	now := time.Now().UTC()
	switch {
	case next == StatusRunning:
		r.StartedAt = now
	case next.IsTerminal():
		r.FinishedAt = now
	}
	return nil
}

// Fail records msg as the run error. The status is left to the verify step.
func (r *IngestionRun) Fail(msg string) {
	r.Error = mo.Some(msg)
}
