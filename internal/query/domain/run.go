package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a query run.
type RunStatus string

const (
	// RunPending marks a run created on submission, not yet picked up.
	RunPending RunStatus = "pending"

	// RunRunning marks a run claimed by a worker.
	RunRunning RunStatus = "running"

	// RunComplete marks a successful terminal run with its result attached.
	RunComplete RunStatus = "complete"

	// RunError marks a failed terminal run with its error list attached.
	RunError RunStatus = "error"
)

// Terminal reports whether the status admits no further transition.
func (s RunStatus) Terminal() bool {
	return s == RunComplete || s == RunError
}

// Run is one asynchronous execution of a stored query with bound variables.
// Created on submission, mutated only by the worker, immutable once terminal.
// Re-submission always produces a new run: runs are never merged.
type Run struct {
	ID          uuid.UUID        `json:"id"`
	Query       uuid.UUID        `json:"query"`
	Principal   string           `json:"principal"`
	Bindings    map[string]any   `json:"bindings,omitempty"`
	Status      RunStatus        `json:"status"`
	StartedAt   *time.Time       `json:"started,omitempty"`
	CompletedAt *time.Time       `json:"completed,omitempty"`
	Result      []map[string]any `json:"result,omitempty"`
	Errors      []string         `json:"errors,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
