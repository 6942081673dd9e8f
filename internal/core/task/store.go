package task

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = errors.New("task not found")

// Store defines the interface for task persistence.
type Store interface {
	// Create persists a new task.
	// The store populates ID, CreatedAt, and UpdatedAt if not already set.
	Create(ctx context.Context, t *Task) error

	// Get returns a single task by ID, scoped to the owner.
	// Returns ErrNotFound if the task does not exist.
	Get(ctx context.Context, ownerID, id string) (Task, error)

	// List returns all tasks belonging to the owner in insertion order.
	List(ctx context.Context, ownerID string) ([]Task, error)

	// Update replaces the mutable fields of a task (title, subject,
	// priority, status, deadline) and refreshes UpdatedAt.
	// Returns ErrNotFound if the task does not exist.
	Update(ctx context.Context, t Task) error

	// UpdateStatus changes the status of a task and refreshes UpdatedAt.
	// Returns ErrNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, ownerID, id string, status Status) error

	// Delete removes a task. Deletion is always an explicit caller action;
	// no store operation deletes tasks as a side effect.
	// Returns ErrNotFound if the task does not exist.
	Delete(ctx context.Context, ownerID, id string) error
}
