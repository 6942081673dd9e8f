// Package task defines the task domain model for student work items.
package task

import (
	"errors"
	"time"
)

// Validation errors for Task.
var (
	ErrEmptyTitle      = errors.New("title is required")
	ErrMissingOwner    = errors.New("owner is required")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidStatus   = errors.New("invalid status")
)

// Priority represents the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid checks if the priority is a supported value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// IsValid checks if the status is a supported value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Task represents one unit of student work, scoped to a single owner.
//
// A completed task keeps its final priority and subject so historical
// views render exactly what the task looked like when it was finished.
type Task struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Title     string     `json:"title"`
	Subject   string     `json:"subject,omitempty"`
	Priority  Priority   `json:"priority"`
	Status    Status     `json:"status"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// New creates a Task with the given owner and title and sensible defaults.
// Returns an error if validation fails.
func New(ownerID, title string) (Task, error) {
	t := Task{
		OwnerID:  ownerID,
		Title:    title,
		Priority: PriorityMedium,
		Status:   StatusPending,
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Validate checks that the task meets all constraints.
func (t *Task) Validate() error {
	if t.OwnerID == "" {
		return ErrMissingOwner
	}
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// IsCompleted reports whether the task has reached its terminal state.
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// DueOn reports whether the task's deadline falls on the same local
// calendar day as the given time. Tasks without a deadline never match.
func (t *Task) DueOn(day time.Time) bool {
	if t.Deadline == nil {
		return false
	}
	y1, m1, d1 := t.Deadline.Local().Date()
	y2, m2, d2 := day.Local().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
