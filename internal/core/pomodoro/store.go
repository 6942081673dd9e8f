package pomodoro

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Store defines the interface for session persistence.
type Store interface {
	// Create persists a new session.
	// The store populates ID and StartedAt if not already set.
	Create(ctx context.Context, s *Session) error

	// Complete marks a session as completed.
	// Returns ErrNotFound if the session does not exist and ErrImmutable
	// if it was already completed.
	Complete(ctx context.Context, ownerID, id string) error

	// List returns all sessions belonging to the owner, ordered by start
	// time ascending.
	List(ctx context.Context, ownerID string) ([]Session, error)
}
