package chat

import "context"

// Store defines the interface for conversation persistence.
type Store interface {
	// Append adds a message to the owner's log.
	// The store populates ID and CreatedAt if not already set.
	// A failed commit is reported as an error wrapping ErrWriteFailed;
	// the message is either fully persisted or not persisted at all.
	Append(ctx context.Context, m *Message) error

	// List returns the owner's full log ordered by creation time
	// ascending, with ties broken by ID ascending so same-millisecond
	// messages order deterministically.
	List(ctx context.Context, ownerID string) ([]Message, error)
}
