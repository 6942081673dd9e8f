// Package chat defines the conversation log domain model.
//
// The log is append-only: messages are created on send (user role) and on
// response or error (assistant role) and are never mutated afterwards.
// Failures while producing an assistant reply are themselves recorded as
// assistant-role messages so they become part of the durable history.
package chat

import (
	"errors"
	"time"
)

// Validation errors for Message.
var (
	ErrMissingOwner = errors.New("owner is required")
	ErrInvalidRole  = errors.New("invalid role")
)

// ErrWriteFailed is returned when an append did not commit, for example
// because the database is unreachable. Callers must keep the drafted
// input re-sendable when they see this error.
var ErrWriteFailed = errors.New("message write failed")

// Role identifies which side of the conversation produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid checks if the role is a supported value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message represents one turn in a conversation. Role alternation is not
// enforced; consecutive assistant messages occur when replies fail.
type Message struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a Message with the given owner, role, and content.
// Content may be empty only for transient placeholders; persisted
// messages should carry text.
func New(ownerID string, role Role, content string) (Message, error) {
	m := Message{
		OwnerID: ownerID,
		Role:    role,
		Content: content,
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Validate checks that the message meets all constraints.
func (m *Message) Validate() error {
	if m.OwnerID == "" {
		return ErrMissingOwner
	}
	if !m.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}
