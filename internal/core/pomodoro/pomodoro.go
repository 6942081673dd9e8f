// Package pomodoro defines the focus-session domain model.
package pomodoro

import (
	"errors"
	"time"
)

// Validation errors for Session.
var (
	ErrMissingOwner    = errors.New("owner is required")
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrInvalidType     = errors.New("invalid session type")
)

// ErrImmutable is returned when mutating a session that has already
// been completed.
var ErrImmutable = errors.New("completed session is immutable")

// Type classifies a session as a focus interval or a rest interval.
type Type string

const (
	TypeWork  Type = "work"
	TypeBreak Type = "break"
)

// IsValid checks if the type is a supported value.
func (t Type) IsValid() bool {
	switch t {
	case TypeWork, TypeBreak:
		return true
	default:
		return false
	}
}

// DefaultWorkMinutes is the classic Pomodoro focus interval.
const DefaultWorkMinutes = 25

// Session represents one timed focus or break interval.
// Once Completed is set true the session never changes again.
type Session struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	StartedAt       time.Time `json:"started_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Type            Type      `json:"type"`
	Completed       bool      `json:"completed"`
}

// New creates a Session with the given owner, type, and duration.
// Returns an error if validation fails.
func New(ownerID string, typ Type, durationMinutes int) (Session, error) {
	s := Session{
		OwnerID:         ownerID,
		Type:            typ,
		DurationMinutes: durationMinutes,
	}
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Validate checks that the session meets all constraints.
func (s *Session) Validate() error {
	if s.OwnerID == "" {
		return ErrMissingOwner
	}
	if s.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if !s.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

// CountsTowardFocus reports whether the session contributes to the
// owner's focus-time total. Only completed work sessions count.
func (s *Session) CountsTowardFocus() bool {
	return s.Completed && s.Type == TypeWork
}
