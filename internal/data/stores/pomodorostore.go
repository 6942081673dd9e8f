package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/tasktide/tasktide/internal/core/pomodoro"
	"github.com/tasktide/tasktide/internal/data/db"
	"github.com/tasktide/tasktide/pkg/randid"
)

// PomodoroStore implements pomodoro.Store using SQLite.
type PomodoroStore struct {
	db *db.DB
}

var _ pomodoro.Store = (*PomodoroStore)(nil)

// NewPomodoroStore creates a new SQLite-backed session store.
func NewPomodoroStore(db *db.DB) *PomodoroStore {
	return &PomodoroStore{db: db}
}

// Create persists a new session. Generates an ID and start time if not set.
func (s *PomodoroStore) Create(ctx context.Context, sess *pomodoro.Session) error {
	if sess.ID == "" {
		sess.ID = randid.Generate(8)
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	if err := sess.Validate(); err != nil {
		return err
	}

	err := s.db.Queries().CreateSession(ctx, db.CreateSessionParams{
		ID:              sess.ID,
		OwnerID:         sess.OwnerID,
		StartedAt:       sess.StartedAt.UnixNano(),
		DurationMinutes: int64(sess.DurationMinutes),
		Type:            string(sess.Type),
		Completed:       sess.Completed,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// Complete marks a session as completed. A completed session is immutable,
// so re-completing one returns ErrImmutable rather than silently succeeding.
func (s *PomodoroStore) Complete(ctx context.Context, ownerID, id string) error {
	affected, err := s.db.Queries().CompleteSession(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing changed: either the session is missing or already completed.
	_, err = s.db.Queries().GetSession(ctx, ownerID, id)
	if err != nil {
		if IsNotFoundError(err) {
			return pomodoro.ErrNotFound
		}
		return fmt.Errorf("get session after complete: %w", err)
	}

	return pomodoro.ErrImmutable
}

// List returns all of the owner's sessions ordered by start time ascending.
func (s *PomodoroStore) List(ctx context.Context, ownerID string) ([]pomodoro.Session, error) {
	rows, err := s.db.Queries().ListSessions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	items := make([]pomodoro.Session, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToSession(row))
	}

	return items, nil
}

func rowToSession(row db.PomodoroSession) pomodoro.Session {
	return pomodoro.Session{
		ID:              row.ID,
		OwnerID:         row.OwnerID,
		StartedAt:       time.Unix(0, row.StartedAt),
		DurationMinutes: int(row.DurationMinutes),
		Type:            pomodoro.Type(row.Type),
		Completed:       row.Completed,
	}
}
