package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/tasktide/tasktide/internal/core/chat"
	"github.com/tasktide/tasktide/internal/data/db"
	"github.com/tasktide/tasktide/pkg/randid"
)

// MessageStore implements chat.Store using SQLite.
type MessageStore struct {
	db *db.DB
}

var _ chat.Store = (*MessageStore)(nil)

// NewMessageStore creates a new SQLite-backed message store.
func NewMessageStore(db *db.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Append adds a message to the owner's log. Generates an ID and creation
// time if not set. A failed insert is reported wrapping chat.ErrWriteFailed
// so callers can keep the drafted input re-sendable.
func (s *MessageStore) Append(ctx context.Context, m *chat.Message) error {
	if m.ID == "" {
		m.ID = randid.Generate(8)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	if err := m.Validate(); err != nil {
		return err
	}

	err := s.db.Queries().AppendMessage(ctx, db.AppendMessageParams{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("append message: %w: %w", chat.ErrWriteFailed, err)
	}

	return nil
}

// List returns the owner's full log ordered by creation time ascending,
// with ID as the tiebreak.
func (s *MessageStore) List(ctx context.Context, ownerID string) ([]chat.Message, error) {
	rows, err := s.db.Queries().ListMessages(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	items := make([]chat.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToMessage(row))
	}

	return items, nil
}

func rowToMessage(row db.ChatMessage) chat.Message {
	return chat.Message{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Role:      chat.Role(row.Role),
		Content:   row.Content,
		CreatedAt: time.Unix(0, row.CreatedAt),
	}
}
