package tasktide

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tasktide/tasktide/internal/core/chat"
	"github.com/tasktide/tasktide/internal/core/completion"
	"github.com/tasktide/tasktide/internal/core/eventbus"
	"github.com/tasktide/tasktide/internal/core/kv"
)

// clearMark records the last message hidden by a chat clear. Clearing is
// a display decision: the log itself stays append-only and complete.
type clearMark struct {
	CreatedAtNano int64  `json:"created_at_nano"`
	MessageID     string `json:"message_id"`
}

// Completer produces an assistant reply for a prompt. Satisfied by
// *completion.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatService manages the append-only conversation log and the
// assistant round trip.
type ChatService struct {
	store     chat.Store
	completer Completer
	marks     *kv.TypedKV[clearMark]
	bus       *eventbus.EventBus
	log       zerolog.Logger

	mu      sync.RWMutex
	timeout time.Duration
}

// NewChatService creates a new ChatService. A zero timeout falls back
// to the completion default.
func NewChatService(msgStore chat.Store, completer Completer, kvStore kv.KV, bus *eventbus.EventBus, log zerolog.Logger, timeout time.Duration) *ChatService {
	if timeout <= 0 {
		timeout = completion.DefaultTimeout
	}
	return &ChatService{
		store:     msgStore,
		completer: completer,
		marks:     kv.Scoped[clearMark](kvStore, "chat.watermark"),
		bus:       bus,
		log:       log.With().Str("component", "chat-service").Logger(),
		timeout:   timeout,
	}
}

// SetTimeout replaces the completion call bound. A zero timeout falls
// back to the completion default. Applied on config reload.
func (s *ChatService) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = completion.DefaultTimeout
	}
	s.mu.Lock()
	s.timeout = timeout
	s.mu.Unlock()
}

func (s *ChatService) sendTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeout
}

// Send appends the user's message, requests an assistant reply, and
// appends the outcome. The two writes are deliberately independent: a
// failed user append leaves nothing behind and keeps the draft
// re-sendable, while a failed reply still leaves the user message in
// the log alongside an assistant-role error entry.
func (s *ChatService) Send(ctx context.Context, ownerID, content string) (chat.Message, error) {
	userMsg := chat.Message{
		OwnerID: ownerID,
		Role:    chat.RoleUser,
		Content: content,
	}
	if err := s.store.Append(ctx, &userMsg); err != nil {
		return chat.Message{}, err
	}
	s.bus.PublishChatAppended(eventbus.ChatAppendedPayload{OwnerID: ownerID, Message: &userMsg})

	reqCtx, cancel := context.WithTimeout(ctx, s.sendTimeout())
	defer cancel()

	reply, err := s.completer.Complete(reqCtx, content)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("completion failed")
		s.appendAssistant(ctx, ownerID, completion.UserMessage(err))
		return userMsg, fmt.Errorf("assistant reply: %w", err)
	}

	assistantMsg, appendErr := s.appendAssistant(ctx, ownerID, reply)
	if appendErr != nil {
		return userMsg, appendErr
	}

	return assistantMsg, nil
}

func (s *ChatService) appendAssistant(ctx context.Context, ownerID, content string) (chat.Message, error) {
	msg := chat.Message{
		OwnerID: ownerID,
		Role:    chat.RoleAssistant,
		Content: content,
	}
	if err := s.store.Append(ctx, &msg); err != nil {
		s.log.Error().Ctx(ctx).Err(err).Msg("append assistant message")
		return chat.Message{}, err
	}
	s.bus.PublishChatAppended(eventbus.ChatAppendedPayload{OwnerID: ownerID, Message: &msg})
	return msg, nil
}

// Log returns the owner's visible conversation: everything after the
// most recent clear, in chronological order.
func (s *ChatService) Log(ctx context.Context, ownerID string) ([]chat.Message, error) {
	messages, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	mark, ok, err := s.watermark(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return messages, nil
	}

	visible := make([]chat.Message, 0, len(messages))
	for _, m := range messages {
		if after(m, mark) {
			visible = append(visible, m)
		}
	}
	return visible, nil
}

// FullLog returns the owner's complete log regardless of clears.
func (s *ChatService) FullLog(ctx context.Context, ownerID string) ([]chat.Message, error) {
	return s.store.List(ctx, ownerID)
}

// Clear hides the current conversation from display by recording the
// latest message as a watermark. No messages are deleted.
func (s *ChatService) Clear(ctx context.Context, ownerID string) error {
	messages, err := s.store.List(ctx, ownerID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	last := messages[len(messages)-1]
	mark := clearMark{
		CreatedAtNano: last.CreatedAt.UnixNano(),
		MessageID:     last.ID,
	}
	if err := s.marks.Set(ctx, ownerID, mark); err != nil {
		return fmt.Errorf("set chat watermark: %w", err)
	}

	s.log.Debug().Ctx(ctx).Str("last_id", last.ID).Msg("chat cleared")

	return nil
}

func (s *ChatService) watermark(ctx context.Context, ownerID string) (clearMark, bool, error) {
	mark, err := s.marks.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return clearMark{}, false, nil
		}
		return clearMark{}, false, fmt.Errorf("get chat watermark: %w", err)
	}
	return mark, true, nil
}

// after reports whether m sorts strictly after the watermark in the
// log's (created_at, id) order.
func after(m chat.Message, mark clearMark) bool {
	nano := m.CreatedAt.UnixNano()
	if nano != mark.CreatedAtNano {
		return nano > mark.CreatedAtNano
	}
	return m.ID > mark.MessageID
}
