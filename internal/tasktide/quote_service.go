package tasktide

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tasktide/tasktide/internal/core/kv"
)

const (
	quoteCacheKey = "daily"
	quoteCacheTTL = 24 * time.Hour
)

// cachedQuote is the KV payload for a fetched quote.
type cachedQuote struct {
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// QuoteService produces the dashboard's motivational quote: a one-shot
// completion call cached for a day. Quote fetching is independent of the
// live feeds — a failed fetch never blocks the dashboard.
type QuoteService struct {
	completer Completer
	cache     *kv.TypedKV[cachedQuote]
	log       zerolog.Logger

	mu     sync.RWMutex
	prompt string
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(completer Completer, kvStore kv.KV, prompt string, log zerolog.Logger) *QuoteService {
	return &QuoteService{
		completer: completer,
		cache:     kv.Scoped[cachedQuote](kvStore, "quote"),
		prompt:    prompt,
		log:       log.With().Str("component", "quote-service").Logger(),
	}
}

// SetPrompt replaces the quote prompt. Applied on config reload; the
// cached quote keeps its TTL, so the new prompt takes effect on the
// next refresh.
func (s *QuoteService) SetPrompt(prompt string) {
	s.mu.Lock()
	s.prompt = prompt
	s.mu.Unlock()
}

// Get returns the cached quote when fresh, fetching a new one otherwise.
func (s *QuoteService) Get(ctx context.Context) (string, error) {
	cached, err := s.cache.Get(ctx, quoteCacheKey)
	if err == nil && cached.Text != "" {
		return cached.Text, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.log.Debug().Ctx(ctx).Err(err).Msg("quote cache read failed, refetching")
	}

	return s.Refresh(ctx)
}

// Refresh fetches a new quote, bypassing the cache. Used for manual
// retry after a failed fetch.
func (s *QuoteService) Refresh(ctx context.Context) (string, error) {
	s.mu.RLock()
	prompt := s.prompt
	s.mu.RUnlock()

	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("fetch quote: %w", err)
	}

	cached := cachedQuote{Text: text, FetchedAt: time.Now()}
	if err := s.cache.SetTTL(ctx, quoteCacheKey, cached, quoteCacheTTL); err != nil {
		// A stale cache only costs an extra fetch later.
		s.log.Debug().Ctx(ctx).Err(err).Msg("quote cache write failed")
	}

	return text, nil
}
