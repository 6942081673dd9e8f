package tasktide

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktide/tasktide/internal/data/db"
	"github.com/tasktide/tasktide/internal/data/stores"
)

func newTestQuoteService(t *testing.T, completer Completer) *QuoteService {
	t.Helper()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return NewQuoteService(completer, stores.NewKVStore(database), "one short quote", zerolog.Nop())
}

func TestQuoteService(t *testing.T) {
	ctx := context.Background()

	t.Run("get fetches and caches", func(t *testing.T) {
		fake := &fakeCompleter{reply: "Keep going."}
		svc := newTestQuoteService(t, fake)

		got, err := svc.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Keep going.", got)
		assert.Equal(t, 1, fake.calls)

		// Second Get is served from the cache.
		got, err = svc.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Keep going.", got)
		assert.Equal(t, 1, fake.calls)
	})

	t.Run("refresh bypasses cache", func(t *testing.T) {
		fake := &fakeCompleter{reply: "First."}
		svc := newTestQuoteService(t, fake)

		_, err := svc.Get(ctx)
		require.NoError(t, err)

		fake.reply = "Second."
		got, err := svc.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Second.", got)
		assert.Equal(t, 2, fake.calls)
	})

	t.Run("fetch failure surfaces", func(t *testing.T) {
		fake := &fakeCompleter{err: errors.New("unreachable")}
		svc := newTestQuoteService(t, fake)

		_, err := svc.Get(ctx)
		assert.Error(t, err)
	})
}
