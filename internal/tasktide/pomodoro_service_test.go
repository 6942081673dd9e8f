package tasktide

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktide/tasktide/internal/core/eventbus"
	"github.com/tasktide/tasktide/internal/core/eventbus/testbus"
	"github.com/tasktide/tasktide/internal/core/pomodoro"
	"github.com/tasktide/tasktide/internal/data/db"
	"github.com/tasktide/tasktide/internal/data/stores"
)

func newTestPomodoroService(t *testing.T) (*PomodoroService, *testbus.Bus) {
	t.Helper()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	tb := testbus.New(t)
	svc := NewPomodoroService(stores.NewPomodoroStore(database), tb.EventBus, zerolog.Nop())
	return svc, tb
}

func TestPomodoroService(t *testing.T) {
	ctx := context.Background()

	t.Run("start defaults to 25 minutes", func(t *testing.T) {
		svc, tb := newTestPomodoroService(t)

		sess, err := svc.Start(ctx, "owner-a", 0, pomodoro.TypeWork)
		require.NoError(t, err)
		assert.Equal(t, pomodoro.DefaultWorkMinutes, sess.DurationMinutes)
		assert.False(t, sess.Completed)

		tb.AssertPublished(t, eventbus.EventPomodoroChanged)
	})

	t.Run("complete publishes change and notification", func(t *testing.T) {
		svc, tb := newTestPomodoroService(t)

		sess, err := svc.Start(ctx, "owner-a", 25, pomodoro.TypeWork)
		require.NoError(t, err)

		require.NoError(t, svc.Complete(ctx, "owner-a", sess.ID))

		tb.AssertPublished(t, eventbus.EventPomodoroChanged)
		tb.AssertPublished(t, eventbus.EventNotificationPublished)

		sessions, err := svc.List(ctx, "owner-a")
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.True(t, sessions[0].Completed)
	})

	t.Run("complete twice is immutable", func(t *testing.T) {
		svc, _ := newTestPomodoroService(t)

		sess, err := svc.Start(ctx, "owner-a", 25, pomodoro.TypeWork)
		require.NoError(t, err)

		require.NoError(t, svc.Complete(ctx, "owner-a", sess.ID))
		assert.ErrorIs(t, svc.Complete(ctx, "owner-a", sess.ID), pomodoro.ErrImmutable)
	})
}
