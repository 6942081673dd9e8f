package tasktide

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktide/tasktide/internal/core/auth"
	"github.com/tasktide/tasktide/internal/core/config"
	"github.com/tasktide/tasktide/internal/core/eventbus/testbus"
	"github.com/tasktide/tasktide/internal/core/pomodoro"
	"github.com/tasktide/tasktide/internal/core/task"
	"github.com/tasktide/tasktide/internal/data/db"
	"github.com/tasktide/tasktide/internal/data/stores"
)

// viewSink records every View pushed by the coordinator.
type viewSink struct {
	mu    sync.Mutex
	views []View
}

func (s *viewSink) push(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, v)
}

func (s *viewSink) latest() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.views) == 0 {
		return View{}, false
	}
	return s.views[len(s.views)-1], true
}

func (s *viewSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

func newTestApp(t *testing.T, completer Completer) *App {
	t.Helper()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	tb := testbus.New(t)
	cfg := config.DefaultConfig()

	return NewApp(Deps{
		TaskStore:    stores.NewTaskStore(database),
		SessionStore: stores.NewPomodoroStore(database),
		MessageStore: stores.NewMessageStore(database),
		KV:           stores.NewKVStore(database),
		Completer:    completer,
		Auth:         auth.NewStaticProvider("owner-a", "Avery"),
		Config:       &cfg,
		Bus:          tb.EventBus,
		DB:           database,
		Log:          zerolog.Nop(),
	})
}

func waitForView(t *testing.T, sink *viewSink, cond func(View) bool) View {
	t.Helper()

	var got View
	require.Eventually(t, func() bool {
		v, ok := sink.latest()
		if !ok || !cond(v) {
			return false
		}
		got = v
		return true
	}, 2*time.Second, 5*time.Millisecond)

	return got
}

func TestCoordinator_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("sources become ready with initial snapshots", func(t *testing.T) {
		app := newTestApp(t, &fakeCompleter{reply: "Onward."})
		c := app.NewCoordinator(zerolog.Nop())
		defer c.Stop()

		sink := &viewSink{}
		c.Start(ctx, "owner-a", sink.push)

		view := waitForView(t, sink, func(v View) bool {
			return v.Tasks.State == StateReady &&
				v.Sessions.State == StateReady &&
				v.Quote.State == StateReady
		})

		assert.Equal(t, 0, view.Stats.TodayTotal)
		assert.Equal(t, 0, view.Stats.CompletionRate)
		assert.Equal(t, "Onward.", view.QuoteText)
	})

	t.Run("writes flow into the live view", func(t *testing.T) {
		app := newTestApp(t, &fakeCompleter{reply: "Onward."})
		c := app.NewCoordinator(zerolog.Nop())
		defer c.Stop()

		sink := &viewSink{}
		c.Start(ctx, "owner-a", sink.push)
		waitForView(t, sink, func(v View) bool { return v.Tasks.State == StateReady })

		deadline := time.Now().Add(24 * time.Hour)
		item := task.Task{
			OwnerID:  "owner-a",
			Title:    "Problem set 3",
			Priority: task.PriorityHigh,
			Status:   task.StatusPending,
			Deadline: &deadline,
		}
		require.NoError(t, app.Tasks.Create(ctx, &item))

		view := waitForView(t, sink, func(v View) bool {
			return len(v.Stats.Upcoming) == 1
		})
		assert.Equal(t, StateReady, view.Tasks.State)
		assert.Len(t, view.Stats.Weekly, 7)
		assert.Equal(t, 0, view.Stats.CompletionRate)

		require.NoError(t, app.Tasks.Complete(ctx, "owner-a", item.ID))

		view = waitForView(t, sink, func(v View) bool { return v.Stats.CompletionRate == 100 })
		assert.Equal(t, 100, view.Stats.CompletionRate)
	})

	t.Run("focus minutes update on session completion", func(t *testing.T) {
		app := newTestApp(t, &fakeCompleter{reply: "Onward."})
		c := app.NewCoordinator(zerolog.Nop())
		defer c.Stop()

		sink := &viewSink{}
		c.Start(ctx, "owner-a", sink.push)
		waitForView(t, sink, func(v View) bool { return v.Sessions.State == StateReady })

		sess, err := app.Pomodoros.Start(ctx, "owner-a", 25, pomodoro.TypeWork)
		require.NoError(t, err)

		// Started but not completed: contributes nothing.
		time.Sleep(50 * time.Millisecond)
		view, ok := sink.latest()
		require.True(t, ok)
		assert.Equal(t, 0, view.Stats.FocusMinutes)

		require.NoError(t, app.Pomodoros.Complete(ctx, "owner-a", sess.ID))

		waitForView(t, sink, func(v View) bool { return v.Stats.FocusMinutes == 25 })
	})

	t.Run("empty owner fails all feed sources", func(t *testing.T) {
		app := newTestApp(t, &fakeCompleter{reply: "Onward."})
		c := app.NewCoordinator(zerolog.Nop())
		defer c.Stop()

		sink := &viewSink{}
		c.Start(ctx, "", sink.push)

		view := waitForView(t, sink, func(v View) bool {
			return v.Tasks.State == StateError && v.Sessions.State == StateError
		})
		assert.ErrorIs(t, view.Tasks.Err, auth.ErrUnauthenticated)
		assert.ErrorIs(t, view.Sessions.Err, auth.ErrUnauthenticated)
	})

	t.Run("quote failure leaves feeds live", func(t *testing.T) {
		app := newTestApp(t, &fakeCompleter{err: errors.New("endpoint down")})
		c := app.NewCoordinator(zerolog.Nop())
		defer c.Stop()

		sink := &viewSink{}
		c.Start(ctx, "owner-a", sink.push)

		view := waitForView(t, sink, func(v View) bool {
			return v.Quote.State == StateError && v.Tasks.State == StateReady
		})
		assert.Error(t, view.Quote.Err)
		assert.Equal(t, StateReady, view.Sessions.State)
	})

	t.Run("retry quote recovers", func(t *testing.T) {
		fake := &fakeCompleter{err: errors.New("endpoint down")}
		app := newTestApp(t, fake)
		c := app.NewCoordinator(zerolog.Nop())
		defer c.Stop()

		sink := &viewSink{}
		c.Start(ctx, "owner-a", sink.push)
		waitForView(t, sink, func(v View) bool { return v.Quote.State == StateError })

		fake.err = nil
		fake.reply = "Back up."
		c.RetryQuote(ctx)

		view := waitForView(t, sink, func(v View) bool { return v.Quote.State == StateReady })
		assert.Equal(t, "Back up.", view.QuoteText)
	})

	t.Run("stop discards subsequent snapshots", func(t *testing.T) {
		app := newTestApp(t, &fakeCompleter{reply: "Onward."})
		c := app.NewCoordinator(zerolog.Nop())

		sink := &viewSink{}
		c.Start(ctx, "owner-a", sink.push)
		waitForView(t, sink, func(v View) bool { return v.Tasks.State == StateReady })

		c.Stop()
		c.Stop() // idempotent

		before := sink.count()
		item := task.Task{
			OwnerID:  "owner-a",
			Title:    "after teardown",
			Priority: task.PriorityLow,
			Status:   task.StatusPending,
		}
		require.NoError(t, app.Tasks.Create(ctx, &item))

		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, before, sink.count(), "no views may arrive after Stop")
	})
}
