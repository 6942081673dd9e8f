package tasktide

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktide/tasktide/internal/core/eventbus"
	"github.com/tasktide/tasktide/internal/core/eventbus/testbus"
	"github.com/tasktide/tasktide/internal/core/task"
	"github.com/tasktide/tasktide/internal/data/db"
	"github.com/tasktide/tasktide/internal/data/stores"
)

func newTestTaskService(t *testing.T) (*TaskService, *testbus.Bus) {
	t.Helper()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	store := stores.NewTaskStore(database)
	tb := testbus.New(t)

	svc := NewTaskService(store, tb.EventBus, zerolog.Nop())
	return svc, tb
}

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and publishes", func(t *testing.T) {
		svc, tb := newTestTaskService(t)

		item := task.Task{
			OwnerID:  "owner-a",
			Title:    "Study for midterm",
			Priority: task.PriorityHigh,
			Status:   task.StatusPending,
		}
		require.NoError(t, svc.Create(ctx, &item))
		assert.NotEmpty(t, item.ID)

		tb.AssertPublished(t, eventbus.EventTaskChanged)
	})

	t.Run("invalid task publishes nothing", func(t *testing.T) {
		svc, tb := newTestTaskService(t)

		item := task.Task{
			OwnerID:  "owner-a",
			Priority: task.PriorityLow,
			Status:   task.StatusPending,
		}
		require.ErrorIs(t, svc.Create(ctx, &item), task.ErrEmptyTitle)

		tb.AssertNotPublished(t, eventbus.EventTaskChanged, 50*time.Millisecond)
	})
}

func TestTaskService_StatusTransitions(t *testing.T) {
	ctx := context.Background()

	svc, tb := newTestTaskService(t)

	item := task.Task{
		OwnerID:  "owner-a",
		Title:    "Lab writeup",
		Priority: task.PriorityMedium,
		Status:   task.StatusPending,
	}
	require.NoError(t, svc.Create(ctx, &item))

	require.NoError(t, svc.Start(ctx, "owner-a", item.ID))
	got, err := svc.Get(ctx, "owner-a", item.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, got.Status)

	require.NoError(t, svc.Complete(ctx, "owner-a", item.ID))
	got, err = svc.Get(ctx, "owner-a", item.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, got.Status)

	// Completion preserves everything except status.
	assert.Equal(t, task.PriorityMedium, got.Priority)
	assert.Equal(t, "Lab writeup", got.Title)

	require.NoError(t, svc.Reopen(ctx, "owner-a", item.ID))
	got, err = svc.Get(ctx, "owner-a", item.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, got.Status)

	tb.AssertPublished(t, eventbus.EventTaskChanged)
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()

	svc, _ := newTestTaskService(t)

	item := task.Task{
		OwnerID:  "owner-a",
		Title:    "Scratch item",
		Priority: task.PriorityLow,
		Status:   task.StatusPending,
	}
	require.NoError(t, svc.Create(ctx, &item))
	require.NoError(t, svc.Delete(ctx, "owner-a", item.ID))

	_, err := svc.Get(ctx, "owner-a", item.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "owner-a", item.ID), task.ErrNotFound)
}
