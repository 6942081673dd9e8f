package stores

import (
	"context"
	"testing"
	"time"

	"github.com/tasktide/tasktide/internal/core/task"
	"github.com/tasktide/tasktide/internal/data/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		store := NewTaskStore(database)

		deadline := time.Now().Add(48 * time.Hour)
		item := task.Task{
			ID:       "task-1",
			OwnerID:  "owner-a",
			Title:    "Read chapter 4",
			Subject:  "History",
			Priority: task.PriorityHigh,
			Status:   task.StatusPending,
			Deadline: &deadline,
		}

		require.NoError(t, store.Create(ctx, &item))

		got, err := store.Get(ctx, "owner-a", "task-1")
		require.NoError(t, err)
		assert.Equal(t, "Read chapter 4", got.Title)
		assert.Equal(t, "History", got.Subject)
		assert.Equal(t, task.PriorityHigh, got.Priority)
		assert.Equal(t, task.StatusPending, got.Status)
		require.NotNil(t, got.Deadline)
		assert.True(t, got.Deadline.Equal(deadline), "got %v, want %v", got.Deadline, deadline)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("create generates ID when empty", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		store := NewTaskStore(database)

		item := task.Task{
			OwnerID:  "owner-a",
			Title:    "Untitled effort",
			Priority: task.PriorityMedium,
			Status:   task.StatusPending,
		}
		require.NoError(t, store.Create(ctx, &item))
		assert.NotEmpty(t, item.ID)
	})

	t.Run("create rejects invalid task", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		store := NewTaskStore(database)

		item := task.Task{
			OwnerID:  "owner-a",
			Priority: task.PriorityMedium,
			Status:   task.StatusPending,
		}
		assert.ErrorIs(t, store.Create(ctx, &item), task.ErrEmptyTitle)
	})

	t.Run("get is owner scoped", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		store := NewTaskStore(database)

		item := task.Task{
			ID:       "task-1",
			OwnerID:  "owner-a",
			Title:    "Private task",
			Priority: task.PriorityLow,
			Status:   task.StatusPending,
		}
		require.NoError(t, store.Create(ctx, &item))

		_, err = store.Get(ctx, "owner-b", "task-1")
		assert.ErrorIs(t, err, task.ErrNotFound)
	})

	t.Run("list preserves insertion order", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		store := NewTaskStore(database)

		base := time.Now()
		for i, title := range []string{"first", "second", "third"} {
			item := task.Task{
				OwnerID:   "owner-a",
				Title:     title,
				Priority:  task.PriorityMedium,
				Status:    task.StatusPending,
				CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
				UpdatedAt: base.Add(time.Duration(i) * time.Millisecond),
			}
			require.NoError(t, store.Create(ctx, &item))
		}

		items, err := store.List(ctx, "owner-a")
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "first", items[0].Title)
		assert.Equal(t, "second", items[1].Title)
		assert.Equal(t, "third", items[2].Title)
	})

	t.Run("list excludes other owners", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		store := NewTaskStore(database)

		for _, owner := range []string{"owner-a", "owner-b"} {
			item := task.Task{
				OwnerID:  owner,
				Title:    "task for " + owner,
				Priority: task.PriorityMedium,
				Status:   task.StatusPending,
			}
			require.NoError(t, store.Create(ctx, &item))
		}

		items, err := store.List(ctx, "owner-a")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "task for owner-a", items[0].Title)
	})

	t.Run("update replaces fields", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		store := NewTaskStore(database)

		item := task.Task{
			ID:       "task-1",
			OwnerID:  "owner-a",
			Title:    "original",
			Priority: task.PriorityLow,
			Status:   task.StatusPending,
		}
		require.NoError(t, store.Create(ctx, &item))

		item.Title = "revised"
		item.Priority = task.PriorityHigh
		item.Deadline = nil
		require.NoError(t, store.Update(ctx, item))

		got, err := store.Get(ctx, "owner-a", "task-1")
		require.NoError(t, err)
		assert.Equal(t, "revised", got.Title)
		assert.Equal(t, task.PriorityHigh, got.Priority)
		assert.Nil(t, got.Deadline)
	})

	t.Run("update not found", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		store := NewTaskStore(database)

		err = store.Update(ctx, task.Task{
			ID:       "missing",
			OwnerID:  "owner-a",
			Title:    "anything",
			Priority: task.PriorityLow,
			Status:   task.StatusPending,
		})
		assert.ErrorIs(t, err, task.ErrNotFound)
	})

	t.Run("update status", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		store := NewTaskStore(database)

		item := task.Task{
			ID:       "task-1",
			OwnerID:  "owner-a",
			Title:    "finish essay",
			Priority: task.PriorityMedium,
			Status:   task.StatusPending,
		}
		require.NoError(t, store.Create(ctx, &item))

		require.NoError(t, store.UpdateStatus(ctx, "owner-a", "task-1", task.StatusCompleted))

		got, err := store.Get(ctx, "owner-a", "task-1")
		require.NoError(t, err)
		assert.Equal(t, task.StatusCompleted, got.Status)
	})

	t.Run("update status rejects invalid", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		store := NewTaskStore(database)

		err = store.UpdateStatus(ctx, "owner-a", "task-1", task.Status("bogus"))
		assert.ErrorIs(t, err, task.ErrInvalidStatus)
	})

	t.Run("delete", func(t *testing.T) {
		database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
		require.NoError(t, err)
		defer func() { _ = database.Close() }()

		store := NewTaskStore(database)

		item := task.Task{
			ID:       "task-1",
			OwnerID:  "owner-a",
			Title:    "ephemeral",
			Priority: task.PriorityLow,
			Status:   task.StatusPending,
		}
		require.NoError(t, store.Create(ctx, &item))

		require.NoError(t, store.Delete(ctx, "owner-a", "task-1"))

		_, err = store.Get(ctx, "owner-a", "task-1")
		assert.ErrorIs(t, err, task.ErrNotFound)

		assert.ErrorIs(t, store.Delete(ctx, "owner-a", "task-1"), task.ErrNotFound)
	})
}
