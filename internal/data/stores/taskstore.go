package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tasktide/tasktide/internal/core/task"
	"github.com/tasktide/tasktide/internal/data/db"
	"github.com/tasktide/tasktide/pkg/randid"
)

// TaskStore implements task.Store using SQLite.
type TaskStore struct {
	db *db.DB
}

var _ task.Store = (*TaskStore)(nil)

// NewTaskStore creates a new SQLite-backed task store.
func NewTaskStore(db *db.DB) *TaskStore {
	return &TaskStore{db: db}
}

// Create persists a new task. Generates an ID and timestamps if not set.
func (s *TaskStore) Create(ctx context.Context, t *task.Task) error {
	if t.ID == "" {
		t.ID = randid.Generate(8)
	}

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	if err := t.Validate(); err != nil {
		return err
	}

	err := s.db.Queries().CreateTask(ctx, db.CreateTaskParams{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Title:     t.Title,
		Subject:   toNullString(t.Subject),
		Priority:  string(t.Priority),
		Status:    string(t.Status),
		Deadline:  toNullTime(t.Deadline),
		CreatedAt: t.CreatedAt.UnixNano(),
		UpdatedAt: t.UpdatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

// Get returns a single task by ID, scoped to the owner.
func (s *TaskStore) Get(ctx context.Context, ownerID, id string) (task.Task, error) {
	row, err := s.db.Queries().GetTask(ctx, ownerID, id)
	if err != nil {
		if IsNotFoundError(err) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}

	return rowToTask(row), nil
}

// List returns all of the owner's tasks in insertion order.
func (s *TaskStore) List(ctx context.Context, ownerID string) ([]task.Task, error) {
	rows, err := s.db.Queries().ListTasks(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	items := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToTask(row))
	}

	return items, nil
}

// Update replaces the mutable fields of a task and refreshes UpdatedAt.
func (s *TaskStore) Update(ctx context.Context, t task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	affected, err := s.db.Queries().UpdateTask(ctx, db.UpdateTaskParams{
		OwnerID:   t.OwnerID,
		ID:        t.ID,
		Title:     t.Title,
		Subject:   toNullString(t.Subject),
		Priority:  string(t.Priority),
		Status:    string(t.Status),
		Deadline:  toNullTime(t.Deadline),
		UpdatedAt: time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if affected == 0 {
		return task.ErrNotFound
	}

	return nil
}

// UpdateStatus changes the status of a task and refreshes UpdatedAt.
func (s *TaskStore) UpdateStatus(ctx context.Context, ownerID, id string, status task.Status) error {
	if !status.IsValid() {
		return task.ErrInvalidStatus
	}

	affected, err := s.db.Queries().UpdateTaskStatus(ctx, db.UpdateTaskStatusParams{
		OwnerID:   ownerID,
		ID:        id,
		Status:    string(status),
		UpdatedAt: time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if affected == 0 {
		return task.ErrNotFound
	}

	return nil
}

// Delete removes a task.
func (s *TaskStore) Delete(ctx context.Context, ownerID, id string) error {
	affected, err := s.db.Queries().DeleteTask(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if affected == 0 {
		return task.ErrNotFound
	}

	return nil
}

func rowToTask(row db.Task) task.Task {
	return task.Task{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Title:     row.Title,
		Subject:   fromNullString(row.Subject),
		Priority:  task.Priority(row.Priority),
		Status:    task.Status(row.Status),
		Deadline:  fromNullTime(row.Deadline),
		CreatedAt: time.Unix(0, row.CreatedAt),
		UpdatedAt: time.Unix(0, row.UpdatedAt),
	}
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func toNullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNullTime(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(0, n.Int64)
	return &t
}
