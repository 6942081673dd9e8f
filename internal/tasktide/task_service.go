package tasktide

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tasktide/tasktide/internal/core/eventbus"
	"github.com/tasktide/tasktide/internal/core/task"
)

// TaskService wraps task.Store with event publishing so live views see
// every committed change.
type TaskService struct {
	store task.Store
	bus   *eventbus.EventBus
	log   zerolog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(store task.Store, bus *eventbus.EventBus, log zerolog.Logger) *TaskService {
	return &TaskService{
		store: store,
		bus:   bus,
		log:   log.With().Str("component", "task-service").Logger(),
	}
}

// Create validates and persists a new task, then publishes a change event.
func (s *TaskService) Create(ctx context.Context, t *task.Task) error {
	if err := s.store.Create(ctx, t); err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	s.log.Debug().Ctx(ctx).Str("task_id", t.ID).Msg("task created")
	s.bus.PublishTaskChanged(eventbus.TaskChangedPayload{OwnerID: t.OwnerID})

	return nil
}

// Get returns a single task scoped to the owner.
func (s *TaskService) Get(ctx context.Context, ownerID, id string) (task.Task, error) {
	return s.store.Get(ctx, ownerID, id)
}

// List returns all of the owner's tasks in insertion order.
func (s *TaskService) List(ctx context.Context, ownerID string) ([]task.Task, error) {
	return s.store.List(ctx, ownerID)
}

// Update replaces a task's mutable fields and publishes a change event.
func (s *TaskService) Update(ctx context.Context, t task.Task) error {
	if err := s.store.Update(ctx, t); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	s.bus.PublishTaskChanged(eventbus.TaskChangedPayload{OwnerID: t.OwnerID})

	return nil
}

// Start moves a task to in-progress.
func (s *TaskService) Start(ctx context.Context, ownerID, id string) error {
	return s.setStatus(ctx, ownerID, id, task.StatusInProgress)
}

// Complete marks a task as completed. The task keeps its priority,
// subject, and deadline so historical views stay intact.
func (s *TaskService) Complete(ctx context.Context, ownerID, id string) error {
	return s.setStatus(ctx, ownerID, id, task.StatusCompleted)
}

// Reopen moves a completed task back to pending.
func (s *TaskService) Reopen(ctx context.Context, ownerID, id string) error {
	return s.setStatus(ctx, ownerID, id, task.StatusPending)
}

func (s *TaskService) setStatus(ctx context.Context, ownerID, id string, status task.Status) error {
	if err := s.store.UpdateStatus(ctx, ownerID, id, status); err != nil {
		return fmt.Errorf("set task status: %w", err)
	}

	s.log.Debug().Ctx(ctx).Str("task_id", id).Str("status", string(status)).Msg("task status changed")
	s.bus.PublishTaskChanged(eventbus.TaskChangedPayload{OwnerID: ownerID})

	return nil
}

// Delete removes a task. Deletion only ever happens here, on explicit
// user action.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.log.Debug().Ctx(ctx).Str("task_id", id).Msg("task deleted")
	s.bus.PublishTaskChanged(eventbus.TaskChangedPayload{OwnerID: ownerID})

	return nil
}
