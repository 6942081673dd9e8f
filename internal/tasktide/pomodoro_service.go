package tasktide

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tasktide/tasktide/internal/core/eventbus"
	"github.com/tasktide/tasktide/internal/core/pomodoro"
)

// PomodoroService wraps pomodoro.Store with event and notification
// publishing.
type PomodoroService struct {
	store pomodoro.Store
	bus   *eventbus.EventBus
	log   zerolog.Logger
}

// NewPomodoroService creates a new PomodoroService.
func NewPomodoroService(store pomodoro.Store, bus *eventbus.EventBus, log zerolog.Logger) *PomodoroService {
	return &PomodoroService{
		store: store,
		bus:   bus,
		log:   log.With().Str("component", "pomodoro-service").Logger(),
	}
}

// Start creates a new session of the given type and duration. A zero
// duration falls back to the classic 25-minute interval.
func (s *PomodoroService) Start(ctx context.Context, ownerID string, minutes int, typ pomodoro.Type) (pomodoro.Session, error) {
	if minutes == 0 {
		minutes = pomodoro.DefaultWorkMinutes
	}

	sess := pomodoro.Session{
		OwnerID:         ownerID,
		DurationMinutes: minutes,
		Type:            typ,
	}
	if err := s.store.Create(ctx, &sess); err != nil {
		return pomodoro.Session{}, fmt.Errorf("start session: %w", err)
	}

	s.log.Debug().Ctx(ctx).Str("session_id", sess.ID).Int("minutes", minutes).Msg("session started")
	s.bus.PublishPomodoroChanged(eventbus.PomodoroChangedPayload{OwnerID: ownerID})

	return sess, nil
}

// Complete marks a session as completed. Only completed work sessions
// count toward focus minutes, so completion is the moment the dashboard
// totals move.
func (s *PomodoroService) Complete(ctx context.Context, ownerID, id string) error {
	if err := s.store.Complete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	s.bus.PublishPomodoroChanged(eventbus.PomodoroChangedPayload{OwnerID: ownerID})
	s.bus.PublishNotificationPublished(eventbus.NotificationPublishedPayload{
		Level:   eventbus.NotificationSuccess,
		Message: "Focus session complete. Take a break!",
	})

	return nil
}

// List returns all of the owner's sessions ordered by start time.
func (s *PomodoroService) List(ctx context.Context, ownerID string) ([]pomodoro.Session, error) {
	return s.store.List(ctx, ownerID)
}
