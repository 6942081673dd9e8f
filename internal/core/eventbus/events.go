// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within tasktide.
//
// Services publish an event after every committed write; snapshot feeds
// subscribe to know when to reload. The typed Publish/Subscribe pairs are
// maintained by hand and kept sorted A-Z.
package eventbus

import (
	"context"
	"sync"

	"github.com/tasktide/tasktide/internal/core/chat"
	"github.com/tasktide/tasktide/internal/core/config"
)

// Event names, one per payload type below.
const (
	EventChatAppended          Event = "chat.appended"
	EventConfigReloaded        Event = "config.reloaded"
	EventNotificationPublished Event = "notification.published"
	EventPomodoroChanged       Event = "pomodoro.changed"
	EventTaskChanged           Event = "task.changed"
)

// Event identifies an event type on the bus.
type Event string

// ChatAppendedPayload is emitted when a message is appended to an
// owner's conversation log.
type ChatAppendedPayload struct {
	OwnerID string
	Message *chat.Message
}

// ConfigReloadedPayload is emitted when configuration is reloaded.
type ConfigReloadedPayload struct {
	Config *config.Config
}

// NotificationLevel grades a user-facing notification.
type NotificationLevel string

const (
	NotificationInfo    NotificationLevel = "info"
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// NotificationPublishedPayload is emitted when a service wants to surface
// a transient user-facing message, for example a finished focus session.
type NotificationPublishedPayload struct {
	Level   NotificationLevel
	Message string
}

// PomodoroChangedPayload is emitted when an owner's session collection
// changes (session created or completed).
type PomodoroChangedPayload struct {
	OwnerID string
}

// TaskChangedPayload is emitted when an owner's task collection changes
// (task created, updated, or deleted).
type TaskChangedPayload struct {
	OwnerID string
}

const defaultBufferSize = 64

type envelope struct {
	event   Event
	payload any
}

// EventBus dispatches typed events to registered subscribers from a
// single Run loop, so subscribers for one event fire in publish order.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu                    sync.RWMutex
	chatAppended          []func(ChatAppendedPayload)
	configReloaded        []func(ConfigReloadedPayload)
	notificationPublished []func(NotificationPublishedPayload)
	pomodoroChanged       []func(PomodoroChangedPayload)
	taskChanged           []func(TaskChangedPayload)
}

// New creates an EventBus with the default buffer size.
func New() *EventBus {
	return &EventBus{ch: make(chan envelope, defaultBufferSize)}
}

// Run dispatches events until the context is cancelled. It must be
// running for subscribers to fire; publishes while Run is not draining
// the buffer are dropped once the buffer fills.
func (bus *EventBus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

// PublishChatAppended publishes a chat.appended event.
func (bus *EventBus) PublishChatAppended(p ChatAppendedPayload) {
	bus.send(EventChatAppended, p)
}

// SubscribeChatAppended registers a subscriber for chat.appended.
func (bus *EventBus) SubscribeChatAppended(fn func(ChatAppendedPayload)) {
	bus.mu.Lock()
	bus.chatAppended = append(bus.chatAppended, fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(EventChatAppended)
}

// PublishConfigReloaded publishes a config.reloaded event.
func (bus *EventBus) PublishConfigReloaded(p ConfigReloadedPayload) {
	bus.send(EventConfigReloaded, p)
}

// SubscribeConfigReloaded registers a subscriber for config.reloaded.
func (bus *EventBus) SubscribeConfigReloaded(fn func(ConfigReloadedPayload)) {
	bus.mu.Lock()
	bus.configReloaded = append(bus.configReloaded, fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(EventConfigReloaded)
}

// PublishNotificationPublished publishes a notification.published event.
func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

// SubscribeNotificationPublished registers a subscriber for notification.published.
func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	bus.mu.Lock()
	bus.notificationPublished = append(bus.notificationPublished, fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(EventNotificationPublished)
}

// PublishPomodoroChanged publishes a pomodoro.changed event.
func (bus *EventBus) PublishPomodoroChanged(p PomodoroChangedPayload) {
	bus.send(EventPomodoroChanged, p)
}

// SubscribePomodoroChanged registers a subscriber for pomodoro.changed.
func (bus *EventBus) SubscribePomodoroChanged(fn func(PomodoroChangedPayload)) {
	bus.mu.Lock()
	bus.pomodoroChanged = append(bus.pomodoroChanged, fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(EventPomodoroChanged)
}

// PublishTaskChanged publishes a task.changed event.
func (bus *EventBus) PublishTaskChanged(p TaskChangedPayload) {
	bus.send(EventTaskChanged, p)
}

// SubscribeTaskChanged registers a subscriber for task.changed.
func (bus *EventBus) SubscribeTaskChanged(fn func(TaskChangedPayload)) {
	bus.mu.Lock()
	bus.taskChanged = append(bus.taskChanged, fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(EventTaskChanged)
}

func (bus *EventBus) dispatch(env envelope) {
	switch env.event {
	case EventChatAppended:
		p := env.payload.(ChatAppendedPayload)
		for _, fn := range snapshotSubs(&bus.mu, bus.chatAppended) {
			bus.invoke(env, func() { fn(p) })
		}
	case EventConfigReloaded:
		p := env.payload.(ConfigReloadedPayload)
		for _, fn := range snapshotSubs(&bus.mu, bus.configReloaded) {
			bus.invoke(env, func() { fn(p) })
		}
	case EventNotificationPublished:
		p := env.payload.(NotificationPublishedPayload)
		for _, fn := range snapshotSubs(&bus.mu, bus.notificationPublished) {
			bus.invoke(env, func() { fn(p) })
		}
	case EventPomodoroChanged:
		p := env.payload.(PomodoroChangedPayload)
		for _, fn := range snapshotSubs(&bus.mu, bus.pomodoroChanged) {
			bus.invoke(env, func() { fn(p) })
		}
	case EventTaskChanged:
		p := env.payload.(TaskChangedPayload)
		for _, fn := range snapshotSubs(&bus.mu, bus.taskChanged) {
			bus.invoke(env, func() { fn(p) })
		}
	}
}

// invoke runs a subscriber with panic containment so one bad subscriber
// cannot take down the dispatch loop.
func (bus *EventBus) invoke(env envelope, fn func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			bus.runOnPanic(env.event, env.payload, recovered)
		}
	}()
	fn()
}

func snapshotSubs[T any](mu *sync.RWMutex, subs []func(T)) []func(T) {
	mu.RLock()
	out := make([]func(T), len(subs))
	copy(out, subs)
	mu.RUnlock()
	return out
}
