// Package tasktide wires stores, feeds, and collaborators into the
// services that commands and the TUI consume.
package tasktide

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tasktide/tasktide/internal/core/auth"
	"github.com/tasktide/tasktide/internal/core/chat"
	"github.com/tasktide/tasktide/internal/core/config"
	"github.com/tasktide/tasktide/internal/core/eventbus"
	"github.com/tasktide/tasktide/internal/core/feed"
	"github.com/tasktide/tasktide/internal/core/kv"
	"github.com/tasktide/tasktide/internal/core/pomodoro"
	"github.com/tasktide/tasktide/internal/core/task"
	"github.com/tasktide/tasktide/internal/data/db"
)

// App is the central entry point for all tasktide operations.
// Commands and the TUI consume App instead of cherry-picking raw
// dependencies.
type App struct {
	Tasks     *TaskService
	Pomodoros *PomodoroService
	Chat      *ChatService
	Quotes    *QuoteService

	TaskFeed    *feed.Broker[task.Task]
	SessionFeed *feed.Broker[pomodoro.Session]

	Auth   auth.Provider
	Config *config.Config // startup snapshot; reloadable settings flow through the bus
	Bus    *eventbus.EventBus
	DB     *db.DB
	KV     kv.KV

	// App is copied into a pre-allocated struct at startup; settings
	// must stay behind a pointer so the reload subscriber and every
	// copy see the same state.
	settings *liveSettings
}

// liveSettings is the reload-following slice of the config.
type liveSettings struct {
	mu        sync.RWMutex
	dashboard config.DashboardConfig
}

// DashboardSettings returns the current dashboard tuning, tracking
// config hot reloads.
func (a *App) DashboardSettings() config.DashboardConfig {
	a.settings.mu.RLock()
	defer a.settings.mu.RUnlock()
	return a.settings.dashboard
}

// Deps carries the explicit dependencies NewApp assembles from.
type Deps struct {
	TaskStore    task.Store
	SessionStore pomodoro.Store
	MessageStore chat.Store
	KV           kv.KV
	Completer    Completer
	Auth         auth.Provider
	Config       *config.Config
	Bus          *eventbus.EventBus
	DB           *db.DB
	Log          zerolog.Logger
}

// NewApp constructs an App and wires write events to feed invalidation,
// so every committed change wakes the matching live subscriptions.
func NewApp(d Deps) *App {
	app := &App{
		Tasks:     NewTaskService(d.TaskStore, d.Bus, d.Log),
		Pomodoros: NewPomodoroService(d.SessionStore, d.Bus, d.Log),
		Chat:      NewChatService(d.MessageStore, d.Completer, d.KV, d.Bus, d.Log, d.Config.AI.Timeout()),
		Quotes:    NewQuoteService(d.Completer, d.KV, d.Config.Dashboard.QuotePrompt, d.Log),

		TaskFeed:    feed.NewBroker(d.TaskStore.List, d.Log),
		SessionFeed: feed.NewBroker(d.SessionStore.List, d.Log),

		Auth:   d.Auth,
		Config: d.Config,
		Bus:    d.Bus,
		DB:     d.DB,
		KV:     d.KV,

		settings: &liveSettings{dashboard: d.Config.Dashboard},
	}

	d.Bus.SubscribeTaskChanged(func(p eventbus.TaskChangedPayload) {
		app.TaskFeed.Invalidate(p.OwnerID)
	})
	d.Bus.SubscribePomodoroChanged(func(p eventbus.PomodoroChangedPayload) {
		app.SessionFeed.Invalidate(p.OwnerID)
	})
	d.Bus.SubscribeConfigReloaded(func(p eventbus.ConfigReloadedPayload) {
		app.Chat.SetTimeout(p.Config.AI.Timeout())
		app.Quotes.SetPrompt(p.Config.Dashboard.QuotePrompt)

		app.settings.mu.Lock()
		app.settings.dashboard = p.Config.Dashboard
		app.settings.mu.Unlock()
	})

	return app
}

// NewCoordinator builds a dashboard Coordinator over the app's feeds
// and quote service. The coordinator tracks config reloads for the
// upcoming-task limit while it runs.
func (a *App) NewCoordinator(log zerolog.Logger) *Coordinator {
	c := NewCoordinator(a.TaskFeed, a.SessionFeed, a.Quotes, log)
	c.SetUpcomingLimit(a.DashboardSettings().UpcomingLimit)

	a.Bus.SubscribeConfigReloaded(func(p eventbus.ConfigReloadedPayload) {
		c.SetUpcomingLimit(p.Config.Dashboard.UpcomingLimit)
	})

	return c
}
