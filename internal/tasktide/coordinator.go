package tasktide

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tasktide/tasktide/internal/core/feed"
	"github.com/tasktide/tasktide/internal/core/logging"
	"github.com/tasktide/tasktide/internal/core/pomodoro"
	"github.com/tasktide/tasktide/internal/core/stats"
	"github.com/tasktide/tasktide/internal/core/task"
	"github.com/tasktide/tasktide/pkg/randid"
)

// SourceState is the lifecycle of one dashboard data source.
type SourceState string

const (
	StateIdle        SourceState = "idle"
	StateSubscribing SourceState = "subscribing"
	StateReady       SourceState = "ready"
	StateError       SourceState = "error"
)

// Source pairs a state with the error that produced it, if any.
// A source in StateError keeps its last error until a retry or a
// successful snapshot moves it on.
type Source struct {
	State SourceState
	Err   error
}

// View is the full dashboard projection pushed to the sink on every
// change. Sources become ready independently, so a View can carry live
// stats while the quote is still loading.
type View struct {
	Tasks    Source
	Sessions Source
	Quote    Source

	Stats     stats.Derived
	QuoteText string
}

// Coordinator drives the dashboard: it subscribes the two live feeds,
// recomputes derived stats synchronously on every snapshot, fetches the
// quote once, and pushes a fresh View to the sink after each change.
//
// Stop releases both feed subscriptions exactly once; snapshots landing
// after Stop are discarded by the feeds and never reach the sink.
type Coordinator struct {
	tasks    *feed.Broker[task.Task]
	sessions *feed.Broker[pomodoro.Session]
	quotes   *QuoteService
	log      zerolog.Logger
	now      func() time.Time

	mu             sync.Mutex
	started        bool
	stopped        bool
	view           View
	latestTasks    []task.Task
	latestSessions []pomodoro.Session
	sink           func(View)
	subs           []*feed.Subscription
	upcomingLimit  int
}

// NewCoordinator creates a Coordinator over the given feeds.
func NewCoordinator(tasks *feed.Broker[task.Task], sessions *feed.Broker[pomodoro.Session], quotes *QuoteService, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		tasks:    tasks,
		sessions: sessions,
		quotes:   quotes,
		log:      log.With().Str("component", "coordinator").Logger(),
		now:      time.Now,
		view: View{
			Tasks:    Source{State: StateIdle},
			Sessions: Source{State: StateIdle},
			Quote:    Source{State: StateIdle},
		},
		upcomingLimit: stats.DefaultUpcomingLimit,
	}
}

// SetUpcomingLimit changes how many upcoming tasks the view carries.
// Applied on config reload; a running coordinator recomputes and pushes
// the adjusted view immediately.
func (c *Coordinator) SetUpcomingLimit(limit int) {
	if limit <= 0 {
		limit = stats.DefaultUpcomingLimit
	}

	c.mu.Lock()
	if limit == c.upcomingLimit {
		c.mu.Unlock()
		return
	}
	c.upcomingLimit = limit
	started := c.started
	if started {
		c.recomputeLocked()
	}
	c.mu.Unlock()

	if started {
		c.emit()
	}
}

// Start subscribes all sources for the owner and begins pushing Views
// to sink. It is a one-shot: a Coordinator is not restartable after
// Stop. Subscribe failures move the affected source straight to
// StateError; the other sources proceed regardless.
func (c *Coordinator) Start(ctx context.Context, ownerID string, sink func(View)) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.sink = sink
	c.view.Tasks = Source{State: StateSubscribing}
	c.view.Sessions = Source{State: StateSubscribing}
	c.view.Quote = Source{State: StateSubscribing}
	c.mu.Unlock()
	c.emit()

	ctx = logging.WithOwnerID(ctx, ownerID)
	ctx = logging.WithViewID(ctx, randid.Generate(6))

	taskSub, err := c.tasks.Subscribe(ctx, ownerID, feed.Handler[task.Task]{
		OnSnapshot: c.onTasks,
		OnError:    func(err error) { c.onSourceError(&c.view.Tasks, err) },
	})
	if err != nil {
		c.onSourceError(&c.view.Tasks, err)
	} else {
		c.addSub(taskSub)
	}

	sessSub, err := c.sessions.Subscribe(ctx, ownerID, feed.Handler[pomodoro.Session]{
		OnSnapshot: c.onSessions,
		OnError:    func(err error) { c.onSourceError(&c.view.Sessions, err) },
	})
	if err != nil {
		c.onSourceError(&c.view.Sessions, err)
	} else {
		c.addSub(sessSub)
	}

	go c.fetchQuote(ctx)
}

// addSub tracks a subscription for teardown. If Stop already ran, the
// subscription is released immediately instead of leaking.
func (c *Coordinator) addSub(sub *feed.Subscription) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
}

// Stop tears the dashboard down, releasing every subscription exactly
// once. Safe to call more than once.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// RetryQuote refetches the quote after a failed load. Live feeds retry
// by resubscribing instead; this hook exists because the quote is a
// one-shot fetch with no invalidation source.
func (c *Coordinator) RetryQuote(ctx context.Context) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.view.Quote = Source{State: StateSubscribing}
	c.mu.Unlock()
	c.emit()

	c.fetchQuote(ctx)
}

// Snapshot returns the current View.
func (c *Coordinator) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Coordinator) onTasks(items []task.Task) {
	c.mu.Lock()
	c.latestTasks = items
	c.view.Tasks = Source{State: StateReady}
	c.recomputeLocked()
	c.mu.Unlock()
	c.emit()
}

func (c *Coordinator) onSessions(items []pomodoro.Session) {
	c.mu.Lock()
	c.latestSessions = items
	c.view.Sessions = Source{State: StateReady}
	c.recomputeLocked()
	c.mu.Unlock()
	c.emit()
}

func (c *Coordinator) onSourceError(src *Source, err error) {
	c.log.Warn().Err(err).Msg("source failed")
	c.mu.Lock()
	*src = Source{State: StateError, Err: err}
	c.mu.Unlock()
	c.emit()
}

func (c *Coordinator) fetchQuote(ctx context.Context) {
	text, err := c.quotes.Get(ctx)

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.view.Quote = Source{State: StateError, Err: err}
	} else {
		c.view.Quote = Source{State: StateReady}
		c.view.QuoteText = text
	}
	c.mu.Unlock()
	c.emit()
}

// recomputeLocked rebuilds derived stats from the latest snapshots.
// Must be called with c.mu held. Stats are a pure function of the
// snapshots, so recomputing on every delivery keeps the view exact.
func (c *Coordinator) recomputeLocked() {
	c.view.Stats = stats.Compute(c.latestTasks, c.latestSessions, c.now(), c.upcomingLimit)
}

func (c *Coordinator) emit() {
	c.mu.Lock()
	sink := c.sink
	view := c.view
	stopped := c.stopped
	c.mu.Unlock()

	if sink != nil && !stopped {
		sink(view)
	}
}
