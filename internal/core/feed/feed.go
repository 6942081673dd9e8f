// Package feed delivers live snapshots of an owner's collection to
// subscribed views.
//
// A Broker sits between a store and any number of subscriptions. Every
// invalidation triggers a full reload of the owner's collection and hands
// the complete ordered result to each matching subscriber: snapshots
// replace each other wholesale (latest wins), deltas are never delivered.
// Pending invalidations coalesce, so a burst of writes costs one reload.
//
// Each Subscribe returns exactly one Subscription handle and the caller
// must release it exactly once when the consuming view is torn down;
// anything else leaks the delivery goroutine.
package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tasktide/tasktide/internal/core/auth"
)

// Loader reads the full current collection for one owner, in the
// collection's stated order.
type Loader[T any] func(ctx context.Context, ownerID string) ([]T, error)

// Handler receives snapshots and load failures for one subscription.
// OnError is the side channel for a failing feed: the subscription stays
// registered and does not retry on its own — resubscribing is the
// caller's decision.
type Handler[T any] struct {
	OnSnapshot func([]T)
	OnError    func(error)
}

// Subscription is the cancellation handle returned by Subscribe.
type Subscription struct {
	mu     sync.Mutex
	closed bool
	once   sync.Once
	stop   chan struct{}
	remove func()
}

// Unsubscribe stops delivery and releases the subscription. It is
// idempotent. Once it returns, no further handler invocation fires, even
// for a reload already in flight. Must not be called from inside the
// subscription's own handler.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stop)
		s.remove()
	})
}

type subscriber[T any] struct {
	ownerID string
	wake    chan struct{}
}

// Broker fans snapshot reloads out to subscriptions of one collection.
type Broker[T any] struct {
	loader Loader[T]
	log    zerolog.Logger

	mu   sync.Mutex
	subs map[*Subscription]*subscriber[T]
}

// NewBroker creates a Broker over the given loader.
func NewBroker[T any](loader Loader[T], log zerolog.Logger) *Broker[T] {
	return &Broker[T]{
		loader: loader,
		log:    log,
		subs:   make(map[*Subscription]*subscriber[T]),
	}
}

// Subscribe registers a handler for the owner's collection and returns
// its cancellation handle. It fails fast with auth.ErrUnauthenticated
// when ownerID is empty — no subscription is established. The handler
// receives the current snapshot at least once shortly after Subscribe
// returns, and again after every invalidation.
//
// Cancelling ctx tears the subscription down the same way Unsubscribe
// does.
func (b *Broker[T]) Subscribe(ctx context.Context, ownerID string, h Handler[T]) (*Subscription, error) {
	if ownerID == "" {
		return nil, auth.ErrUnauthenticated
	}

	sub := &Subscription{stop: make(chan struct{})}
	entry := &subscriber[T]{
		ownerID: ownerID,
		wake:    make(chan struct{}, 1),
	}
	sub.remove = func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.subs[sub] = entry
	b.mu.Unlock()

	// Prime the initial snapshot.
	entry.wake <- struct{}{}

	go b.deliver(ctx, ownerID, sub, entry, h)

	return sub, nil
}

// Invalidate schedules a reload for every subscription on the owner's
// collection. Safe to call from any goroutine; invalidations arriving
// while a reload is pending coalesce into it.
func (b *Broker[T]) Invalidate(ownerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, entry := range b.subs {
		if entry.ownerID != ownerID {
			continue
		}
		select {
		case entry.wake <- struct{}{}:
		default:
		}
	}
}

// deliver serializes snapshot delivery for one subscription. Reloads run
// in wake order, so a subscriber observes snapshots in commit order for
// its own collection; nothing is guaranteed across two different brokers.
func (b *Broker[T]) deliver(ctx context.Context, ownerID string, sub *Subscription, entry *subscriber[T], h Handler[T]) {
	for {
		select {
		case <-sub.stop:
			return
		case <-ctx.Done():
			sub.Unsubscribe()
			return
		case <-entry.wake:
			records, err := b.loader(ctx, ownerID)

			// The closed check and the callback share the subscription
			// lock: once Unsubscribe has returned, a reload that was
			// already in flight is discarded here instead of reaching
			// the handler.
			sub.mu.Lock()
			if sub.closed {
				sub.mu.Unlock()
				return
			}
			if err != nil {
				b.log.Error().Err(err).Str("owner_id", ownerID).Msg("snapshot reload failed")
				if h.OnError != nil {
					h.OnError(err)
				}
			} else if h.OnSnapshot != nil {
				h.OnSnapshot(records)
			}
			sub.mu.Unlock()
		}
	}
}
