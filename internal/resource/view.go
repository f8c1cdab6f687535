package resource

import (
	"context"
	"slices"
	"sync"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/bus"
)

// Live describes a mounted read: a query that stays subscribed and reloads
// when its data is invalidated, when one of Topics fires, or when the session
// changes.
type Live[T any] struct {
	Key Key
	// Gate is re-evaluated before every load; nil means always enabled.
	Gate func() bool
	Load func(ctx context.Context) (T, error)
	// Topics force a reload even when the cached entry is still fresh.
	Topics []bus.Topic
	// Scopes limit which scoped events reach the view, typically the user
	// and browser scopes of the viewer.
	Scopes []string
}

// View is a mounted Live query. Every state change is sent on Updates.
type View[T any] struct {
	cache *Cache
	live  Live[T]

	updates chan Result[T]
	refetch chan struct{}
	sub     *bus.Subscription
	cancel  context.CancelFunc
	done    chan struct{}

	mu      sync.Mutex
	current Result[T]
}

const viewBuffer = 8

// Mount starts the view and performs the initial load in the background.
// Call Unmount when the page goes away.
func Mount[T any](ctx context.Context, c *Cache, b *bus.Bus, l Live[T]) *View[T] {
	ctx, cancel := context.WithCancel(ctx)
	topics := append([]bus.Topic{bus.TopicInvalidated, bus.TopicSessionChanged}, l.Topics...)
	v := &View[T]{
		cache:   c,
		live:    l,
		updates: make(chan Result[T], viewBuffer),
		refetch: make(chan struct{}, 1),
		sub:     b.Subscribe(bus.Filter{Topics: topics, Scopes: l.Scopes}),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go v.run(ctx)
	return v
}

func (v *View[T]) run(ctx context.Context) {
	defer close(v.done)
	defer close(v.updates)
	defer v.sub.Close()

	v.load(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-v.refetch:
			v.cache.invalidate(v.live.Key)
			v.load(ctx)
		case e, ok := <-v.sub.C:
			if !ok {
				return
			}
			switch {
			case e.Topic == bus.TopicInvalidated:
				target := Key{Scope: e.Scope, Name: e.Resource, Param: e.Param}
				if v.live.Key.Matches(target) {
					v.load(ctx)
				}
			case e.Topic == bus.TopicSessionChanged:
				v.load(ctx)
			case slices.Contains(v.live.Topics, e.Topic):
				v.cache.invalidate(v.live.Key)
				v.load(ctx)
			}
		}
	}
}

func (v *View[T]) load(ctx context.Context) {
	if v.live.Gate != nil && !v.live.Gate() {
		v.emit(Result[T]{Status: StatusIdle})
		return
	}
	v.emit(Result[T]{Status: StatusLoading})
	res := Fetch(ctx, v.cache, Query[T]{Key: v.live.Key, Enabled: true, Load: v.live.Load})
	if ctx.Err() != nil {
		return
	}
	v.emit(res)
}

// emit records r and sends it, discarding the oldest pending update if the
// consumer is behind.
func (v *View[T]) emit(r Result[T]) {
	v.mu.Lock()
	v.current = r
	v.mu.Unlock()
	for {
		select {
		case v.updates <- r:
			return
		default:
		}
		select {
		case <-v.updates:
		default:
		}
	}
}

// Updates yields every state transition until the view is unmounted.
func (v *View[T]) Updates() <-chan Result[T] { return v.updates }

// Current returns the latest state.
func (v *View[T]) Current() Result[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Refetch reloads regardless of freshness, e.g. a retry after a failure.
func (v *View[T]) Refetch() {
	select {
	case v.refetch <- struct{}{}:
	default:
	}
}

// Unmount stops the view and waits for it to finish.
func (v *View[T]) Unmount() {
	v.cancel()
	<-v.done
}
