package resource

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/bus"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/metrics"
)

type entry struct {
	status  Status
	data    any
	err     error
	fetched time.Time
	gen     uint64
	stale   bool
}

type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	// gens counts invalidations of keys that are cached or loading; it is
	// dropped together with the entry.
	gens     map[Key]uint64
	inflight map[Key]int
	group    singleflight.Group

	ttl time.Duration
	bus *bus.Bus
	now func() time.Time
}

type Option func(*Cache)

// WithTTL bounds how long a ready entry is served; zero keeps entries until
// they are invalidated.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

// WithBus announces invalidations on b.
func WithBus(b *bus.Bus) Option {
	return func(c *Cache) { c.bus = b }
}

func NewCache(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[Key]*entry),
		gens:     make(map[Key]uint64),
		inflight: make(map[Key]int),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query describes one read. When Enabled is false the loader is never called
// and the result is idle.
type Query[T any] struct {
	Key     Key
	Enabled bool
	Load    func(ctx context.Context) (T, error)
}

// Fetch returns the cached value of q.Key when it is ready and fresh, and
// otherwise loads it. Concurrent fetches of the same key share one load; the
// load keeps running if a single waiting caller goes away.
func Fetch[T any](ctx context.Context, c *Cache, q Query[T]) Result[T] {
	if !q.Enabled {
		metrics.RecordFetch(q.Key.Name, "disabled")
		return Result[T]{Status: StatusIdle}
	}

	if v, ok := c.fresh(q.Key); ok {
		metrics.RecordFetch(q.Key.Name, "hit")
		data, _ := v.(T)
		return Result[T]{Status: StatusReady, Data: data}
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(q.Key.String(), func() (any, error) {
		gen := c.begin(q.Key)
		v, err := q.Load(loadCtx)
		c.settle(q.Key, gen, v, err)
		return v, err
	})

	select {
	case <-ctx.Done():
		return Result[T]{Status: StatusFailed, Err: ctx.Err()}
	case res := <-ch:
		switch {
		case res.Err != nil:
			metrics.RecordFetch(q.Key.Name, "error")
			return Result[T]{Status: StatusFailed, Err: res.Err}
		case res.Shared:
			metrics.RecordFetch(q.Key.Name, "coalesced")
		default:
			metrics.RecordFetch(q.Key.Name, "miss")
		}
		data, _ := res.Val.(T)
		return Result[T]{Status: StatusReady, Data: data}
	}
}

func (c *Cache) fresh(k Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok || e.status != StatusReady || e.stale {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.fetched) > c.ttl {
		return nil, false
	}
	return e.data, true
}

// begin marks k as loading and returns the generation the load belongs to.
func (c *Cache) begin(k Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{}
		c.entries[k] = e
	}
	e.status = StatusLoading
	c.inflight[k]++
	return c.gens[k]
}

// settle records the outcome of a load. A result older than what is stored
// is dropped; a result from before an invalidation is kept but marked stale so
// the next read loads again. A failure keeps the previous data internally.
// A stale result settling while a newer load runs leaves the entry loading.
func (c *Cache) settle(k Key, gen uint64, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.inflight[k] - 1
	if pending > 0 {
		c.inflight[k] = pending
	} else {
		delete(c.inflight, k)
	}

	e, ok := c.entries[k]
	if !ok {
		// Forgotten while loading.
		if pending <= 0 {
			delete(c.gens, k)
		}
		return
	}
	if gen < e.gen {
		if pending <= 0 && e.status == StatusLoading {
			e.status = settledStatus(e.err)
		}
		return
	}
	e.gen = gen
	e.stale = gen != c.gens[k]
	if err != nil {
		e.err = err
	} else {
		e.data = v
		e.err = nil
		e.fetched = c.now()
	}
	e.status = settledStatus(e.err)
	if pending > 0 && e.stale {
		e.status = StatusLoading
	}
}

func settledStatus(err error) Status {
	if err != nil {
		return StatusFailed
	}
	return StatusReady
}

// State reports the status of k without loading it.
func (c *Cache) State(k Key) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[k]; ok {
		return e.status
	}
	return StatusIdle
}

// Invalidate marks every entry covered by keys as stale and announces each key
// on the bus. The next read of a covered key loads fresh data.
func (c *Cache) Invalidate(keys ...Key) {
	for _, k := range keys {
		c.invalidate(k)
		if c.bus != nil {
			c.bus.Publish(bus.Event{
				Topic:    bus.TopicInvalidated,
				Scope:    k.Scope,
				Resource: k.Name,
				Param:    k.Param,
			})
		}
	}
}

func (c *Cache) invalidate(target Key) {
	c.mu.Lock()
	var covered []Key
	for k, e := range c.entries {
		if !k.Matches(target) {
			continue
		}
		e.stale = true
		c.gens[k]++
		covered = append(covered, k)
	}
	c.mu.Unlock()

	// Reads arriving after this point must not join a load that started
	// before the invalidation.
	c.group.Forget(target.String())
	for _, k := range covered {
		c.group.Forget(k.String())
	}
}

// Forget drops every entry of scope, e.g. when its user logs out or its last
// session expires. Public entries are never dropped this way. A load still
// running for a dropped key settles without storing its result.
func (c *Cache) Forget(scope string) {
	if scope == "" {
		return
	}
	c.mu.Lock()
	var dropped []Key
	for k := range c.entries {
		if k.Scope != scope {
			continue
		}
		delete(c.entries, k)
		if c.inflight[k] > 0 {
			c.gens[k]++
		} else {
			delete(c.gens, k)
		}
		dropped = append(dropped, k)
	}
	c.mu.Unlock()

	for _, k := range dropped {
		c.group.Forget(k.String())
	}
}

// Follow applies invalidations relayed from other processes until ctx ends.
func (c *Cache) Follow(ctx context.Context, b *bus.Bus) {
	sub := b.Subscribe(bus.Filter{Topics: []bus.Topic{bus.TopicInvalidated}})
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-sub.C:
				if !ok {
					return
				}
				if e.Origin == b.Origin() {
					continue
				}
				c.invalidate(Key{Scope: e.Scope, Name: e.Resource, Param: e.Param})
			}
		}
	}()
}
