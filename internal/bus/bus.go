// Package bus is the in-process notification bus used to tell mounted pages
// that something they display has changed.
package bus

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/metrics"
)

type Topic string

const (
	// TopicSessionChanged fires whenever a session is set or cleared.
	TopicSessionChanged Topic = "session.changed"
	// TopicOrderPlaced fires after an order was created.
	TopicOrderPlaced Topic = "order.placed"
	// TopicInvalidated fires for every cache entry that was invalidated.
	TopicInvalidated Topic = "resource.invalidated"
)

// Event is what subscribers receive. Scope narrows the audience: an empty
// scope reaches everyone listening on the topic.
type Event struct {
	Topic    Topic     `json:"topic"`
	Scope    string    `json:"scope,omitempty"`
	Resource string    `json:"resource,omitempty"`
	Param    string    `json:"param,omitempty"`
	Origin   string    `json:"origin,omitempty"`
	At       time.Time `json:"at"`
}

// Filter selects events for a subscription. Empty Topics means every topic,
// empty Scopes means every scope.
type Filter struct {
	Topics []Topic
	Scopes []string
}

func (f Filter) Match(e Event) bool {
	if len(f.Topics) > 0 && !slices.Contains(f.Topics, e.Topic) {
		return false
	}
	if len(f.Scopes) > 0 && e.Scope != "" && !slices.Contains(f.Scopes, e.Scope) {
		return false
	}
	return true
}

const defaultBuffer = 16

type Bus struct {
	mu         sync.RWMutex
	subs       map[uint64]*Subscription
	next       uint64
	forwarders []func(Event)
	origin     string
	buffer     int
}

type Option func(*Bus)

// WithBuffer sets the per-subscriber channel size.
func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithOrigin names this process on relayed events.
func WithOrigin(origin string) Option {
	return func(b *Bus) { b.origin = origin }
}

func New(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[uint64]*Subscription),
		origin: uuid.NewString(),
		buffer: defaultBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Origin() string { return b.origin }

// Subscribe registers interest in events matching f. The caller must Close
// the subscription when done.
func (b *Bus) Subscribe(f Filter) *Subscription {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	s := &Subscription{C: ch, ch: ch, id: b.next, filter: f, bus: b}
	b.subs[s.id] = s
	return s
}

// Publish delivers e to local subscribers and hands it to forwarders.
// It never blocks: a subscriber whose buffer is full misses the event.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	if e.Origin == "" {
		e.Origin = b.origin
	}
	b.Deliver(e)

	b.mu.RLock()
	forwarders := b.forwarders
	b.mu.RUnlock()
	for _, fn := range forwarders {
		fn(e)
	}
}

// Deliver hands e to local subscribers only. Relays use it for events that
// arrived from another process.
func (b *Bus) Deliver(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if !s.filter.Match(e) {
			continue
		}
		select {
		case s.ch <- e:
			metrics.RecordBusEvent(string(e.Topic), true)
		default:
			metrics.RecordBusEvent(string(e.Topic), false)
			slog.Warn("Bus subscriber is full, dropping event", "topic", e.Topic, "scope", e.Scope)
		}
	}
}

// Forward registers fn to receive every locally published event.
func (b *Bus) Forward(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forwarders = append(b.forwarders, fn)
}

// Subscribers reports how many subscriptions are open.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

type Subscription struct {
	C <-chan Event

	ch     chan Event
	id     uint64
	filter Filter
	bus    *Bus
	once   sync.Once
}

// Close removes the subscription and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		close(s.ch)
		s.bus.mu.Unlock()
	})
}
