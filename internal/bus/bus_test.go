package bus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, s *Subscription) Event {
	t.Helper()
	select {
	case e := <-s.C:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertSilent(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case e := <-s.C:
		t.Fatalf("unexpected event %+v", e)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestPublishReachesMatchingSubscribers(t *testing.T) {
	b := New()
	orders := b.Subscribe(Filter{Topics: []Topic{TopicOrderPlaced}})
	defer orders.Close()
	sessions := b.Subscribe(Filter{Topics: []Topic{TopicSessionChanged}})
	defer sessions.Close()

	b.Publish(Event{Topic: TopicOrderPlaced, Scope: "user:1"})

	e := receive(t, orders)
	assert.Equal(t, TopicOrderPlaced, e.Topic)
	assert.Equal(t, b.Origin(), e.Origin)
	assert.False(t, e.At.IsZero())
	assertSilent(t, sessions)
}

func TestScopeFilter(t *testing.T) {
	b := New()
	mine := b.Subscribe(Filter{Scopes: []string{"user:1"}})
	defer mine.Close()

	b.Publish(Event{Topic: TopicInvalidated, Scope: "user:2"})
	assertSilent(t, mine)

	b.Publish(Event{Topic: TopicInvalidated, Scope: "user:1"})
	assert.Equal(t, "user:1", receive(t, mine).Scope)

	// unscoped events are broadcast
	b.Publish(Event{Topic: TopicInvalidated})
	assert.Equal(t, "", receive(t, mine).Scope)
}

func TestFullSubscriberDoesNotBlockPublisher(t *testing.T) {
	b := New(WithBuffer(1))
	s := b.Subscribe(Filter{})
	defer s.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(Event{Topic: TopicOrderPlaced})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	receive(t, s)
}

func TestCloseIsIdempotent(t *testing.T) {
	b := New()
	s := b.Subscribe(Filter{})
	require.Equal(t, 1, b.Subscribers())
	s.Close()
	s.Close()
	assert.Equal(t, 0, b.Subscribers())

	_, ok := <-s.C
	assert.False(t, ok)
	b.Publish(Event{Topic: TopicOrderPlaced})
}

func TestForwardOnlySeesLocalPublishes(t *testing.T) {
	b := New()
	var forwarded []Event
	b.Forward(func(e Event) { forwarded = append(forwarded, e) })

	b.Publish(Event{Topic: TopicOrderPlaced})
	b.Deliver(Event{Topic: TopicOrderPlaced, Origin: "elsewhere"})

	require.Len(t, forwarded, 1)
	assert.Equal(t, b.Origin(), forwarded[0].Origin)
}

func TestRelayHandleSkipsOwnEvents(t *testing.T) {
	b := New(WithOrigin("replica-a"))
	r := &AMQPRelay{bus: b}
	s := b.Subscribe(Filter{})
	defer s.Close()

	own, _ := json.Marshal(Event{Topic: TopicInvalidated, Origin: "replica-a"})
	remote, _ := json.Marshal(Event{Topic: TopicInvalidated, Origin: "replica-b", Resource: "flowers"})

	r.handle(own)
	r.handle([]byte("{not json"))
	assertSilent(t, s)

	r.handle(remote)
	e := receive(t, s)
	assert.Equal(t, "replica-b", e.Origin)
	assert.Equal(t, "flowers", e.Resource)
}
