package resource

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/bus"
)

type counter struct {
	calls atomic.Int32
}

func (c *counter) loader(value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		c.calls.Add(1)
		return value, nil
	}
}

func TestDisabledQueryNeverLoads(t *testing.T) {
	c := NewCache()
	var n counter
	res := Fetch(context.Background(), c, Query[string]{Key: Private("", "cart"), Enabled: false, Load: n.loader("x")})

	assert.True(t, res.Idle())
	assert.Zero(t, n.calls.Load())
	assert.Equal(t, StatusIdle, c.State(Private("", "cart")))
}

func TestReadyEntryIsServedFromCache(t *testing.T) {
	c := NewCache()
	var n counter
	q := Query[string]{Key: Public("flowers"), Enabled: true, Load: n.loader("roses")}

	first := Fetch(context.Background(), c, q)
	second := Fetch(context.Background(), c, q)

	require.True(t, first.Ready())
	assert.Equal(t, "roses", second.Data)
	assert.Equal(t, int32(1), n.calls.Load())
	assert.Equal(t, StatusReady, c.State(q.Key))
}

func TestConcurrentReadsShareOneLoad(t *testing.T) {
	c := NewCache()
	var calls atomic.Int32
	release := make(chan struct{})
	q := Query[int]{Key: Public("flowers"), Enabled: true, Load: func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}}

	var wg sync.WaitGroup
	results := make([]Result[int], 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Fetch(context.Background(), c, q)
		}(i)
	}
	// let the goroutines join the in-flight load
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, 42, r.Data)
	}
}

func TestFailureIsReportedAndRetried(t *testing.T) {
	c := NewCache()
	boom := errors.New("boom")
	fail := true
	q := Query[string]{Key: Public("care_tips"), Enabled: true, Load: func(context.Context) (string, error) {
		if fail {
			return "", boom
		}
		return "tips", nil
	}}

	res := Fetch(context.Background(), c, q)
	assert.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, StatusFailed, c.State(q.Key))

	fail = false
	res = Fetch(context.Background(), c, q)
	assert.True(t, res.Ready())
	assert.Equal(t, "tips", res.Data)
}

func TestInvalidateForcesReloadAndPublishes(t *testing.T) {
	b := bus.New()
	sub := b.Subscribe(bus.Filter{Topics: []bus.Topic{bus.TopicInvalidated}})
	defer sub.Close()

	c := NewCache(WithBus(b))
	var n counter
	key := Private("user:1", "cart")
	q := Query[string]{Key: key, Enabled: true, Load: n.loader("lines")}

	Fetch(context.Background(), c, q)
	c.Invalidate(key)
	Fetch(context.Background(), c, q)

	assert.Equal(t, int32(2), n.calls.Load())
	select {
	case e := <-sub.C:
		assert.Equal(t, "user:1", e.Scope)
		assert.Equal(t, "cart", e.Resource)
	case <-time.After(time.Second):
		t.Fatal("no invalidation event")
	}
}

func TestInvalidateWithoutParamCoversAllParams(t *testing.T) {
	c := NewCache()
	var n counter
	base := Private("user:1", "canComment")
	for _, p := range []string{"1", "2"} {
		Fetch(context.Background(), c, Query[string]{Key: base.With(p), Enabled: true, Load: n.loader(p)})
	}
	other := Private("user:2", "canComment").With("1")
	Fetch(context.Background(), c, Query[string]{Key: other, Enabled: true, Load: n.loader("x")})
	require.Equal(t, int32(3), n.calls.Load())

	c.Invalidate(base)

	for _, p := range []string{"1", "2"} {
		Fetch(context.Background(), c, Query[string]{Key: base.With(p), Enabled: true, Load: n.loader(p)})
	}
	Fetch(context.Background(), c, Query[string]{Key: other, Enabled: true, Load: n.loader("x")})
	assert.Equal(t, int32(5), n.calls.Load())
}

func TestInvalidationDuringLoadLeavesEntryStale(t *testing.T) {
	c := NewCache()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	key := Private("user:1", "orders")
	q := Query[int]{Key: key, Enabled: true, Load: func(context.Context) (int, error) {
		n := calls.Add(1)
		if n == 1 {
			close(started)
			<-release
		}
		return int(n), nil
	}}

	done := make(chan Result[int])
	go func() { done <- Fetch(context.Background(), c, q) }()
	<-started
	c.Invalidate(key)
	close(release)
	assert.Equal(t, 1, (<-done).Data)

	res := Fetch(context.Background(), c, q)
	assert.Equal(t, 2, res.Data)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTTLExpiry(t *testing.T) {
	c := NewCache(WithTTL(time.Minute))
	now := time.Now()
	c.now = func() time.Time { return now }
	var n counter
	q := Query[string]{Key: Public("flowers"), Enabled: true, Load: n.loader("x")}

	Fetch(context.Background(), c, q)
	now = now.Add(30 * time.Second)
	Fetch(context.Background(), c, q)
	assert.Equal(t, int32(1), n.calls.Load())

	now = now.Add(time.Minute)
	Fetch(context.Background(), c, q)
	assert.Equal(t, int32(2), n.calls.Load())
}

func TestCallerCancellationDoesNotAbortSharedLoad(t *testing.T) {
	c := NewCache()
	release := make(chan struct{})
	q := Query[string]{Key: Public("flowers"), Enabled: true, Load: func(ctx context.Context) (string, error) {
		<-release
		return "done", ctx.Err()
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Fetch(ctx, c, q)
	assert.True(t, res.Failed())

	close(release)
	assert.Eventually(t, func() bool { return c.State(q.Key) == StatusReady }, time.Second, 10*time.Millisecond)
}

func TestForgetDropsScope(t *testing.T) {
	c := NewCache()
	var n counter
	q := Query[string]{Key: Private("user:1", "cart"), Enabled: true, Load: n.loader("x")}
	Fetch(context.Background(), c, q)

	c.Forget("user:1")
	assert.Equal(t, StatusIdle, c.State(q.Key))
	Fetch(context.Background(), c, q)
	assert.Equal(t, int32(2), n.calls.Load())
}

func TestFollowAppliesRemoteInvalidations(t *testing.T) {
	b := bus.New()
	c := NewCache(WithBus(b))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Follow(ctx, b)

	var n counter
	q := Query[string]{Key: Public("flowers"), Enabled: true, Load: n.loader("x")}
	Fetch(context.Background(), c, q)

	b.Deliver(bus.Event{Topic: bus.TopicInvalidated, Resource: "flowers", Origin: "other-replica"})
	assert.Eventually(t, func() bool {
		Fetch(context.Background(), c, q)
		return n.calls.Load() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestKeyMatches(t *testing.T) {
	k := Private("user:1", "comments").With("7")
	assert.True(t, k.Matches(Private("user:1", "comments")))
	assert.True(t, k.Matches(Private("user:1", "comments").With("7")))
	assert.False(t, k.Matches(Private("user:1", "comments").With("8")))
	assert.False(t, k.Matches(Private("user:2", "comments")))
	assert.False(t, k.Matches(Public("comments")))
}

func sizes(c *Cache) (entries, gens int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), len(c.gens)
}

func TestForgetReleasesScopes(t *testing.T) {
	c := NewCache()
	var n counter
	for i := range 100 {
		scope := "user:" + strconv.Itoa(i)
		for _, name := range []string{"cart", "orders", "stats"} {
			k := Private(scope, name)
			Fetch(context.Background(), c, Query[string]{Key: k, Enabled: true, Load: n.loader("x")})
			c.Invalidate(k)
		}
		// Never read, so nothing is recorded for it.
		c.Invalidate(Private(scope, "canComment").With("7"))
	}
	entries, gens := sizes(c)
	assert.Equal(t, 300, entries)
	assert.Equal(t, 300, gens)

	for i := range 100 {
		c.Forget("user:" + strconv.Itoa(i))
	}
	entries, gens = sizes(c)
	assert.Zero(t, entries)
	assert.Zero(t, gens)
}

func TestForgetDuringLoadDropsResult(t *testing.T) {
	c := NewCache()
	started := make(chan struct{})
	release := make(chan struct{})
	key := Private("user:1", "cart")
	q := Query[string]{Key: key, Enabled: true, Load: func(context.Context) (string, error) {
		close(started)
		<-release
		return "old", nil
	}}

	done := make(chan Result[string])
	go func() { done <- Fetch(context.Background(), c, q) }()
	<-started
	c.Forget("user:1")
	_, gens := sizes(c)
	assert.Equal(t, 1, gens, "kept until the running load settles")

	close(release)
	<-done
	assert.Equal(t, StatusIdle, c.State(key))
	entries, gens := sizes(c)
	assert.Zero(t, entries)
	assert.Zero(t, gens)
}

func TestStaleResultWhileNewerLoadRuns(t *testing.T) {
	c := NewCache()
	key := Private("user:1", "orders")
	var calls atomic.Int32
	started := []chan struct{}{make(chan struct{}), make(chan struct{})}
	release := []chan struct{}{make(chan struct{}), make(chan struct{})}
	q := Query[int]{Key: key, Enabled: true, Load: func(context.Context) (int, error) {
		n := int(calls.Add(1))
		close(started[n-1])
		<-release[n-1]
		return n, nil
	}}

	first := make(chan Result[int])
	go func() { first <- Fetch(context.Background(), c, q) }()
	<-started[0]
	c.Invalidate(key)

	second := make(chan Result[int])
	go func() { second <- Fetch(context.Background(), c, q) }()
	<-started[1]

	close(release[0])
	assert.Equal(t, 1, (<-first).Data)
	assert.Equal(t, StatusLoading, c.State(key))

	close(release[1])
	assert.Equal(t, 2, (<-second).Data)
	assert.Equal(t, StatusReady, c.State(key))

	res := Fetch(context.Background(), c, q)
	assert.Equal(t, 2, res.Data)
	assert.Equal(t, int32(2), calls.Load())
}
