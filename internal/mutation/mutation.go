// Package mutation runs writes against the remote API and keeps the read
// cache in step with them.
package mutation

import (
	"context"
	"log/slog"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/bus"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/metrics"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
)

// Mutation declares what a write affects and what the user is told.
type Mutation struct {
	Name string
	// Invalidates lists the cached reads that must reload after success.
	Invalidates []resource.Key
	// Publish is sent on the bus after success.
	Publish []bus.Event
	Success string
	// Fallback is shown when a failure carries no message of its own.
	Fallback string
	Redirect string
}

// Outcome is the settled result of a mutation. Notice is the single message
// to show; Redirect is empty on failure so the caller can re-render the form
// with the submitted input.
type Outcome struct {
	Err      error
	Notice   models.Notice
	Redirect string
}

func (o Outcome) OK() bool { return o.Err == nil }

// Unauthorized reports whether the server rejected the session's token.
func (o Outcome) Unauthorized() bool { return apiclient.IsTokenRejected(o.Err) }

type Executor struct {
	Cache *resource.Cache
	Bus   *bus.Bus
}

func NewExecutor(c *resource.Cache, b *bus.Bus) *Executor {
	return &Executor{Cache: c, Bus: b}
}

// Run calls fn once. A failed write is never retried and leaves the cache
// untouched.
func (e *Executor) Run(ctx context.Context, m Mutation, fn func(ctx context.Context) error) Outcome {
	if err := fn(ctx); err != nil {
		metrics.RecordMutation(m.Name, false)
		slog.Warn("Mutation failed", "mutation", m.Name, "kind", apiclient.KindOf(err), "error", err)
		return Outcome{
			Err:    err,
			Notice: models.Failure(apiclient.MessageOf(err, m.Fallback)),
		}
	}

	metrics.RecordMutation(m.Name, true)
	if e.Cache != nil && len(m.Invalidates) > 0 {
		e.Cache.Invalidate(m.Invalidates...)
	}
	if e.Bus != nil {
		for _, ev := range m.Publish {
			e.Bus.Publish(ev)
		}
	}
	slog.Debug("Mutation succeeded", "mutation", m.Name)

	out := Outcome{Redirect: m.Redirect}
	if m.Success != "" {
		out.Notice = models.Success(m.Success)
	}
	return out
}
