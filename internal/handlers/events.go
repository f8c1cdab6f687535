package handlers

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/bus"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

const defaultHeartbeat = 25 * time.Second

// Events streams re-rendered page sections while a page is open. The page
// picks what to follow with ?page=orders or ?page=cart.
func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := session.FromContext(ctx)
	sid := session.IDFromContext(ctx)
	if !s.Valid() || sid == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	page := r.URL.Query().Get("page")
	if page != "orders" && page != "cart" {
		http.Error(w, "unknown page", http.StatusBadRequest)
		return
	}

	stream, err := a.openStream(w)
	if err != nil {
		slog.Error("Failed to open event stream", "error", err)
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	scopes := []string{s.Scope(), session.BrowserScope(sid)}
	// The stream follows the user it was opened for. After a logout or a
	// switch to another account the sections fall back to the login prompt.
	gate := func() bool {
		cur := a.Sessions.Lookup(context.WithoutCancel(ctx), sid)
		return cur.Valid() && cur.UserID == s.UserID
	}
	data := map[string]interface{}{
		"Session":   s,
		"CsrfField": csrf.TemplateField(r),
	}
	slog.Debug("Event stream opened", "page", page, "user_id", s.UserID)
	defer slog.Debug("Event stream closed", "page", page, "user_id", s.UserID)

	switch page {
	case "orders":
		orders := resource.Mount(ctx, a.Cache, a.Bus, resource.Live[[]models.Order]{
			Key: ordersKey(s), Gate: gate, Load: a.loadOrders(s),
			Topics: []bus.Topic{bus.TopicOrderPlaced}, Scopes: scopes,
		})
		defer orders.Unmount()
		stats := resource.Mount(ctx, a.Cache, a.Bus, resource.Live[models.Stats]{
			Key: statsKey(s), Gate: gate, Load: a.loadStats(s),
			Topics: []bus.Topic{bus.TopicOrderPlaced}, Scopes: scopes,
		})
		defer stats.Unmount()

		render := func() error {
			data["Orders"] = orders.Current()
			data["Stats"] = stats.Current()
			return stream.send(a, "orders.html", "orders_live", data)
		}
		a.pump(ctx, stream, render, updates(orders.Updates()), updates(stats.Updates()))
	case "cart":
		cart := resource.Mount(ctx, a.Cache, a.Bus, resource.Live[models.CartLines]{
			Key: cartKey(s), Gate: gate, Load: a.loadCart(s), Scopes: scopes,
		})
		defer cart.Unmount()

		render := func() error {
			data["Cart"] = cart.Current()
			return stream.send(a, "cart.html", "cart_live", data)
		}
		a.pump(ctx, stream, render, updates(cart.Updates()))
	}
}

// updates reduces a view's update channel to "something settled", dropping
// the loading transitions the page already shows.
func updates[T any](in <-chan resource.Result[T]) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for res := range in {
			if res.Loading() {
				continue
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out
}

// pump renders whenever a view settles and keeps the connection alive until
// the client leaves or a write fails.
func (a *App) pump(ctx context.Context, s *eventStream, render func() error, sources ...<-chan struct{}) {
	heartbeat := a.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	merged := make(chan struct{}, 1)
	for _, src := range sources {
		go func() {
			for range src {
				select {
				case merged <- struct{}{}:
				default:
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.comment("ping"); err != nil {
				return
			}
		case <-merged:
			if err := render(); err != nil {
				slog.Debug("Event stream write failed", "error", err)
				return
			}
		}
	}
}

type eventStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func (a *App) openStream(w http.ResponseWriter) (*eventStream, error) {
	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return nil, err
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return nil, err
	}
	return &eventStream{w: w, rc: rc}, nil
}

// send renders block of page and writes it as one "render" event.
func (s *eventStream) send(a *App, page, block string, data map[string]interface{}) error {
	var buf bytes.Buffer
	if err := a.Templates.RenderBlock(&buf, page, block, data); err != nil {
		slog.Error("Failed to render live section", "template", page, "block", block, "error", err)
		return nil
	}
	var out bytes.Buffer
	out.WriteString("event: render\n")
	sc := bufio.NewScanner(&buf)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		out.WriteString("data: ")
		out.Write(sc.Bytes())
		out.WriteByte('\n')
	}
	out.WriteByte('\n')
	if _, err := out.WriteTo(s.w); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *eventStream) comment(text string) error {
	if _, err := s.w.Write([]byte(": " + text + "\n\n")); err != nil {
		return err
	}
	return s.rc.Flush()
}
