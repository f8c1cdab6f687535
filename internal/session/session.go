// Package session keeps the authenticated identity of each browser.
//
// The credentials (token, user id, username) live server-side in SQLite; the
// browser only carries an opaque session id inside a signed gorilla cookie,
// next to the flash notices.
package session

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/bus"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/store"
)

func init() {
	gob.Register(models.Notice{})
}

var (
	// ErrIncompleteSession is returned when a session is written without all
	// of token, user id and username.
	ErrIncompleteSession = errors.New("session: token, user id and username are all required")
	ErrNoSession         = errors.New("session: not logged in")
)

// Session is the authenticated identity for one browser. The zero value means
// logged out.
type Session struct {
	Token    string
	UserID   int64
	Username string
}

// Valid reports whether all three fields are present.
func (s Session) Valid() bool {
	return s.Token != "" && s.UserID > 0 && s.Username != ""
}

func (s Session) Authenticated() bool { return s.Valid() }

// Scope is the cache and bus scope for data private to this user.
func (s Session) Scope() string {
	if !s.Valid() {
		return ""
	}
	return UserScope(s.UserID)
}

func UserScope(id int64) string { return "user:" + strconv.FormatInt(id, 10) }

func BrowserScope(sid string) string { return "browser:" + sid }

const (
	CookieName = "flowerseal"
	sidKey     = "sid"

	// touchInterval limits how often a session's last use is written back.
	touchInterval = 5 * time.Minute
)

type Manager struct {
	Cookies *sessions.CookieStore
	Store   *store.Store
	Bus     *bus.Bus
	MaxAge  time.Duration
}

func NewManager(cookies *sessions.CookieStore, st *store.Store, b *bus.Bus, maxAge time.Duration) *Manager {
	return &Manager{Cookies: cookies, Store: st, Bus: b, MaxAge: maxAge}
}

func (m *Manager) cookie(r *http.Request) *sessions.Session {
	sess, err := m.Cookies.Get(r, CookieName)
	if err != nil {
		// A cookie signed with an old key decodes as a fresh session.
		slog.Debug("Discarding unreadable session cookie", "error", err)
	}
	return sess
}

// ID returns the browser session id, creating and saving one if the browser
// has none yet.
func (m *Manager) ID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := m.cookie(r)
	if sid, ok := sess.Values[sidKey].(string); ok && sid != "" {
		return sid, nil
	}
	sid := uuid.NewString()
	sess.Values[sidKey] = sid
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("save session cookie: %w", err)
	}
	return sid, nil
}

func (m *Manager) existingID(r *http.Request) string {
	sid, _ := m.cookie(r).Values[sidKey].(string)
	return sid
}

// Set stores s as the browser's session. The write is all-or-nothing: an
// incomplete session is rejected and nothing changes.
func (m *Manager) Set(w http.ResponseWriter, r *http.Request, s Session) error {
	if !s.Valid() {
		return ErrIncompleteSession
	}
	sid, err := m.ID(w, r)
	if err != nil {
		return err
	}
	row := store.SessionRow{
		ID:        sid,
		Token:     s.Token,
		UserID:    s.UserID,
		Username:  s.Username,
		UserAgent: r.UserAgent(),
	}
	if err := m.Store.SaveSession(r.Context(), row); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	m.publish(sid)
	return nil
}

// Current returns the browser's session or the zero Session.
func (m *Manager) Current(r *http.Request) Session {
	sid := m.existingID(r)
	if sid == "" {
		return Session{}
	}
	return m.Lookup(r.Context(), sid)
}

// Lookup resolves a browser session id to its session, or the zero Session.
func (m *Manager) Lookup(ctx context.Context, sid string) Session {
	row, err := m.Store.GetSession(ctx, sid)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("Failed to load session", "error", err)
		}
		return Session{}
	}
	s := Session{Token: row.Token, UserID: row.UserID, Username: row.Username}
	if !s.Valid() {
		return Session{}
	}
	if now := time.Now(); now.Sub(row.UpdatedAt) >= touchInterval {
		if err := m.Store.TouchSession(ctx, sid, now); err != nil {
			slog.Warn("Failed to record session use", "error", err)
		}
	}
	return s
}

// Clear removes the browser's session. Clearing an absent session is a no-op
// apart from the notification.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	sid := m.existingID(r)
	if sid == "" {
		return nil
	}
	if err := m.Store.DeleteSession(r.Context(), sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.publish(sid)
	return nil
}

func (m *Manager) publish(sid string) {
	if m.Bus == nil {
		return
	}
	m.Bus.Publish(bus.Event{Topic: bus.TopicSessionChanged, Scope: BrowserScope(sid)})
}

// Flash queues a notice for the next rendered page.
func (m *Manager) Flash(w http.ResponseWriter, r *http.Request, n models.Notice) {
	sess := m.cookie(r)
	sess.AddFlash(n)
	if err := sess.Save(r, w); err != nil {
		slog.Error("Failed to save flash", "error", err)
	}
}

// Flashes pops the pending notices.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []models.Notice {
	sess := m.cookie(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	var notices []models.Notice
	for _, f := range raw {
		if n, ok := f.(models.Notice); ok {
			notices = append(notices, n)
		}
	}
	if err := sess.Save(r, w); err != nil {
		slog.Error("Failed to save session after reading flashes", "error", err)
	}
	return notices
}

// Prune deletes sessions idle for longer than MaxAge and returns how many
// went together with the users that no longer have any session.
func (m *Manager) Prune(ctx context.Context) (int64, []int64, error) {
	if m.MaxAge <= 0 {
		return 0, nil, nil
	}
	return m.Store.PruneSessions(ctx, time.Now().Add(-m.MaxAge))
}

type ctxKey struct{}

type attached struct {
	session Session
	sid     string
}

// Attach resolves the current session once per request and stores it in the
// request context.
func (m *Manager) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := m.existingID(r)
		a := attached{sid: sid}
		if sid != "" {
			a.session = m.Lookup(r.Context(), sid)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, a)))
	})
}

// FromContext returns the session attached by Attach, or the zero Session.
func FromContext(ctx context.Context) Session {
	a, _ := ctx.Value(ctxKey{}).(attached)
	return a.session
}

// IDFromContext returns the browser session id attached by Attach.
func IDFromContext(ctx context.Context) string {
	a, _ := ctx.Value(ctxKey{}).(attached)
	return a.sid
}
