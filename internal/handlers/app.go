package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/bus"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/metrics"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/models"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/mutation"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
)

// App holds what every page needs.
type App struct {
	API       *apiclient.Client
	Cache     *resource.Cache
	Bus       *bus.Bus
	Exec      *mutation.Executor
	Sessions  *session.Manager
	Templates *TemplateCache
	Emails    *apiclient.EmailPolicy
	Images    *apiclient.ImageHost
	Limiter   *RateLimiter

	ImageMaxWidth uint
	// Heartbeat is the interval of keep-alive comments on event streams.
	Heartbeat time.Duration
}

// Routes registers every page and wraps the mux so handlers can read the
// current session from the request context.
func (a *App) Routes(static http.Handler) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, metrics.Instrument(pattern, h))
	}
	limit := func(h http.HandlerFunc) http.HandlerFunc {
		if a.Limiter == nil {
			return h
		}
		return a.Limiter.Middleware(h)
	}

	if static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static", static))
	}
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", a.Health)

	// Catalogue
	handle("GET /{$}", a.Home)
	handle("GET /flowers/{id}", a.FlowerDetail)
	handle("POST /flowers/{id}/comments", a.AddComment)
	handle("POST /comments/{id}/edit", a.EditComment)
	handle("POST /comments/{id}/delete", a.DeleteComment)
	handle("POST /flowers/{id}/order", a.PlaceOrder)
	handle("POST /flowers/{id}/pay", a.Pay)

	// Cart and orders
	handle("GET /cart", a.Cart)
	handle("POST /cart", a.AddToCart)
	handle("POST /cart/{id}/remove", a.RemoveFromCart)
	handle("GET /orders", a.OrderHistory)
	handle("GET /events", a.Events)

	// Account
	handle("GET /login", a.LoginGet)
	handle("POST /login", limit(a.LoginPost))
	handle("POST /logout", a.Logout)
	handle("GET /register", a.RegisterGet)
	handle("POST /register", limit(a.RegisterPost))
	handle("GET /otp", a.OTPGet)
	handle("POST /otp", limit(a.OTPPost))
	handle("POST /otp/resend", limit(a.ResendOTP))
	handle("GET /password-reset", a.PasswordResetGet)
	handle("POST /password-reset", limit(a.PasswordResetPost))
	handle("GET /reset-password/{uid}/{token}", a.ResetPasswordGet)
	handle("POST /reset-password/{uid}/{token}", limit(a.ResetPasswordPost))
	handle("GET /profile", a.Profile)
	handle("POST /profile", a.UpdateProfile)
	handle("GET /contact", a.ContactGet)
	handle("POST /contact", limit(a.ContactPost))

	// Admin
	handle("GET /admin", a.RequireAdmin(a.Dashboard))
	handle("GET /admin/users", a.RequireAdmin(a.Users))
	handle("GET /admin/flowers", a.RequireAdmin(a.AdminFlowers))
	handle("GET /admin/flowers/new", a.RequireAdmin(a.NewFlowerForm))
	handle("POST /admin/flowers", a.RequireAdmin(a.CreateFlower))
	handle("GET /admin/flowers/{id}/edit", a.RequireAdmin(a.EditFlowerForm))
	handle("POST /admin/flowers/{id}", a.RequireAdmin(a.UpdateFlower))
	handle("POST /admin/flowers/{id}/delete", a.RequireAdmin(a.DeleteFlower))

	handle("/", a.NotFound)

	return a.Sessions.Attach(mux)
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.Sessions.Store.DB.PingContext(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}

// PruneSessions removes expired sessions and drops the cached data of users
// left without one.
func (a *App) PruneSessions(ctx context.Context) (int64, error) {
	n, gone, err := a.Sessions.Prune(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range gone {
		a.Cache.Forget(session.UserScope(id))
	}
	return n, nil
}

// page returns the template data every layout needs.
func (a *App) page(w http.ResponseWriter, r *http.Request, title string) map[string]interface{} {
	s := session.FromContext(r.Context())
	return map[string]interface{}{
		"Title":     title,
		"Session":   s,
		"IsAdmin":   a.isAdmin(r.Context(), s),
		"Flashes":   a.Sessions.Flashes(w, r),
		"CsrfField": csrf.TemplateField(r),
		"Path":      r.URL.Path,
	}
}

// notice adds n to the notices rendered with the current page.
func notice(data map[string]interface{}, n models.Notice) {
	flashes, _ := data["Flashes"].([]models.Notice)
	data["Flashes"] = append(flashes, n)
}

func (a *App) render(w http.ResponseWriter, status int, name string, data map[string]interface{}) {
	if err := a.Templates.Render(w, status, name, data); err != nil {
		slog.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// redirect flashes n (when it has a message) and sends the browser to url.
func (a *App) redirect(w http.ResponseWriter, r *http.Request, url string, n models.Notice) {
	if n.Message != "" {
		a.Sessions.Flash(w, r, n)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// settle turns a mutation outcome into a response: the outcome's redirect on
// success, back on failure, and the login page when the token was rejected.
func (a *App) settle(w http.ResponseWriter, r *http.Request, out mutation.Outcome, back string) {
	switch {
	case out.Unauthorized():
		a.expire(w, r)
	case out.OK():
		a.redirect(w, r, out.Redirect, out.Notice)
	default:
		a.redirect(w, r, back, out.Notice)
	}
}

// expire drops a session the server no longer accepts.
func (a *App) expire(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	slog.Info("Session rejected by API, logging out", "user_id", s.UserID)
	if err := a.Sessions.Clear(w, r); err != nil {
		slog.Error("Failed to clear session", "error", err)
	}
	a.Cache.Forget(s.Scope())
	a.redirect(w, r, "/login", models.Failure("Your session has expired. Please log in again."))
}

// rejected reports whether any of errs means the token is no longer valid,
// in which case the browser has already been sent to the login page.
func (a *App) rejected(w http.ResponseWriter, r *http.Request, errs ...error) bool {
	for _, err := range errs {
		if apiclient.IsTokenRejected(err) {
			a.expire(w, r)
			return true
		}
	}
	return false
}

// requireSession is used by actions that make no sense logged out.
func (a *App) requireSession(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	s := session.FromContext(r.Context())
	if !s.Valid() {
		a.redirect(w, r, "/login", models.Failure("You need to log in first!"))
		return s, false
	}
	return s, true
}

// RequireAdmin ensures the user is logged in and the API reports them as an admin.
func (a *App) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := a.requireSession(w, r)
		if !ok {
			return
		}
		if !a.isAdmin(r.Context(), s) {
			slog.Warn("Non-admin tried to open admin page", "user_id", s.UserID, "path", r.URL.Path)
			a.redirect(w, r, "/", models.Failure("Only admins can access this page."))
			return
		}
		next(w, r)
	}
}

func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	data := a.page(w, r, "Not found")
	a.render(w, http.StatusNotFound, "not_found.html", data)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func formID(r *http.Request, name string) int64 {
	id, err := strconv.ParseInt(r.FormValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
