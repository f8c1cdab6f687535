package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/bus"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/config"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/handlers"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/mutation"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/resource"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/session"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/store"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/web"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logger(os.Stdout))

	// Cancelled on SIGINT/SIGTERM; open event streams end with it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Init DB
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// 3. Notification bus and resource cache
	events := bus.New()
	if cfg.RabbitMQURL != "" {
		relay, err := bus.DialRelay(cfg.RabbitMQURL, cfg.BusExchange, events)
		if err != nil {
			slog.Error("Failed to connect bus relay", "error", err)
			os.Exit(1)
		}
		defer relay.Close()
		if err := relay.Start(ctx); err != nil {
			slog.Error("Failed to start bus relay", "error", err)
			os.Exit(1)
		}
		slog.Info("Bus relay started", "exchange", cfg.BusExchange)
	}

	cache := resource.NewCache(resource.WithTTL(cfg.CacheTTL), resource.WithBus(events))
	cache.Follow(ctx, events)

	api, err := apiclient.New(cfg.APIBaseURL, apiclient.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		slog.Error("Failed to create API client", "error", err)
		os.Exit(1)
	}

	// 4. Session Setup
	cookieStore := sessions.NewCookieStore(cfg.SessionKey)
	cookieStore.Options.HttpOnly = true
	cookieStore.Options.Secure = cfg.CookieSecure
	cookieStore.Options.SameSite = http.SameSiteLaxMode
	cookieStore.Options.Path = "/"
	cookieStore.Options.MaxAge = int(cfg.SessionMaxAge.Seconds())
	if cfg.CookieDomain != "" {
		cookieStore.Options.Domain = cfg.CookieDomain
	}
	sessionManager := session.NewManager(cookieStore, db, events, cfg.SessionMaxAge)

	// 5. Init Templates
	templates := handlers.NewTemplateCache()
	pages, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		slog.Error("Failed to open templates", "error", err)
		os.Exit(1)
	}
	if err := templates.Load(pages); err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		slog.Error("Failed to open static files", "error", err)
		os.Exit(1)
	}

	// 6. Setup Handlers
	rateLimiter := handlers.NewRateLimiter(5, time.Minute)
	defer rateLimiter.Stop()

	app := &handlers.App{
		API:       api,
		Cache:     cache,
		Bus:       events,
		Exec:      mutation.NewExecutor(cache, events),
		Sessions:  sessionManager,
		Templates: templates,
		Emails: &apiclient.EmailPolicy{
			Mode:      apiclient.EmailPolicyMode(cfg.EmailValidationPolicy),
			Validator: apiclient.NewEmailValidator(cfg.EmailValidationURL, cfg.EmailValidationKey, cfg.RequestTimeout),
		},
		Images:        apiclient.NewImageHost(cfg.ImageUploadURL, cfg.ImageUploadPreset, cfg.RequestTimeout),
		Limiter:       rateLimiter,
		ImageMaxWidth: cfg.ImageMaxWidth,
	}

	// 7. Middleware Setup
	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.Path("/"),
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port}),
	)

	// Chain: Logger -> Security Headers -> [Plaintext] -> CSRF -> Sessions -> Mux
	var handler http.Handler = CSRF(app.Routes(http.FileServerFS(static)))
	if !cfg.CookieSecure {
		handler = handlers.PlaintextHTTPMiddleware(handler)
	}
	handler = handlers.LoggingMiddleware(handlers.SecurityHeadersMiddleware(handler))

	// Expired sessions are pruned in the background.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := app.PruneSessions(ctx)
				if err != nil {
					slog.Error("Failed to prune sessions", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("Pruned expired sessions", "count", n)
				}
			}
		}
	}()

	// 8. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "api", cfg.APIBaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}
