// Command mockapi serves the in-memory flower API for local development.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apitest"
)

func main() {
	port := flag.String("port", envOr("MOCKAPI_PORT", "8000"), "Port to listen on")
	secret := flag.String("secret", os.Getenv("MOCKAPI_SECRET"), "JWT signing key (a fixed development key when empty)")
	seed := flag.Bool("seed", true, "Create the demo admin, customer and catalogue")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	gin.SetMode(gin.ReleaseMode)
	opts := []apitest.Option{apitest.WithLogger()}
	if *secret != "" {
		opts = append(opts, apitest.WithSecret([]byte(*secret)))
	}
	api := apitest.New(opts...)
	if *seed {
		api.Seed()
		slog.Info("Seeded demo data",
			"admin", apitest.AdminUsername,
			"customer", apitest.CustomerUsername)
	}

	server := &http.Server{
		Addr:              ":" + *port,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Mock API starting", "port", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Mock API failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Mock API shutdown failed", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
