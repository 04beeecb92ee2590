package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomz197/hopline/internal/config"
	"github.com/tomz197/hopline/internal/loop/server"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = "8080"
)

func main() {
	settings, err := config.Load(config.GetEnv("HOPLINE_CONFIG", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := settings.NewLogger("web")

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	origins := config.GetEnvList("WEB_ALLOWED_ORIGINS")

	opts := []server.Option{server.WithDriverOptions(settings.DriverOptions()...)}
	if len(origins) > 0 {
		opts = append(opts, server.WithCheckOrigin(allowOrigins(origins)))
	}
	gs, err := server.New(logger, opts...)
	if err != nil {
		logger.Fatal("server setup failed", "err", err)
	}

	addr := net.JoinHostPort(host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           gs.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", addr, "ws", "/ws")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down", "sessions", gs.Active())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Hijacked websocket connections are not tracked by http.Server.
	if err := gs.Close(shutdownCtx); err != nil {
		logger.Warn("sessions did not close in time", "err", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

// allowOrigins accepts requests whose Origin header is in the list.
// Requests without an Origin header are not from a browser and pass.
func allowOrigins(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
