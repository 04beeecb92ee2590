// Package server hosts game sessions for browser clients over websockets.
// Every connection gets its own Driver; the browser streams keypoints and
// control messages in and receives state snapshots and events back.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/tomz197/hopline/internal/loop"
	"github.com/tomz197/hopline/internal/loop/config"
)

const instrumentationName = "github.com/tomz197/hopline/internal/loop/server"

// Connection timing.
const (
	readLimit  = 1 << 20
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	writeWait  = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithDriverOptions applies opts to every per-connection driver.
func WithDriverOptions(opts ...loop.DriverOption) Option {
	return func(s *Server) {
		s.driverOpts = append(s.driverOpts, opts...)
	}
}

// WithBroadcastInterval sets how often state snapshots are pushed.
func WithBroadcastInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.broadcast = d
		}
	}
}

// WithCheckOrigin replaces the origin check used on upgrade.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// Server upgrades HTTP requests to websocket game sessions.
type Server struct {
	logger     *log.Logger
	upgrader   websocket.Upgrader
	driverOpts []loop.DriverOption
	broadcast  time.Duration

	base     context.Context
	shutdown context.CancelFunc
	conns    sync.WaitGroup
	active   atomic.Int64
	gauge    metric.Int64UpDownCounter
}

// New creates a Server. Origins are not checked unless WithCheckOrigin is
// given.
func New(logger *log.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	gauge, err := otel.Meter(instrumentationName).Int64UpDownCounter(
		"hopline.sessions.active",
		metric.WithDescription("Open websocket game sessions"),
	)
	if err != nil {
		return nil, err
	}

	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		logger: logger.With("component", "server"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		broadcast: config.TickDuration * config.SnapshotEveryTicks,
		base:      base,
		shutdown:  cancel,
		gauge:     gauge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the HTTP routes: /ws for game sessions and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	mux.HandleFunc("/healthz", s.serveHealth)
	return mux
}

// Active returns the number of open sessions.
func (s *Server) Active() int {
	return int(s.active.Load())
}

// Close ends every open session and waits for them to finish or for ctx to
// expire.
func (s *Server) Close(ctx context.Context) error {
	s.shutdown()
	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeWS upgrades the request and runs a session until the peer goes away.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	if s.base.Err() != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	s.conns.Add(1)
	defer s.conns.Done()
	s.active.Add(1)
	s.gauge.Add(r.Context(), 1)
	defer func() {
		s.active.Add(-1)
		s.gauge.Add(context.Background(), -1)
	}()

	c, err := s.newConn(ws, r.RemoteAddr)
	if err != nil {
		s.logger.Error("session setup failed", "err", err)
		_ = ws.Close()
		return
	}
	c.serve(s.base)
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.Active(),
	})
}

func (s *Server) newConn(ws *websocket.Conn, remote string) (*conn, error) {
	id := uuid.NewString()
	logger := s.logger.With("session", id)
	d, err := loop.NewDriver(logger, s.driverOpts...)
	if err != nil {
		return nil, err
	}
	return &conn{
		id:        id,
		ws:        ws,
		driver:    d,
		logger:    logger,
		remote:    remote,
		broadcast: s.broadcast,
		out:       make(chan []byte, 16),
	}, nil
}
