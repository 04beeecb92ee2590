package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"github.com/tomz197/hopline/internal/config"
	"github.com/tomz197/hopline/internal/draw"
	"github.com/tomz197/hopline/internal/loop"
	"github.com/tomz197/hopline/internal/loop/client"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
	drainTimeout       = 15 * time.Second
)

// host runs one solo game per SSH session. Sessions share nothing but the
// shutdown signal.
type host struct {
	settings config.Settings
	logger   *log.Logger

	// Cancelled on shutdown so every client shows its goodbye screen.
	closing context.Context
	games   sync.WaitGroup
}

func main() {
	settings, err := config.Load(config.GetEnv("HOPLINE_CONFIG", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := settings.NewLogger("ssh")

	hostAddr := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	logger.Info("ssh config", "host", hostAddr, "port", port, "hostKeyPath", hostKeyPath)

	closing, beginClose := context.WithCancel(context.Background())
	h := &host{settings: settings, logger: logger, closing: closing}

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(hostAddr, port)),
		wish.WithMiddleware(
			h.gameMiddleware,
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(logger),
		),
		// Keypresses are tiny; don't let Nagle hold them back.
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting ssh server", "addr", net.JoinHostPort(hostAddr, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down, notifying players")
	beginClose()
	h.drain(drainTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", "err", err)
	}
}

// drain waits for running games to show their shutdown screen and exit.
func (h *host) drain(timeout time.Duration) {
	finished := make(chan struct{})
	go func() {
		h.games.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		h.logger.Info("all games ended")
	case <-time.After(timeout):
		h.logger.Warn("games still running at shutdown", "timeout", timeout)
	}
}

// gameMiddleware runs a game for the session's PTY.
func (h *host) gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		h.games.Add(1)
		defer h.games.Done()

		logger := h.logger.With("user", sess.User())
		logger.Info("game session", "terminal", pty.Term, "width", pty.Window.Width, "height", pty.Window.Height)

		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		if err := h.play(sess, sizeTracker, logger); err != nil {
			logger.Error("game error", "err", err)
		}
		logger.Info("session ended")
		next(sess)
	}
}

func (h *host) play(sess ssh.Session, sizes *sizeTracker, logger *log.Logger) error {
	opts := append(h.settings.DriverOptions(), loop.WithJumpSource(loop.SourceManual))
	driver, err := loop.NewDriver(logger, opts...)
	if err != nil {
		return err
	}

	driverCtx, cancelDriver := context.WithCancel(sess.Context())
	defer cancelDriver()
	go driver.Run(driverCtx)

	c := client.NewClient(driver, bufio.NewReader(sess), sess, client.ClientOptions{
		TermSizeFunc: sizes.getSize,
		Logger:       logger,
	})
	return c.Run(h.closing)
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
