// Package client is the terminal front end: it reads keys, forwards them to
// a game session and renders the session's snapshots.
package client

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/hopline/internal/draw"
	"github.com/tomz197/hopline/internal/input"
	"github.com/tomz197/hopline/internal/loop"
	"github.com/tomz197/hopline/internal/loop/config"
)

// GameSession is what the client needs from a running session. It decouples
// the Client from loop.Driver so tests can substitute a fake.
type GameSession interface {
	Snapshot() *loop.Snapshot
	Events() <-chan loop.Event
	ManualJump(pressed bool)
	TogglePause()
	Pause()
	Visibility(visible bool)
	Reset()
}

// Compile-time check that the driver satisfies GameSession.
var _ GameSession = (*loop.Driver)(nil)

// Client handles rendering and input for a single terminal.
type Client struct {
	session      GameSession
	state        *ClientState
	canvas       *draw.Canvas
	camera       draw.Camera
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	lastJump     bool
	termSizeFunc draw.TermSizeFunc
	logger       *log.Logger
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Logger       *log.Logger
}

// NewClient creates a client for the given session.
func NewClient(gs GameSession, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	state := NewClientState()
	state.termSizeFunc = termSizeFunc

	// Create canvas with clamped dimensions for max render resolution
	termWidth, termHeight, _ := draw.TermSize(termSizeFunc)
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, config.ViewWidth, config.ViewHeight)
	canvas.SetOffset(offsetCol, offsetRow)

	// The title screen shows over a frozen game.
	gs.Pause()

	return &Client{
		session: gs,
		state:   state,
		canvas:  canvas,
		camera: draw.Camera{
			Z:        config.CameraDepth,
			Height:   config.CameraHeight,
			Focal:    config.CameraFocal,
			CenterX:  config.ViewWidth / 2,
			HorizonY: config.HorizonY,
			Near:     config.CameraNear,
		},
		chunkWriter:  draw.NewChunkWriter(w, offsetCol, offsetRow),
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
		logger:       logger.With("component", "client"),
	}
}

// Run starts the client loop. Blocks until the player quits, goes idle, the
// session ends or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		select {
		case <-ctx.Done():
			c.shutdown()
		default:
		}

		c.processInput()
		c.processSessionEvents()
		c.updateScreen()

		if c.state.GameState == GameStateShutdown {
			c.updateShutdownState()
		}

		if err := c.drawFrame(); err != nil {
			return err
		}

		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	draw.ClearScreen(c.writer)
	return nil
}

// processInput reads keys and forwards them to the session.
func (c *Client) processInput() {
	in := input.ReadInput(c.inputStream)

	if len(in.Pressed) > 0 {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.logger.Info("disconnecting idle client")
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if in.Quit {
		c.state.Running = false
		return
	}

	switch c.state.GameState {
	case GameStateStart, GameStateOver:
		if in.Jump || in.Enter || in.Restart {
			c.startGame()
		}
	case GameStatePlaying:
		c.handlePlayingInput(in)
	}
}

func (c *Client) handlePlayingInput(in input.Input) {
	if in.Jump != c.lastJump {
		c.session.ManualJump(in.Jump)
		c.lastJump = in.Jump
	}
	if in.Pause {
		c.session.TogglePause()
	}
	if in.Visibility {
		c.state.Visible = !c.state.Visible
		c.session.Visibility(c.state.Visible)
	}
	if in.Restart {
		c.startGame()
	}
}

// processSessionEvents handles events from the session.
func (c *Client) processSessionEvents() {
	for {
		select {
		case ev, ok := <-c.session.Events():
			if !ok {
				// Session stopped
				c.shutdown()
				return
			}
			switch ev.Type {
			case loop.EventGameOver:
				c.state.GameState = GameStateOver
				c.state.FinalScore = ev.Score
			case loop.EventSourceChanged:
				c.logger.Debug("jump source changed", "source", ev.Source)
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := draw.TermSize(c.termSizeFunc)
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.writer)
		c.canvas.Resize(renderWidth, renderHeight)
		c.canvas.ForceRedraw()
	}

	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(termWidth, config.MaxTermWidth)
	renderHeight = min(termHeight, config.MaxTermHeight)
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}

// startGame starts or restarts the game.
func (c *Client) startGame() {
	input.ResetKeyInput(c.inputStream)
	c.lastJump = false
	c.session.ManualJump(false)
	if !c.state.Visible {
		c.state.Visible = true
		c.session.Visibility(true)
	}
	c.session.Reset()
	c.state.GameState = GameStatePlaying
}

// shutdown switches to the shutdown screen once.
func (c *Client) shutdown() {
	if c.state.GameState == GameStateShutdown {
		return
	}
	c.state.GameState = GameStateShutdown
	c.state.shutdownTimer = config.ShutdownDisplaySeconds
}

// updateShutdownState handles the shutdown screen countdown.
func (c *Client) updateShutdownState() {
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}
