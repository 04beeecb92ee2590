package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomz197/hopline/internal/draw"
	"github.com/tomz197/hopline/internal/loop"
	"github.com/tomz197/hopline/internal/loop/config"
	"github.com/tomz197/hopline/internal/object"
)

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	// On screen or inactivity transitions, do a full terminal clear
	// so UI elements from the previous screen don't persist.
	stateChanged := c.state.GameState != c.state.prevGameState
	inactiveChanged := c.state.isInactive != c.state.wasInactive
	if stateChanged || inactiveChanged {
		draw.ClearScreen(c.chunkWriter)
		c.canvas.ForceRedraw()
		c.state.prevGameState = c.state.GameState
		c.state.wasInactive = c.state.isInactive
	}

	c.canvas.Clear()
	snap := c.session.Snapshot()
	if c.state.GameState == GameStatePlaying || c.state.GameState == GameStateOver {
		c.drawScene(snap)
	}

	c.canvas.Render(c.chunkWriter)
	c.canvas.RenderBorder(c.chunkWriter)
	c.drawUI(snap)

	return c.chunkWriter.Flush()
}

// drawScene draws the track, the obstacles and the runner.
func (c *Client) drawScene(snap *loop.Snapshot) {
	cam := c.camera

	// Track edges from the horizon to the camera.
	const halfTrack = 1.6
	for _, x := range []float64{-halfTrack, halfTrack} {
		far, _ := cam.Project(x, 0, config.SpawnDepth)
		near, ok := cam.Project(x, 0, cam.Z-cam.Near)
		if ok {
			c.canvas.DrawLine(far, near)
		}
	}

	// Depth markers scroll with the world so motion is visible.
	offset := float64(snap.ActiveMs) / float64(config.TickDuration.Milliseconds()) * snap.Speed
	for z := config.SpawnDepth + mod(offset, 4); z < cam.Z-cam.Near; z += 4 {
		if p, ok := cam.Project(0, 0, z); ok {
			c.canvas.SetFloat(p.X, p.Y)
		}
	}

	// Far obstacles first so nearer ones draw over them.
	for i := len(snap.Obstacles) - 1; i >= 0; i-- {
		o := snap.Obstacles[i]
		lo, hi, ok := cam.Box(o.Position.X, 0, o.Position.Z, config.ObstacleSize, config.ObstacleSize)
		if !ok {
			continue
		}
		c.canvas.DrawRect(lo, hi, !o.Hit)
	}

	if !object.ShouldRenderBlink(time.Duration(snap.InvincibleMs)*time.Millisecond, config.BlinkFrequency) {
		return
	}
	p := snap.Player
	if snap.State == loop.StateTumbling {
		// Tumbling: drawn lying down.
		lo, hi, ok := cam.Box(p.X, p.Y, p.Z, config.PlayerHeight/2, config.PlayerWidth)
		if ok {
			c.canvas.DrawRect(lo, hi, true)
		}
		return
	}
	lo, hi, ok := cam.Box(p.X, p.Y, p.Z, config.PlayerWidth, config.PlayerHeight)
	if ok {
		c.canvas.DrawRect(lo, hi, true)
	}
}

func mod(v, m float64) float64 {
	r := v - m*float64(int(v/m))
	if r < 0 {
		r += m
	}
	return r
}

// drawUI draws the text overlay for the current screen.
func (c *Client) drawUI(snap *loop.Snapshot) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	if c.state.GameState == GameStateShutdown {
		c.drawShutdownScreen(centerX, centerY)
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen(centerX, centerY)
		return
	}

	switch c.state.GameState {
	case GameStateStart:
		c.drawStartScreen(centerX, centerY)
	case GameStatePlaying:
		c.drawPlayingHUD(termWidth, termHeight, snap)
		c.drawPauseOverlay(centerX, centerY, snap)
	case GameStateOver:
		c.drawGameOverScreen(centerX, centerY)
	}
}

// writeText writes s at (col, row) and marks the cells for repaint.
func (c *Client) writeText(col, row int, s string) {
	c.chunkWriter.WriteAt(col, row, s)
	c.canvas.MarkTextDirty(col, row, len([]rune(s)))
}

func (c *Client) writeCentered(centerX, row int, s string) {
	c.writeText(centerX-len([]rune(s))/2, row, s)
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	c.writeCentered(centerX, centerY-2, "INACTIVITY WARNING")
	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	c.writeCentered(centerX, centerY, msg)
	c.writeCentered(centerX, centerY+2, "Press any key to continue")
}

// drawStartScreen draws the title screen.
func (c *Client) drawStartScreen(centerX, centerY int) {
	// figlet "small" font
	titleArt := []string{
		` _  _  ___  ___ _    ___ _  _ ___ `,
		`| || |/ _ \| _ \ |  |_ _| \| | __|`,
		`| __ | (_) |  _/ |__ | || .' | _| `,
		`|_||_|\___/|_| |____|___|_|\_|___|`,
	}

	titleStartY := centerY - 7
	for i, line := range titleArt {
		c.writeCentered(centerX, titleStartY+i, line)
	}
	c.writeCentered(centerX, titleStartY+len(titleArt)+1, "~ jump the barriers, keep your lives ~")

	controlsY := titleStartY + len(titleArt) + 3
	c.writeCentered(centerX, controlsY, "Controls")
	controlLines := []string{
		"SPACE / W / Up  . .  Jump",
		"P / Esc . . . . . . Pause",
		"H . . . . .  Hide / show",
		"R . . . . . . .  Restart",
		"Q . . . . . . . . .  Quit",
	}
	for i, line := range controlLines {
		c.writeCentered(centerX, controlsY+1+i, line)
	}

	// Blinking start prompt
	prompt := ">>  Press SPACE to Start  <<"
	if time.Now().UnixMilli()/600%2 != 0 {
		prompt = strings.Repeat(" ", len(prompt))
	}
	c.writeCentered(centerX, controlsY+len(controlLines)+2, prompt)
}

// drawPlayingHUD draws the in-game HUD.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen.
func (c *Client) drawPlayingHUD(termWidth, termHeight int, snap *loop.Snapshot) {
	c.writeText(2, 1, fmt.Sprintf("Score: %-6d", snap.Score))

	hearts := strings.Repeat("♥", snap.Lives) + strings.Repeat("·", max(config.InitialLives-snap.Lives, 0))
	livesText := "Lives: " + hearts
	c.writeText(termWidth-len([]rune(livesText))-1, 1, livesText)

	c.writeText(2, termHeight, fmt.Sprintf("Speed: %-5.2f %-9s", snap.Speed, snap.State))
}

// drawPauseOverlay shows the pause banner or the resume countdown.
func (c *Client) drawPauseOverlay(centerX, centerY int, snap *loop.Snapshot) {
	if !snap.Pause.Paused {
		return
	}
	switch {
	case snap.Pause.Countdown > 0:
		c.writeCentered(centerX, centerY-4, fmt.Sprintf("   %d   ", snap.Pause.Countdown))
	case !c.state.Visible:
		c.writeCentered(centerX, centerY-4, " HIDDEN - press H to return ")
	default:
		c.writeCentered(centerX, centerY-4, " PAUSED - press P to resume ")
	}
}

// drawGameOverScreen draws the game over screen.
func (c *Client) drawGameOverScreen(centerX, centerY int) {
	titleArt := []string{
		`   ___   _   __  __ ___    _____   _____ ___  `,
		`  / __| /_\ |  \/  | __|  / _ \ \ / / __| _ \ `,
		` | (_ |/ _ \| |\/| | _|  | (_) \ V /| _||   / `,
		`  \___/_/ \_\_|  |_|___|  \___/ \_/ |___|_|_\ `,
	}

	titleStartY := centerY - 6
	for i, line := range titleArt {
		c.writeCentered(centerX, titleStartY+i, line)
	}
	c.writeCentered(centerX, titleStartY+len(titleArt)+1, fmt.Sprintf("Score: %d", c.state.FinalScore))

	prompt := ">>  Press SPACE to Restart  <<"
	if time.Now().UnixMilli()/600%2 != 0 {
		prompt = strings.Repeat(" ", len(prompt))
	}
	c.writeCentered(centerX, titleStartY+len(titleArt)+3, prompt)
}

// drawShutdownScreen draws the shutdown notification screen.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	c.writeCentered(centerX, centerY-3, "SERVER SHUTTING DOWN")
	c.writeCentered(centerX, centerY-1, "The game is restarting for maintenance.")
	c.writeCentered(centerX, centerY, "Please reconnect in a moment.")

	remaining := int(c.state.shutdownTimer) + 1
	c.writeCentered(centerX, centerY+2, fmt.Sprintf("Disconnecting in %d seconds...", remaining))
	c.writeCentered(centerX, centerY+4, "Press Q to disconnect now")
}
