package client

import (
	"time"

	"github.com/tomz197/hopline/internal/draw"
)

// GameState represents the current screen for a client.
type GameState int

const (
	GameStateStart    GameState = iota // Title screen
	GameStatePlaying                   // Active gameplay, including pause
	GameStateOver                      // Game over, show restart prompt
	GameStateShutdown                  // Host is shutting down
)

// ClientState holds per-connection UI state. Game state itself lives in the
// session and is read from snapshots.
type ClientState struct {
	GameState     GameState
	prevGameState GameState
	Visible       bool // Simulated app visibility, toggled with H
	FinalScore    int
	termSizeFunc  draw.TermSizeFunc
	Running       bool
	delta         time.Duration
	shutdownTimer float64
	isInactive    bool
	wasInactive   bool
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		GameState:     GameStateStart,
		prevGameState: GameStateStart,
		Visible:       true,
		Running:       true,
	}
}
