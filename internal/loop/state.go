package loop

import (
	"errors"
	"fmt"
)

// PlayerState is the player's phase in the damage state machine.
type PlayerState int

const (
	StateRunning  PlayerState = iota // Normal play
	StateTumbling                    // Recovering from a hit; world slowed
	StateGameOver                    // Terminal until reset
)

func (s PlayerState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTumbling:
		return "tumbling"
	case StateGameOver:
		return "game_over"
	default:
		return fmt.Sprintf("PlayerState(%d)", int(s))
	}
}

// MarshalText renders the state as its tag for JSON snapshots.
func (s PlayerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state tag.
func (s *PlayerState) UnmarshalText(b []byte) error {
	for _, st := range []PlayerState{StateRunning, StateTumbling, StateGameOver} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown player state %q", b)
}

// CanJump reports whether a jump impulse may be applied in this state.
func (s PlayerState) CanJump() bool {
	return s == StateRunning || s == StateTumbling
}

// stateEvent drives transitions between player states.
type stateEvent int

const (
	eventHit           stateEvent = iota // Damage with lives remaining
	eventFatalHit                        // Damage that spent the last life
	eventTumbleExpired                   // Tumble window elapsed
	eventReset                           // New game
)

func (e stateEvent) String() string {
	switch e {
	case eventHit:
		return "hit"
	case eventFatalHit:
		return "fatal_hit"
	case eventTumbleExpired:
		return "tumble_expired"
	case eventReset:
		return "reset"
	default:
		return fmt.Sprintf("stateEvent(%d)", int(e))
	}
}

// ErrIllegalTransition is returned for an event the current state does not accept.
var ErrIllegalTransition = errors.New("illegal player state transition")

// transition is the complete transition table. Damage is only processed
// while running, so tumbling never goes straight to game over.
func transition(from PlayerState, ev stateEvent) (PlayerState, error) {
	if ev == eventReset {
		return StateRunning, nil
	}

	switch from {
	case StateRunning:
		switch ev {
		case eventHit:
			return StateTumbling, nil
		case eventFatalHit:
			return StateGameOver, nil
		}
	case StateTumbling:
		if ev == eventTumbleExpired {
			return StateRunning, nil
		}
	case StateGameOver:
	}
	return from, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, from)
}
