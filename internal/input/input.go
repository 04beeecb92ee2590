// Package input turns raw terminal bytes into per-frame key state.
package input

import (
	"bufio"
	"time"
)

// keyHoldDuration is how long a key is considered "held" after its last press.
// Terminals only report repeats, so a held key shows up as a stream of presses.
const keyHoldDuration = 50 * time.Millisecond

// Input represents the current frame's input state.
type Input struct {
	Quit       bool
	Jump       bool // Space, W, K or Up arrow
	Pause      bool // P or Escape; toggles
	Visibility bool // H; toggles simulated app visibility
	Restart    bool // R
	Enter      bool
	Pressed    []byte
}

// keyState tracks the last time each key was pressed.
type keyState struct {
	quit       time.Time
	jump       time.Time
	pause      time.Time
	visibility time.Time
	restart    time.Time
	enter      time.Time
}

// Stream delivers input bytes via a channel and tracks key state between frames.
type Stream struct {
	ch    chan byte
	state keyState
	now   func() time.Time
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := newStream()
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

func newStream() *Stream {
	return &Stream{
		ch:  make(chan byte, 128),
		now: time.Now,
	}
}

// ReadInput drains all available bytes from the stream (non-blocking).
// Handles escape sequences for arrow keys. Jump is level-triggered (held
// while repeats keep arriving); the toggles fire once per press.
func ReadInput(s *Stream) Input {
	now := s.now()
	var buf []byte

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	var toggles keyState
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// CSI sequence: ESC [ <code>
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			if buf[i+2] == 'A' { // Up arrow
				s.state.jump = now
			}
			i += 2
			continue
		}

		applyByteToState(&s.state, &toggles, b, now)
	}

	return Input{
		Quit:       !toggles.quit.IsZero(),
		Jump:       now.Sub(s.state.jump) < keyHoldDuration,
		Pause:      !toggles.pause.IsZero(),
		Visibility: !toggles.visibility.IsZero(),
		Restart:    !toggles.restart.IsZero(),
		Enter:      !toggles.enter.IsZero(),
		Pressed:    buf,
	}
}

// ResetKeyInput forgets held keys so a press that started a game does not
// also count as a jump.
func ResetKeyInput(s *Stream) {
	s.state = keyState{}
}

// applyByteToState records a held key in state and a one-shot key in toggles.
func applyByteToState(state, toggles *keyState, b byte, now time.Time) {
	switch b {
	case 'q', 'Q', '\x03':
		toggles.quit = now
	case ' ', 'w', 'W', 'k', 'K':
		state.jump = now
	case 'p', 'P', '\x1b':
		toggles.pause = now
	case 'h', 'H':
		toggles.visibility = now
	case 'r', 'R':
		toggles.restart = now
	case '\n', '\r':
		toggles.enter = now
	}
}
