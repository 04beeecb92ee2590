package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time { return c.t }

func feed(s *Stream, bytes ...byte) {
	for _, b := range bytes {
		s.ch <- b
	}
}

func newTestStream() (*Stream, *stepClock) {
	clk := &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newStream()
	s.now = clk.now
	return s, clk
}

func TestReadInput_JumpHeldWhileRepeating(t *testing.T) {
	s, clk := newTestStream()

	feed(s, ' ')
	assert.True(t, ReadInput(s).Jump)

	clk.t = clk.t.Add(30 * time.Millisecond)
	assert.True(t, ReadInput(s).Jump, "still within the hold window")

	clk.t = clk.t.Add(40 * time.Millisecond)
	assert.False(t, ReadInput(s).Jump)
}

func TestReadInput_UpArrowJumps(t *testing.T) {
	s, _ := newTestStream()
	feed(s, '\x1b', '[', 'A')

	in := ReadInput(s)
	assert.True(t, in.Jump)
	assert.False(t, in.Pause, "escape of a CSI sequence is not a pause")
}

func TestReadInput_TogglesFireOnce(t *testing.T) {
	s, _ := newTestStream()
	feed(s, 'p', 'h', 'r')

	in := ReadInput(s)
	assert.True(t, in.Pause)
	assert.True(t, in.Visibility)
	assert.True(t, in.Restart)

	in = ReadInput(s)
	assert.False(t, in.Pause)
	assert.False(t, in.Visibility)
	assert.False(t, in.Restart)
}

func TestReadInput_Quit(t *testing.T) {
	s, _ := newTestStream()
	feed(s, 'q')
	in := ReadInput(s)
	assert.True(t, in.Quit)
	assert.Equal(t, []byte{'q'}, in.Pressed)
}

func TestResetKeyInput(t *testing.T) {
	s, _ := newTestStream()
	feed(s, ' ')
	ReadInput(s)

	ResetKeyInput(s)
	assert.False(t, ReadInput(s).Jump)
}
