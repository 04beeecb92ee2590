package draw

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkWriter_OffsetsCursor(t *testing.T) {
	var out bytes.Buffer
	cw := NewChunkWriter(&out, 3, 2)
	cw.WriteAt(1, 1, "hi")
	require.NoError(t, cw.Flush())
	assert.Equal(t, "\033[3;4Hhi", out.String())

	out.Reset()
	cw.SetOffset(0, 0)
	cw.WriteAt(5, 7, "x")
	require.NoError(t, cw.Flush())
	assert.Equal(t, "\033[7;5Hx", out.String())
}

type recordingWriter struct {
	writes []int
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.writes = append(w.writes, len(p))
	return len(p), nil
}

func TestWriteChunked_SplitsLargePayloads(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, writeChunked(w, strings.Repeat("a", 2*maxChunkSize+10)))
	assert.Equal(t, []int{maxChunkSize, maxChunkSize, 10}, w.writes)
}

func TestTermSize(t *testing.T) {
	w, h, err := TermSize(func() (int, int, error) { return 80, 24, nil })
	require.NoError(t, err)
	assert.Equal(t, 80, w)
	assert.Equal(t, 24, h)

	_, _, err = TermSize(func() (int, int, error) { return 0, 0, nil })
	assert.ErrorIs(t, err, ErrNoTerminalSize)

	boom := errors.New("no tty")
	_, _, err = TermSize(func() (int, int, error) { return 0, 0, boom })
	assert.ErrorIs(t, err, boom)
}
