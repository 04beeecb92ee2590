package loop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerQueue_OnePerKind(t *testing.T) {
	var q timerQueue
	q.arm(timerSpeedUp, time.Second, 1)
	q.arm(timerSpeedUp, 2*time.Second, 1)

	assert.Empty(t, q.due(time.Second))
	fired := q.due(2 * time.Second)
	require.Len(t, fired, 1)
	assert.Equal(t, 2*time.Second, fired[0].due)
	assert.False(t, q.armed(timerSpeedUp))
}

func TestTimerQueue_DueInDeadlineOrder(t *testing.T) {
	var q timerQueue
	q.arm(timerSpeedUp, 3*time.Second, 1)
	q.arm(timerTumbleExpiry, time.Second, 1)

	fired := q.due(5 * time.Second)
	require.Len(t, fired, 2)
	assert.Equal(t, timerTumbleExpiry, fired[0].kind)
	assert.Equal(t, timerSpeedUp, fired[1].kind)
}

func TestTimerQueue_Cancel(t *testing.T) {
	var q timerQueue
	q.arm(timerTumbleExpiry, time.Second, 1)
	q.arm(timerSpeedUp, time.Second, 1)
	q.cancel(timerTumbleExpiry)

	assert.False(t, q.armed(timerTumbleExpiry))
	assert.True(t, q.armed(timerSpeedUp))
}
