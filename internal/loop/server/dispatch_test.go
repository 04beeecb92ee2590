package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/hopline/internal/calibration"
	"github.com/tomz197/hopline/internal/loop"
	"github.com/tomz197/hopline/internal/pose"
	"github.com/tomz197/hopline/internal/protocol"
)

type recorder struct {
	calls    []string
	points   []pose.Keypoint
	pressed  bool
	visible  bool
	force    bool
	baseline float64
	err      error
	source   loop.JumpSource
}

func (r *recorder) Keypoints(points []pose.Keypoint) {
	r.calls = append(r.calls, "keypoints")
	r.points = points
}

func (r *recorder) ManualJump(pressed bool) {
	r.calls = append(r.calls, "jump")
	r.pressed = pressed
}

func (r *recorder) Visibility(visible bool) {
	r.calls = append(r.calls, "visibility")
	r.visible = visible
}

func (r *recorder) Pause()            { r.calls = append(r.calls, "pause") }
func (r *recorder) Resume()           { r.calls = append(r.calls, "resume") }
func (r *recorder) Reset()            { r.calls = append(r.calls, "reset") }
func (r *recorder) StartCalibration() { r.calls = append(r.calls, "calibrate") }

func (r *recorder) FinishCalibration(force bool) {
	r.calls = append(r.calls, "calibrate_finish")
	r.force = force
}

func (r *recorder) OverrideBaseline(baseline float64) {
	r.calls = append(r.calls, "override")
	r.baseline = baseline
}

func (r *recorder) CaptureFailed(err error) {
	r.calls = append(r.calls, "capture_error")
	r.err = err
}

func (r *recorder) SelectSource(s loop.JumpSource) {
	r.calls = append(r.calls, "select_source")
	r.source = s
}

func env(t *testing.T, raw string) protocol.Envelope {
	t.Helper()
	e, err := protocol.DecodeEnvelope([]byte(raw))
	require.NoError(t, err)
	return e
}

func TestDispatch_RoutesMessages(t *testing.T) {
	r := &recorder{}

	require.NoError(t, dispatch(r, env(t, `{"t":"keypoints","p":{"points":[{"name":"left_hip","x":1,"y":2,"score":0.5}]}}`)))
	require.NoError(t, dispatch(r, env(t, `{"t":"jump","p":{"pressed":true}}`)))
	require.NoError(t, dispatch(r, env(t, `{"t":"visibility","p":{"visible":false}}`)))
	require.NoError(t, dispatch(r, env(t, `{"t":"pause"}`)))
	require.NoError(t, dispatch(r, env(t, `{"t":"resume"}`)))
	require.NoError(t, dispatch(r, env(t, `{"t":"reset"}`)))
	require.NoError(t, dispatch(r, env(t, `{"t":"calibrate"}`)))
	require.NoError(t, dispatch(r, env(t, `{"t":"calibrate_finish","p":{"force":true}}`)))
	require.NoError(t, dispatch(r, env(t, `{"t":"override","p":{"baseline":310}}`)))
	require.NoError(t, dispatch(r, env(t, `{"t":"capture_error","p":{"message":"denied"}}`)))
	require.NoError(t, dispatch(r, env(t, `{"t":"select_source","p":{"source":"manual"}}`)))

	assert.Equal(t, []string{
		"keypoints", "jump", "visibility", "pause", "resume", "reset",
		"calibrate", "calibrate_finish", "override", "capture_error",
		"select_source",
	}, r.calls)
	assert.Equal(t, []pose.Keypoint{{Name: "left_hip", X: 1, Y: 2, Score: 0.5}}, r.points)
	assert.True(t, r.pressed)
	assert.False(t, r.visible)
	assert.True(t, r.force)
	assert.Equal(t, 310.0, r.baseline)
	assert.ErrorIs(t, r.err, ErrCaptureFailed)
	assert.Contains(t, r.err.Error(), "denied")
	assert.Equal(t, loop.SourceManual, r.source)
}

func TestDispatch_FinishWithoutPayload(t *testing.T) {
	r := &recorder{force: true}
	require.NoError(t, dispatch(r, env(t, `{"t":"calibrate_finish"}`)))
	assert.False(t, r.force)
}

func TestDispatch_Rejects(t *testing.T) {
	r := &recorder{}

	err := dispatch(r, env(t, `{"t":"teleport"}`))
	assert.ErrorIs(t, err, protocol.ErrUnknownMessage)

	assert.Error(t, dispatch(r, env(t, `{"t":"jump"}`)), "missing payload")
	assert.Error(t, dispatch(r, env(t, `{"t":"override","p":{"baseline":0}}`)))
	assert.Error(t, dispatch(r, env(t, `{"t":"override","p":{"baseline":-4}}`)))
	assert.Error(t, dispatch(r, env(t, `{"t":"select_source","p":{"source":"telepathy"}}`)))
	assert.Empty(t, r.calls)
}

func TestEventMessage(t *testing.T) {
	typ, payload := eventMessage(loop.Event{Type: loop.EventCalibrationPhase, Phase: calibration.PhaseJumping})
	assert.Equal(t, protocol.MsgCalibration, typ)
	assert.Equal(t, protocol.Calibration{Phase: "jumping"}, payload)

	typ, payload = eventMessage(loop.Event{
		Type:        loop.EventCalibrated,
		Calibration: calibration.Result{Baseline: 300, AverageAmplitude: 40},
	})
	assert.Equal(t, protocol.MsgCalibration, typ)
	assert.Equal(t, protocol.Calibration{Phase: "done", Baseline: 300, AverageAmplitude: 40}, payload)

	typ, payload = eventMessage(loop.Event{Type: loop.EventCalibrationFailed, Err: calibration.ErrNoJumps})
	assert.Equal(t, protocol.MsgCalibration, typ)
	assert.Equal(t, protocol.Calibration{Phase: "failed", Error: calibration.ErrNoJumps.Error()}, payload)

	typ, payload = eventMessage(loop.Event{Type: loop.EventGameOver, Score: 7})
	assert.Equal(t, protocol.MsgGameOver, typ)
	assert.Equal(t, protocol.GameOver{Score: 7}, payload)

	typ, payload = eventMessage(loop.Event{Type: loop.EventSourceChanged, Source: loop.SourceManual, Err: errors.New("gone")})
	assert.Equal(t, protocol.MsgSource, typ)
	assert.Equal(t, protocol.Source{Source: "manual", Reason: "gone"}, payload)
}
