// Package loop runs the game session: the per-tick world update, the damage
// state machine, scoring and the driver goroutine that serializes input.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/hopline/internal/calibration"
	"github.com/tomz197/hopline/internal/pose"
)

// ErrNotCalibrating is reported when a calibration command arrives while no
// calibration is running.
var ErrNotCalibrating = errors.New("calibration not running")

// ErrCalibrationCancelled is reported when a reset interrupts calibration.
var ErrCalibrationCancelled = errors.New("calibration cancelled")

// JumpSource selects where the jump signal comes from.
type JumpSource int

const (
	SourcePose   JumpSource = iota // Classifier output from keypoints
	SourceManual                   // Keyboard or debug button
)

func (s JumpSource) String() string {
	if s == SourceManual {
		return "manual"
	}
	return "pose"
}

// ParseJumpSource parses "pose" or "manual".
func ParseJumpSource(s string) (JumpSource, error) {
	switch s {
	case "pose":
		return SourcePose, nil
	case "manual":
		return SourceManual, nil
	}
	return SourcePose, fmt.Errorf("unknown jump source %q", s)
}

// EventType identifies a Driver event.
type EventType int

const (
	EventCalibrationPhase EventType = iota
	EventCalibrated
	EventCalibrationFailed
	EventGameOver
	EventSourceChanged
)

// Event is a notification from the driver to its host.
type Event struct {
	Type        EventType
	Phase       calibration.Phase
	Calibration calibration.Result
	Source      JumpSource
	Score       int
	Err         error
}

// command is anything the driver goroutine applies between ticks.
type command interface {
	apply(d *Driver, now time.Time)
}

type (
	keypointsCmd    struct{ points []pose.Keypoint }
	manualJumpCmd   struct{ pressed bool }
	visibilityCmd   struct{ visible bool }
	pauseCmd        struct{}
	resumeCmd       struct{}
	togglePauseCmd  struct{}
	resetCmd        struct{}
	startCalCmd     struct{}
	finishCalCmd    struct{ force bool }
	overrideCmd     struct{ baseline float64 }
	captureFailCmd  struct{ err error }
	selectSourceCmd struct{ source JumpSource }
)

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithClock replaces the wall clock used to timestamp ticks and commands.
func WithClock(now func() time.Time) DriverOption {
	return func(d *Driver) {
		d.now = now
	}
}

// WithThresholds sets the classifier thresholds.
func WithThresholds(th pose.Thresholds) DriverOption {
	return func(d *Driver) {
		d.thresholds = th
	}
}

// WithCalibrationParams sets the calibration parameters.
func WithCalibrationParams(p calibration.Params) DriverOption {
	return func(d *Driver) {
		d.calParams = p
	}
}

// WithSessionOptions passes options through to the session.
func WithSessionOptions(opts ...Option) DriverOption {
	return func(d *Driver) {
		d.sessionOpts = append(d.sessionOpts, opts...)
	}
}

// WithJumpSource sets the initial jump source.
func WithJumpSource(s JumpSource) DriverOption {
	return func(d *Driver) {
		d.source = s
	}
}

// Driver owns a Session and feeds it from a single goroutine. Public methods
// are safe for concurrent use; they enqueue commands that Run applies
// between ticks.
type Driver struct {
	logger      *log.Logger
	now         func() time.Time
	thresholds  pose.Thresholds
	calParams   calibration.Params
	sessionOpts []Option

	session    *Session
	classifier *pose.Classifier
	estimator  *calibration.Estimator

	inbox    chan command
	events   chan Event
	snapshot atomic.Pointer[Snapshot]
	started  atomic.Bool

	source       JumpSource
	poseJump     bool
	manualJump   bool
	calibrating  bool
	lastState    PlayerState
	lastRejected int
}

// NewDriver creates a driver with a fresh session.
func NewDriver(logger *log.Logger, opts ...DriverOption) (*Driver, error) {
	if logger == nil {
		logger = log.Default()
	}
	d := &Driver{
		logger:     logger.With("component", "driver"),
		now:        time.Now,
		thresholds: pose.DefaultThresholds(),
		calParams:  calibration.DefaultParams(),
		inbox:      make(chan command, 256),
		events:     make(chan Event, 16),
	}
	for _, opt := range opts {
		opt(d)
	}

	sessionOpts := append([]Option{WithLogger(logger)}, d.sessionOpts...)
	s, err := NewSession(d.now(), sessionOpts...)
	if err != nil {
		return nil, err
	}
	d.session = s
	d.classifier = pose.NewClassifier(d.thresholds)
	d.estimator = calibration.New(d.calParams, d.thresholds, logger)
	d.publish()
	return d, nil
}

// Run drives the session at the tick rate until ctx is cancelled. The
// events channel is closed when Run returns. A Driver runs once; later
// calls return immediately.
func (d *Driver) Run(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		d.logger.Warn("driver already started")
		return
	}
	tick := d.session.tuning.TickDuration
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	defer close(d.events)

	d.logger.Debug("driver started", "tick", tick)
	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("driver stopped")
			return
		case cmd := <-d.inbox:
			cmd.apply(d, d.now())
			d.publish()
		case <-ticker.C:
			d.tick(d.now())
		}
	}
}

// Snapshot returns the latest published snapshot.
func (d *Driver) Snapshot() *Snapshot {
	return d.snapshot.Load()
}

// Events returns the driver's event stream.
func (d *Driver) Events() <-chan Event {
	return d.events
}

// Keypoints delivers one pose observation. An empty slice means the capture
// pipeline produced nothing.
func (d *Driver) Keypoints(points []pose.Keypoint) { d.send(keypointsCmd{points: points}) }

// ManualJump sets the manual jump button state.
func (d *Driver) ManualJump(pressed bool) { d.send(manualJumpCmd{pressed: pressed}) }

// Visibility reports whether the app is visible.
func (d *Driver) Visibility(visible bool) { d.send(visibilityCmd{visible: visible}) }

// Pause freezes the game.
func (d *Driver) Pause() { d.send(pauseCmd{}) }

// Resume starts the resume countdown.
func (d *Driver) Resume() { d.send(resumeCmd{}) }

// TogglePause pauses a running game or resumes a paused one.
func (d *Driver) TogglePause() { d.send(togglePauseCmd{}) }

// Reset starts a new game.
func (d *Driver) Reset() { d.send(resetCmd{}) }

// StartCalibration pauses the game and begins calibration.
func (d *Driver) StartCalibration() { d.send(startCalCmd{}) }

// FinishCalibration completes calibration. With force set a result is
// produced even if no jump was recorded.
func (d *Driver) FinishCalibration(force bool) { d.send(finishCalCmd{force: force}) }

// OverrideBaseline installs a fixed baseline without calibrating.
func (d *Driver) OverrideBaseline(baseline float64) { d.send(overrideCmd{baseline: baseline}) }

// CaptureFailed reports that the keypoint source stopped for good. The
// driver falls back to manual input.
func (d *Driver) CaptureFailed(err error) { d.send(captureFailCmd{err: err}) }

// SelectSource switches the jump source.
func (d *Driver) SelectSource(s JumpSource) { d.send(selectSourceCmd{source: s}) }

func (d *Driver) send(cmd command) {
	select {
	case d.inbox <- cmd:
	default:
		// Inbox full, drop command
		d.logger.Debug("command dropped", "cmd", cmd)
	}
}

func (d *Driver) emit(ev Event) {
	select {
	case d.events <- ev:
	default:
	}
}

func (d *Driver) publish() {
	snap := d.session.Snapshot()
	d.snapshot.Store(snap)
}

func (d *Driver) tick(now time.Time) {
	d.session.Step(now, d.jump())

	if state := d.session.State(); state != d.lastState {
		if state == StateGameOver {
			d.emit(Event{Type: EventGameOver, Score: d.session.Score()})
		}
		d.lastState = state
	}
	d.publish()
}

// jump is the gated jump signal for the current source. Calibration
// suppresses jumps entirely.
func (d *Driver) jump() bool {
	if d.calibrating {
		return false
	}
	if d.source == SourceManual {
		return d.manualJump
	}
	return d.poseJump
}

func (d *Driver) resetGame(now time.Time) {
	d.session.Reset(now)
	d.poseJump = false
	d.manualJump = false
	d.lastState = d.session.State()
}

func (d *Driver) installCalibration(now time.Time, res calibration.Result) {
	d.calibrating = false
	d.classifier.SetBaseline(res.Baseline)
	d.classifier.Reset()
	d.source = SourcePose
	d.logger.Info("calibrated", "baseline", res.Baseline, "amplitude", res.AverageAmplitude)
	d.emit(Event{Type: EventCalibrated, Calibration: res})
	d.resetGame(now)
}

func (c keypointsCmd) apply(d *Driver, now time.Time) {
	r := d.classifier.Observe(c.points)
	if n := d.classifier.Rejected(); n > d.lastRejected {
		d.session.metrics.rejected.Add(context.Background(), int64(n-d.lastRejected))
		d.lastRejected = n
	}
	d.poseJump = r.Jumping

	if !d.calibrating || !r.HasSample || r.Rejected {
		return
	}
	before := d.estimator.Phase()
	phase := d.estimator.Observe(r.Smoothed)
	if phase != before {
		d.emit(Event{Type: EventCalibrationPhase, Phase: phase})
	}
	if phase == calibration.PhaseDone {
		res, err := d.estimator.Finish()
		if err != nil {
			return
		}
		d.installCalibration(now, res)
	}
}

func (c manualJumpCmd) apply(d *Driver, _ time.Time) {
	d.manualJump = c.pressed
}

func (c visibilityCmd) apply(d *Driver, now time.Time) {
	if !c.visible {
		// No observations arrive while hidden; never hold a stale jump.
		d.classifier.Reset()
		d.poseJump = false
	}
	d.session.SetVisible(now, c.visible)
}

func (pauseCmd) apply(d *Driver, now time.Time) {
	d.session.Pause(now)
}

func (resumeCmd) apply(d *Driver, now time.Time) {
	if d.calibrating {
		return
	}
	d.session.RequestResume(now)
}

func (togglePauseCmd) apply(d *Driver, now time.Time) {
	if d.session.Paused() {
		resumeCmd{}.apply(d, now)
		return
	}
	d.session.Pause(now)
}

func (resetCmd) apply(d *Driver, now time.Time) {
	if d.calibrating {
		d.calibrating = false
		d.emit(Event{Type: EventCalibrationFailed, Err: ErrCalibrationCancelled})
	}
	d.resetGame(now)
}

func (startCalCmd) apply(d *Driver, now time.Time) {
	d.calibrating = true
	d.classifier.ClearBaseline()
	d.classifier.Reset()
	d.estimator.Start()
	d.session.Pause(now)
	d.emit(Event{Type: EventCalibrationPhase, Phase: d.estimator.Phase()})
}

func (c finishCalCmd) apply(d *Driver, now time.Time) {
	if !d.calibrating {
		d.emit(Event{Type: EventCalibrationFailed, Err: ErrNotCalibrating})
		return
	}
	if c.force {
		d.installCalibration(now, d.estimator.ForceFinish())
		return
	}
	res, err := d.estimator.Finish()
	if err != nil {
		d.emit(Event{Type: EventCalibrationFailed, Err: err})
		return
	}
	d.installCalibration(now, res)
}

func (c overrideCmd) apply(d *Driver, now time.Time) {
	d.installCalibration(now, calibration.Override(c.baseline, d.calParams))
}

func (c captureFailCmd) apply(d *Driver, _ time.Time) {
	d.logger.Warn("capture failed, switching to manual input", "err", c.err)
	d.calibrating = false
	d.classifier.Reset()
	d.poseJump = false
	d.source = SourceManual
	d.emit(Event{Type: EventSourceChanged, Source: SourceManual, Err: c.err})
}

func (c selectSourceCmd) apply(d *Driver, _ time.Time) {
	if d.source == c.source {
		return
	}
	d.source = c.source
	d.emit(Event{Type: EventSourceChanged, Source: c.source})
}
