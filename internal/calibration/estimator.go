// Package calibration derives a standing baseline and jump amplitude from
// the classifier's smoothed hip height.
package calibration

import (
	"errors"
	"math"

	"github.com/charmbracelet/log"

	"github.com/tomz197/hopline/internal/pose"
)

// Phase is the estimator's progress.
type Phase int

const (
	PhaseAwaitingStart Phase = iota
	PhaseStanding
	PhaseJumping
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingStart:
		return "awaiting_start"
	case PhaseStanding:
		return "standing"
	case PhaseJumping:
		return "jumping"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// ErrNoJumps is returned by Finish when no jump was recorded yet.
var ErrNoJumps = errors.New("calibration: no jumps recorded")

// Params tunes the calibration procedure.
type Params struct {
	MinSamples         int     // Samples needed before checking stability
	MaxSamples         int     // Rolling buffer bound
	StabilityThreshold float64 // Max standard deviation (px) of a still stance
	MinAmplitude       float64 // Smaller rises are ignored
	DefaultAmplitude   float64 // Used when forced to finish without jumps
	TargetJumps        int     // Jumps after which calibration completes itself
}

// DefaultParams returns the tuning used by the game.
func DefaultParams() Params {
	return Params{
		MinSamples:         15,
		MaxSamples:         20,
		StabilityThreshold: 4,
		MinAmplitude:       15,
		DefaultAmplitude:   60,
		TargetJumps:        3,
	}
}

// Result is what the game session needs from calibration.
type Result struct {
	Baseline         float64 `json:"baseline"`
	AverageAmplitude float64 `json:"averageAmplitude"`
}

// Estimator runs the one-shot calibration. Not safe for concurrent use.
type Estimator struct {
	params     Params
	thresholds pose.Thresholds
	logger     *log.Logger

	phase      Phase
	samples    []float64
	baseline   float64
	amplitudes []float64
	wasJumping bool
}

// New creates an estimator waiting for Start.
func New(params Params, th pose.Thresholds, logger *log.Logger) *Estimator {
	if logger == nil {
		logger = log.Default()
	}
	return &Estimator{
		params:     params,
		thresholds: th,
		logger:     logger.With("component", "calibration"),
	}
}

// Phase returns the current phase.
func (e *Estimator) Phase() Phase {
	return e.phase
}

// Baseline returns the frozen baseline once the standing phase is over.
func (e *Estimator) Baseline() (float64, bool) {
	return e.baseline, e.phase >= PhaseJumping
}

// Jumps returns how many jumps were recorded.
func (e *Estimator) Jumps() int {
	return len(e.amplitudes)
}

// Start begins (or restarts) the standing phase.
func (e *Estimator) Start() {
	e.phase = PhaseStanding
	e.samples = e.samples[:0]
	e.amplitudes = e.amplitudes[:0]
	e.baseline = 0
	e.wasJumping = false
	e.logger.Info("calibration started")
}

// Observe feeds one smoothed hip height and returns the phase afterwards.
func (e *Estimator) Observe(smoothed float64) Phase {
	switch e.phase {
	case PhaseStanding:
		e.observeStanding(smoothed)
	case PhaseJumping:
		e.observeJumping(smoothed)
	}
	return e.phase
}

func (e *Estimator) observeStanding(smoothed float64) {
	e.samples = append(e.samples, smoothed)
	if len(e.samples) > e.params.MaxSamples {
		e.samples = e.samples[len(e.samples)-e.params.MaxSamples:]
	}
	if len(e.samples) < e.params.MinSamples {
		return
	}

	mean, std := meanStdDev(e.samples)
	if std >= e.params.StabilityThreshold {
		return
	}
	e.baseline = mean
	e.phase = PhaseJumping
	e.logger.Info("baseline captured", "baseline", mean, "stddev", std)
}

func (e *Estimator) observeJumping(smoothed float64) {
	jumping := pose.Classify(smoothed, e.baseline, e.thresholds)
	rising := jumping && !e.wasJumping
	e.wasJumping = jumping
	if !rising {
		return
	}

	amplitude := e.baseline - smoothed
	if amplitude <= 0 || amplitude < e.params.MinAmplitude {
		e.logger.Debug("jump amplitude ignored", "amplitude", amplitude)
		return
	}
	e.amplitudes = append(e.amplitudes, amplitude)
	e.logger.Info("jump recorded", "amplitude", amplitude, "count", len(e.amplitudes))

	if e.params.TargetJumps > 0 && len(e.amplitudes) >= e.params.TargetJumps {
		e.phase = PhaseDone
	}
}

// Finish completes calibration; at least one jump must have been recorded.
func (e *Estimator) Finish() (Result, error) {
	if len(e.amplitudes) == 0 {
		return Result{}, ErrNoJumps
	}
	e.phase = PhaseDone
	return Result{Baseline: e.baseline, AverageAmplitude: mean(e.amplitudes)}, nil
}

// ForceFinish completes calibration even without jumps, falling back to the
// default amplitude. Without a captured baseline the mean of the buffered
// standing samples is used.
func (e *Estimator) ForceFinish() Result {
	if res, err := e.Finish(); err == nil {
		return res
	}
	if e.phase < PhaseJumping && len(e.samples) > 0 {
		e.baseline = mean(e.samples)
	}
	e.phase = PhaseDone
	e.logger.Warn("calibration forced without jumps", "baseline", e.baseline)
	return Result{Baseline: e.baseline, AverageAmplitude: e.params.DefaultAmplitude}
}

// Override returns a fixed-baseline result for manual testing.
func Override(baseline float64, params Params) Result {
	return Result{Baseline: baseline, AverageAmplitude: params.DefaultAmplitude}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(values []float64) (float64, float64) {
	m := mean(values)
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(values))
	return m, math.Sqrt(variance)
}
