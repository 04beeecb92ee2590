package clock

import (
	"time"

	"github.com/charmbracelet/log"
)

// PauseState is the pause information the UI displays.
type PauseState struct {
	Paused    bool `json:"paused"`
	Countdown int  `json:"countdown"` // Remaining resume steps; 0 when not counting down
}

// Resumed describes a pause that cleared during Update.
type Resumed struct {
	Cleared         bool
	AfterVisibility bool // The pause was caused by the app losing visibility
}

// PauseController owns the paused flag, the resume countdown and the
// visibility-driven auto-pause. It freezes and unfreezes the Clock.
// Not safe for concurrent use.
type PauseController struct {
	clock  *Clock
	steps  int
	step   time.Duration
	logger *log.Logger

	paused     bool
	visible    bool
	autoPaused bool
	countdown  int
	nextStep   time.Time
}

// NewPauseController creates an unpaused, visible controller.
func NewPauseController(c *Clock, steps int, step time.Duration, logger *log.Logger) *PauseController {
	if logger == nil {
		logger = log.Default()
	}
	if steps < 1 {
		steps = 1
	}
	return &PauseController{
		clock:   c,
		steps:   steps,
		step:    step,
		logger:  logger.With("component", "pause"),
		visible: true,
	}
}

// State returns the displayable pause state.
func (p *PauseController) State() PauseState {
	return PauseState{Paused: p.paused, Countdown: p.countdown}
}

// Paused reports whether gameplay is frozen (including during the countdown).
func (p *PauseController) Paused() bool {
	return p.paused
}

// Visible reports the last known application visibility.
func (p *PauseController) Visible() bool {
	return p.visible
}

// Reset clears any pause and countdown. A hidden app stays auto-paused so
// the new game waits for visibility to return.
func (p *PauseController) Reset(now time.Time) {
	p.paused = false
	p.autoPaused = false
	p.countdown = 0
	p.nextStep = time.Time{}
	if !p.visible {
		p.paused = true
		p.autoPaused = true
		p.clock.Pause(now)
	}
}

// Pause freezes gameplay immediately and cancels a running countdown.
func (p *PauseController) Pause(now time.Time) {
	p.countdown = 0
	p.autoPaused = false
	if p.paused {
		return
	}
	p.paused = true
	p.clock.Pause(now)
	p.logger.Debug("paused")
}

// RequestResume starts the resume countdown. It reports false when there is
// nothing to resume, a countdown is already running, or the app is hidden.
func (p *PauseController) RequestResume(now time.Time) bool {
	if !p.paused || p.countdown > 0 || !p.visible {
		return false
	}
	p.countdown = p.steps
	p.nextStep = now.Add(p.step)
	p.logger.Debug("resume countdown started", "steps", p.steps)
	return true
}

// SetVisible records application visibility. Losing visibility pauses at
// once and cancels any countdown; regaining it after an automatic pause
// starts the countdown.
func (p *PauseController) SetVisible(now time.Time, visible bool) {
	if visible == p.visible {
		return
	}
	p.visible = visible

	if !visible {
		p.countdown = 0
		if !p.paused {
			p.paused = true
			p.autoPaused = true
			p.clock.Pause(now)
		} else if !p.autoPaused {
			// Already paused by the player; keep it a manual pause.
			p.logger.Debug("hidden while paused")
			return
		}
		p.logger.Debug("auto-paused on visibility loss")
		return
	}

	if p.paused && p.autoPaused {
		p.RequestResume(now)
	}
}

// Update advances the resume countdown to now.
func (p *PauseController) Update(now time.Time) Resumed {
	if !p.paused || p.countdown == 0 {
		return Resumed{}
	}
	for p.countdown > 0 && !now.Before(p.nextStep) {
		p.countdown--
		p.nextStep = p.nextStep.Add(p.step)
	}
	if p.countdown > 0 {
		return Resumed{}
	}

	res := Resumed{Cleared: true, AfterVisibility: p.autoPaused}
	p.paused = false
	p.autoPaused = false
	p.clock.Resume(now)
	p.logger.Debug("resumed", "after_visibility", res.AfterVisibility)
	return res
}
