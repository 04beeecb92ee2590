package loop

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/hopline/internal/clock"
	"github.com/tomz197/hopline/internal/object"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRand sets the random source used for spawn spacing.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.rng = rng
	}
}

// WithTuning replaces the default tuning.
func WithTuning(t Tuning) Option {
	return func(s *Session) {
		s.tuning = t
	}
}

// Session is one game: the world, the damage state machine, the score and
// the timers, all measured in active time. A Session is owned by a single
// goroutine; every mutation happens inside Step or one of the control
// methods.
type Session struct {
	tuning  Tuning
	logger  *log.Logger
	rng     *rand.Rand
	metrics *sessionMetrics

	clock *clock.Clock
	pause *clock.PauseController

	epoch uint64
	ticks uint64

	state      PlayerState
	lives      int
	speed      float64
	invincible time.Duration
	tumble     clock.Stopwatch

	player    *object.Player
	obstacles map[string]*object.Obstacle
	spawner   *object.ObstacleSpawner
	ledger    *Ledger
	timers    timerQueue

	wasColliding bool
	jumpHeld     bool
	lastActive   time.Duration
	lastNow      time.Time
}

// NewSession creates a session and starts the first game at now.
func NewSession(now time.Time, opts ...Option) (*Session, error) {
	s := &Session{
		tuning:    DefaultTuning(),
		logger:    log.Default(),
		obstacles: make(map[string]*object.Obstacle),
		ledger:    NewLedger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session")

	metrics, err := newSessionMetrics()
	if err != nil {
		return nil, fmt.Errorf("session metrics: %w", err)
	}
	s.metrics = metrics

	s.clock = clock.New(now)
	s.pause = clock.NewPauseController(s.clock, s.tuning.ResumeSteps, s.tuning.ResumeStep, s.logger)

	s.spawner = object.NewObstacleSpawner(s.rng)
	s.spawner.MinSpacing = s.tuning.MinSpawnSpacing
	s.spawner.MaxSpacing = s.tuning.MaxSpawnSpacing
	s.spawner.FirstDelay = s.tuning.FirstSpawnDelay
	s.spawner.MinSeparation = s.tuning.MinSpawnDistance

	s.player = object.NewPlayer()
	s.player.Gravity = s.tuning.Gravity
	s.player.JumpImpulse = s.tuning.JumpImpulse

	s.Reset(now)
	return s, nil
}

// Reset starts a new game. Everything owned by the previous game is cleared
// in one step and the epoch advances, so nothing scheduled by it can fire.
func (s *Session) Reset(now time.Time) {
	s.epoch++
	s.ticks = 0

	s.clock.Reset(now)
	s.pause.Reset(now)
	s.lastActive = 0
	s.lastNow = now

	next, err := transition(s.state, eventReset)
	if err != nil {
		s.logger.Warn("reset transition", "err", err)
	}
	s.state = next
	s.lives = s.tuning.Lives
	s.speed = s.tuning.BaseSpeed
	s.invincible = 0
	s.wasColliding = false
	s.jumpHeld = false

	clear(s.obstacles)
	s.ledger.Reset()
	s.timers.clear()
	s.player.Land()

	s.spawner.Start(0)
	if s.tuning.SpeedUpInterval > 0 {
		s.timers.arm(timerSpeedUp, s.tuning.SpeedUpInterval, s.epoch)
	}
	s.logger.Debug("reset", "epoch", s.epoch)
}

// Step advances the session to now. jump is the gated jump signal; only its
// rising edge triggers an impulse.
func (s *Session) Step(now time.Time, jump bool) {
	s.lastNow = now
	if res := s.pause.Update(now); res.Cleared && res.AfterVisibility && s.state != StateGameOver {
		s.spawner.Resume(s.clock.Active(now))
	}
	if s.pause.Paused() {
		s.jumpHeld = jump
		return
	}

	active := s.clock.Active(now)
	delta := active - s.lastActive
	s.lastActive = active
	dt := s.tuning.ticks(delta)
	s.ticks++

	s.fireTimers(active)
	s.decayInvincibility(delta)

	if s.state == StateGameOver {
		s.jumpHeld = jump
		s.player.Land()
		return
	}

	gone := s.stepKinematics(active, dt, jump)
	s.spawner.Update(object.UpdateContext{
		Now:       active,
		Dt:        dt,
		Speed:     s.effectiveSpeed(),
		Obstacles: s.obstacles,
		Spawner:   s,
	})
	s.detectCollisions(active)
	s.award()
	for _, id := range gone {
		delete(s.obstacles, id)
		s.ledger.Forget(id)
	}
}

// fireTimers runs every timer due at active time now. Timers armed in an
// earlier epoch are dropped.
func (s *Session) fireTimers(now time.Duration) {
	for _, t := range s.timers.due(now) {
		if t.epoch != s.epoch {
			s.logger.Debug("stale timer dropped", "timer", t.kind, "epoch", t.epoch, "current", s.epoch)
			continue
		}
		switch t.kind {
		case timerTumbleExpiry:
			s.endTumble()
		case timerSpeedUp:
			s.speedUp(t.due)
		}
	}
}

// award scores every obstacle that has cleanly passed the player.
func (s *Session) award() {
	for _, o := range s.obstacles {
		if s.ledger.Consider(o) {
			s.metrics.scored.Add(context.Background(), 1)
		}
	}
}

// Pause freezes the game immediately.
func (s *Session) Pause(now time.Time) {
	s.pause.Pause(now)
}

// RequestResume starts the resume countdown. Returns false when there is
// nothing to resume.
func (s *Session) RequestResume(now time.Time) bool {
	return s.pause.RequestResume(now)
}

// SetVisible reports application visibility. Hiding auto-pauses.
func (s *Session) SetVisible(now time.Time, visible bool) {
	s.pause.SetVisible(now, visible)
}

// PlayerPosition is the position collision is evaluated against.
func (s *Session) PlayerPosition() (x, y, z float64) {
	p := s.player.Position()
	return p.X, p.Y, p.Z
}

// State returns the player state.
func (s *Session) State() PlayerState {
	return s.state
}

// Lives returns the remaining lives.
func (s *Session) Lives() int {
	return s.lives
}

// Score returns the number of obstacles passed cleanly.
func (s *Session) Score() int {
	return s.ledger.Score()
}

// Paused reports whether the game is frozen.
func (s *Session) Paused() bool {
	return s.pause.Paused()
}

// Epoch returns the current game generation.
func (s *Session) Epoch() uint64 {
	return s.epoch
}
