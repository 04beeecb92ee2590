package loop

import (
	"time"

	"github.com/tomz197/hopline/internal/loop/config"
	"github.com/tomz197/hopline/internal/physics"
)

// Tuning holds the runtime-adjustable session parameters.
type Tuning struct {
	TickDuration       time.Duration
	Lives              int
	BaseSpeed          float64
	MaxSpeed           float64
	SpeedIncrement     float64
	SpeedUpInterval    time.Duration
	TumbleSpeedFactor  float64
	InvincibleDuration time.Duration
	TumbleDuration     time.Duration
	Gravity            float64
	JumpImpulse        float64
	Geometry           physics.Geometry

	MinSpawnSpacing  time.Duration
	MaxSpawnSpacing  time.Duration
	FirstSpawnDelay  time.Duration
	MinSpawnDistance float64

	ResumeSteps int
	ResumeStep  time.Duration
}

// DefaultTuning returns the compile-time defaults from the config package.
func DefaultTuning() Tuning {
	return Tuning{
		TickDuration:       config.TickDuration,
		Lives:              config.InitialLives,
		BaseSpeed:          config.BaseSpeed,
		MaxSpeed:           config.MaxSpeed,
		SpeedIncrement:     config.SpeedIncrement,
		SpeedUpInterval:    config.SpeedUpInterval,
		TumbleSpeedFactor:  config.TumbleSpeedFactor,
		InvincibleDuration: config.InvincibleDuration,
		TumbleDuration:     config.TumbleDuration,
		Gravity:            config.Gravity,
		JumpImpulse:        config.JumpImpulse,
		Geometry: physics.Geometry{
			LaneTolerance: config.LaneTolerance,
			DepthWindow:   config.DepthWindow,
			Clearance:     config.Clearance,
		},
		MinSpawnSpacing:  config.MinSpawnSpacing,
		MaxSpawnSpacing:  config.MaxSpawnSpacing,
		FirstSpawnDelay:  config.FirstSpawnDelay,
		MinSpawnDistance: config.MinSpawnDistance,
		ResumeSteps:      config.ResumeCountdownSteps,
		ResumeStep:       config.ResumeCountdownStep,
	}
}

// ticks converts an active-time delta into tick units, capped so a stalled
// loop cannot teleport obstacles through the player.
func (t Tuning) ticks(d time.Duration) float64 {
	if d <= 0 || t.TickDuration <= 0 {
		return 0
	}
	dt := float64(d) / float64(t.TickDuration)
	if dt > config.MaxTickSteps {
		dt = config.MaxTickSteps
	}
	return dt
}
