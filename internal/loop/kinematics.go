package loop

import (
	"context"
	"time"

	"github.com/tomz197/hopline/internal/object"
)

// effectiveSpeed is the world speed for this tick. Tumbling slows the
// world, not the player.
func (s *Session) effectiveSpeed() float64 {
	if s.state == StateTumbling {
		return s.speed * s.tuning.TumbleSpeedFactor
	}
	return s.speed
}

// stepKinematics integrates the player and advances every obstacle by dt
// ticks. It returns the ids of obstacles past the despawn threshold; they are
// removed after scoring.
func (s *Session) stepKinematics(now time.Duration, dt float64, jump bool) []string {
	rising := jump && !s.jumpHeld
	s.jumpHeld = jump
	if rising && s.state.CanJump() && s.player.Jump() {
		s.logger.Debug("jump", "state", s.state)
	}
	s.player.Update(dt)

	ctx := object.UpdateContext{
		Now:       now,
		Dt:        dt,
		Speed:     s.effectiveSpeed(),
		Obstacles: s.obstacles,
		Spawner:   s,
	}
	var gone []string
	for id, o := range s.obstacles {
		if o.Update(ctx) {
			gone = append(gone, id)
		}
	}
	return gone
}

// speedUp raises the game speed one increment and re-arms the escalation
// timer until the cap is reached.
func (s *Session) speedUp(due time.Duration) {
	s.speed = min(s.speed+s.tuning.SpeedIncrement, s.tuning.MaxSpeed)
	s.logger.Debug("speed up", "speed", s.speed)
	if s.speed < s.tuning.MaxSpeed {
		s.timers.arm(timerSpeedUp, due+s.tuning.SpeedUpInterval, s.epoch)
	}
}

// Spawn adds an obstacle to the world.
func (s *Session) Spawn(o *object.Obstacle) {
	s.obstacles[o.ID] = o
	s.metrics.spawned.Add(context.Background(), 1)
}
