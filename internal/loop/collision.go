package loop

import (
	"time"

	"github.com/tomz197/hopline/internal/object"
)

// detectCollisions evaluates every obstacle against the player's reported
// position and applies damage on the collision-enter edge only.
func (s *Session) detectCollisions(now time.Duration) {
	x, y, z := s.PlayerPosition()

	var overlapping []*object.Obstacle
	for _, o := range s.obstacles {
		// A hit obstacle has already done its damage.
		if o.HitPlayer {
			continue
		}
		if s.tuning.Geometry.Check(x, y, z, o.Lane, o.Depth).All() {
			overlapping = append(overlapping, o)
		}
	}

	colliding := len(overlapping) > 0
	entered := colliding && !s.wasColliding
	s.wasColliding = colliding
	if entered {
		s.applyDamage(now, overlapping)
	}
}

// applyDamage handles one collision-enter edge. It is a no-op unless the
// player is running, not invincible and has a life to lose.
func (s *Session) applyDamage(now time.Duration, overlapping []*object.Obstacle) {
	if s.state != StateRunning || s.invincible > 0 {
		s.logger.Debug("damage suppressed", "state", s.state, "invincible", s.invincible)
		return
	}
	if s.lives <= 0 {
		return
	}

	ev := eventHit
	if s.lives == 1 {
		ev = eventFatalHit
	}
	next, err := transition(s.state, ev)
	if err != nil {
		s.logger.Debug("damage ignored", "err", err)
		return
	}

	for _, o := range overlapping {
		o.MarkHit()
		s.ledger.Disqualify(o.ID)
	}
	s.lives--
	s.state = next
	s.invincible = s.tuning.InvincibleDuration
	s.metrics.damageEvent(ev == eventFatalHit)
	s.logger.Info("hit", "lives", s.lives, "state", s.state)

	if next == StateTumbling {
		s.tumble = s.clock.Stopwatch(s.lastNow)
		s.timers.arm(timerTumbleExpiry, now+s.tuning.TumbleDuration, s.epoch)
		return
	}
	s.gameOver()
}

// endTumble returns the player to running and forgets the previous overlap
// so a later, distinct collision can damage again.
func (s *Session) endTumble() {
	next, err := transition(s.state, eventTumbleExpired)
	if err != nil {
		s.logger.Debug("tumble expiry ignored", "err", err)
		return
	}
	s.state = next
	s.wasColliding = false
}

// gameOver freezes the world until the next reset.
func (s *Session) gameOver() {
	s.spawner.Stop()
	s.timers.clear()
	s.player.Land()
	s.logger.Info("game over", "score", s.ledger.Score())
}

// decayInvincibility shortens the invincibility window by active time.
func (s *Session) decayInvincibility(delta time.Duration) {
	if s.invincible <= 0 {
		return
	}
	s.invincible -= delta
	if s.invincible < 0 {
		s.invincible = 0
	}
}
