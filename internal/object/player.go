package object

import "github.com/tomz197/hopline/internal/loop/config"

// Player is the runner's vertical kinematic state. The player never moves
// laterally or in depth; the world scrolls past instead.
type Player struct {
	Y        float64 // Height above ground
	VY       float64 // Vertical velocity, units per tick
	Grounded bool

	Gravity     float64 // Acceleration per tick² (negative is down)
	JumpImpulse float64 // Upward velocity applied on a jump
}

// NewPlayer creates a grounded player with the default physics.
func NewPlayer() *Player {
	return &Player{
		Grounded:    true,
		Gravity:     config.Gravity,
		JumpImpulse: config.JumpImpulse,
	}
}

// Jump applies the jump impulse. Only a grounded player can jump; returns
// whether the impulse was applied.
func (p *Player) Jump() bool {
	if !p.Grounded {
		return false
	}
	p.VY = p.JumpImpulse
	p.Grounded = false
	return true
}

// Update integrates gravity over dt ticks and clamps at ground level.
func (p *Player) Update(dt float64) {
	if p.Grounded {
		return
	}
	p.VY += p.Gravity * dt
	p.Y += p.VY * dt

	if p.Y <= config.GroundLevel {
		p.Land()
	}
}

// Land puts the player on the ground with zero velocity.
func (p *Player) Land() {
	p.Y = config.GroundLevel
	p.VY = 0
	p.Grounded = true
}

// Position returns the player's world position.
func (p *Player) Position() Position {
	return Position{X: config.PlayerLane, Y: p.Y, Z: config.PlayerDepth}
}
