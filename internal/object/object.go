// Package object defines the runner's world entities and the obstacle spawner.
package object

import "time"

// Spawner allows the spawner to add obstacles to the world during update.
type Spawner interface {
	Spawn(o *Obstacle)
}

// UpdateContext provides everything an entity needs during one tick.
type UpdateContext struct {
	Now       time.Duration        // Active (pause-excluded) session time
	Dt        float64              // Elapsed ticks since the previous update
	Speed     float64              // Effective world speed in units per tick
	Obstacles map[string]*Obstacle // Live obstacles keyed by id
	Spawner   Spawner
}

// Position is a point in world space. X is lateral, Y vertical, Z depth.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ShouldRenderBlink returns true if an object with remaining invincibility
// time should be rendered this frame (for blinking effect).
// Returns true always if remaining <= 0.
func ShouldRenderBlink(remaining time.Duration, frequency float64) bool {
	if remaining <= 0 {
		return true
	}
	phase := int(remaining.Seconds() * frequency)
	return phase%2 != 0
}
