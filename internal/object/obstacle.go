package object

import (
	"github.com/google/uuid"

	"github.com/tomz197/hopline/internal/loop/config"
)

// Obstacle is a barrier travelling toward (and past) the player.
type Obstacle struct {
	ID           string
	Lane         float64 // Lateral offset; fixed at the single lane
	Depth        float64
	HitPlayer    bool // Sticky: once set it is never cleared
	PassedPlayer bool
}

// NewObstacle creates an obstacle on the spawn plane.
func NewObstacle() *Obstacle {
	return &Obstacle{
		ID:    uuid.NewString(),
		Lane:  config.PlayerLane,
		Depth: config.SpawnDepth,
	}
}

// Update moves the obstacle forward. Returns true once it has travelled far
// enough past the player to be removed.
func (o *Obstacle) Update(ctx UpdateContext) bool {
	o.Depth += ctx.Speed * ctx.Dt
	if o.Depth > config.PlayerDepth+config.ScoreMargin {
		o.PassedPlayer = true
	}
	return o.Depth > config.PlayerDepth+config.DespawnDistance
}

// MarkHit permanently flags the obstacle as having hit the player.
func (o *Obstacle) MarkHit() {
	o.HitPlayer = true
}

// Position returns the obstacle's world position.
func (o *Obstacle) Position() Position {
	return Position{X: o.Lane, Z: o.Depth}
}
