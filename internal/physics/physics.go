// Package physics provides the overlap tests used for collision detection.
package physics

import "math"

// Geometry describes how close an obstacle must be to the player to collide.
type Geometry struct {
	LaneTolerance float64 // Max lateral distance
	DepthWindow   float64 // Max depth distance
	Clearance     float64 // Player height at or above which the obstacle is cleared
}

// Overlap holds the three independent per-axis overlap results.
type Overlap struct {
	Lateral  bool
	Depth    bool
	Vertical bool
}

// All reports whether every axis overlaps.
func (o Overlap) All() bool {
	return o.Lateral && o.Depth && o.Vertical
}

// Within reports whether a and b are strictly closer than tolerance.
func Within(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

// Check computes the per-axis overlap between the player at (px, py, pz)
// and an obstacle at lateral offset ox and depth oz.
func (g Geometry) Check(px, py, pz, ox, oz float64) Overlap {
	return Overlap{
		Lateral:  Within(px, ox, g.LaneTolerance),
		Depth:    Within(pz, oz, g.DepthWindow),
		Vertical: py < g.Clearance,
	}
}
