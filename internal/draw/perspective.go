package draw

// Camera projects world positions (X lateral, Y up, Z depth toward the
// viewer) onto the logical canvas. It sits behind the player looking down
// the track.
type Camera struct {
	Z        float64 // Depth of the eye
	Height   float64 // Eye height above ground
	Focal    float64 // Logical units per world unit at distance 1
	CenterX  float64 // Screen column of the track center
	HorizonY float64 // Screen row of the horizon
	Near     float64 // Points closer than this are not drawn
}

// Project maps a world position to canvas coordinates. ok is false when the
// point is behind the near plane.
func (c Camera) Project(x, y, z float64) (p Point, ok bool) {
	dist := c.Z - z
	if dist < c.Near {
		return Point{}, false
	}
	scale := c.Focal / dist
	return Point{
		X: c.CenterX + x*scale,
		Y: c.HorizonY + (c.Height-y)*scale,
	}, true
}

// Box projects an upright rectangle of the given half-width and height
// standing at (x, y, z) and returns its screen corners.
func (c Camera) Box(x, y, z, halfWidth, height float64) (lo, hi Point, ok bool) {
	bottom, ok := c.Project(x-halfWidth, y, z)
	if !ok {
		return Point{}, Point{}, false
	}
	top, _ := c.Project(x+halfWidth, y+height, z)
	return Point{X: bottom.X, Y: top.Y}, Point{X: top.X, Y: bottom.Y}, true
}
