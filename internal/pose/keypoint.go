// Package pose turns body keypoints into a smoothed hip height and a jump signal.
package pose

// Keypoint names used to locate the hips. Sources that omit names are
// matched by position using the COCO ordering.
const (
	LeftHipName   = "left_hip"
	RightHipName  = "right_hip"
	LeftHipIndex  = 11
	RightHipIndex = 12
)

// Keypoint is a single 2D body landmark in image coordinates.
// Y grows downward, so a smaller Y is physically higher.
type Keypoint struct {
	Name  string  `json:"name,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// findHips returns the left and right hip keypoints, preferring names.
func findHips(points []Keypoint) (left, right Keypoint, ok bool) {
	var haveLeft, haveRight bool
	for _, p := range points {
		switch p.Name {
		case LeftHipName:
			left, haveLeft = p, true
		case RightHipName:
			right, haveRight = p, true
		}
	}
	if !haveLeft && len(points) > LeftHipIndex {
		left, haveLeft = points[LeftHipIndex], true
	}
	if !haveRight && len(points) > RightHipIndex {
		right, haveRight = points[RightHipIndex], true
	}
	return left, right, haveLeft && haveRight
}
