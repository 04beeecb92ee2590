package pose

// Thresholds tunes sample rejection, smoothing and jump classification.
// Pixel values are in the keypoint source's image coordinates.
type Thresholds struct {
	MinConfidence float64 // Minimum score for each hip
	MaxHipSkew    float64 // Maximum vertical distance between the two hips
	Smoothing     float64 // EMA weight of the newest sample, in (0,1)
	Margin        float64 // Pixels above baseline before a jump can register
	MinMovement   float64 // Minimum rise above baseline to count as a jump
}

// DefaultThresholds returns the tuning used by the game.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinConfidence: 0.3,
		MaxHipSkew:    80,
		Smoothing:     0.4,
		Margin:        45,
		MinMovement:   15,
	}
}

// Reading is the classifier output after one observation.
type Reading struct {
	Smoothed  float64 // Smoothed hip height; valid only when HasSample is set
	HasSample bool    // False until the first accepted sample after a reset
	Jumping   bool
	Rejected  bool // The latest observation was discarded as low quality
}

// Classifier smooths hip height and classifies jumps against a baseline.
// Not safe for concurrent use.
type Classifier struct {
	th          Thresholds
	baseline    float64
	hasBaseline bool
	smoothed    float64
	hasSample   bool
	last        Reading
	rejected    int
}

// NewClassifier creates a classifier without a baseline.
func NewClassifier(th Thresholds) *Classifier {
	if th.Smoothing <= 0 || th.Smoothing >= 1 {
		th.Smoothing = DefaultThresholds().Smoothing
	}
	return &Classifier{th: th}
}

// SetBaseline installs the calibrated standing hip height.
func (c *Classifier) SetBaseline(baseline float64) {
	c.baseline = baseline
	c.hasBaseline = true
}

// ClearBaseline removes the baseline; the classifier then never reports a jump.
func (c *Classifier) ClearBaseline() {
	c.hasBaseline = false
	c.baseline = 0
}

// Baseline returns the installed baseline, if any.
func (c *Classifier) Baseline() (float64, bool) {
	return c.baseline, c.hasBaseline
}

// Rejected returns how many observations were discarded since creation.
func (c *Classifier) Rejected() int {
	return c.rejected
}

// Observe feeds one set of keypoints. An empty set means the source produced
// nothing (tab hidden, stalled inference) and clears the smoothing state.
func (c *Classifier) Observe(points []Keypoint) Reading {
	if len(points) == 0 {
		c.Reset()
		return c.last
	}

	left, right, ok := findHips(points)
	if !ok || left.Score < c.th.MinConfidence || right.Score < c.th.MinConfidence ||
		abs(left.Y-right.Y) > c.th.MaxHipSkew {
		c.rejected++
		held := c.last
		held.Rejected = true
		return held
	}

	return c.Feed((left.Y + right.Y) / 2)
}

// Feed applies one raw hip height directly, bypassing keypoint lookup.
func (c *Classifier) Feed(height float64) Reading {
	if !c.hasSample {
		c.smoothed = height
		c.hasSample = true
	} else {
		w := c.th.Smoothing
		c.smoothed = w*height + (1-w)*c.smoothed
	}

	c.last = Reading{
		Smoothed:  c.smoothed,
		HasSample: true,
		Jumping:   c.hasBaseline && Classify(c.smoothed, c.baseline, c.th),
	}
	return c.last
}

// Reset drops the smoothing history and forces "not jumping".
func (c *Classifier) Reset() {
	c.smoothed = 0
	c.hasSample = false
	c.last = Reading{}
}

// Classify reports whether a smoothed height is a jump relative to baseline.
func Classify(smoothed, baseline float64, th Thresholds) bool {
	threshold := baseline - th.Margin
	return smoothed < threshold && baseline-smoothed >= th.MinMovement
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
