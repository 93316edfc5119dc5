// Package feature turns raw landmark sets from the external detectors
// into small stabilised signals (gaze, shrug) suitable for streaming.
package feature

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mocap-data/motion.stream/internal/filter"
)

// Iris landmark clusters in the 478-point face mesh.
var (
	rightIrisIndices = [5]int{468, 469, 470, 471, 472}
	leftIrisIndices  = [5]int{473, 474, 475, 476, 477}
)

// minFaceLandmarks is the landmark count required to address both iris
// clusters.
const minFaceLandmarks = 478

// DefaultEMAAlpha is the second-stage smoothing coefficient.
const DefaultEMAAlpha = 0.3

// GazePoint is a stabilised 2D gaze coordinate for one eye.
type GazePoint struct {
	X, Y float64
}

// Gaze holds the stabilised gaze for both eyes.
type Gaze struct {
	Left  GazePoint
	Right GazePoint
}

// GazeStabilizer runs each eye's iris centroid through its own adaptive
// filter, then applies a fixed exponential moving average on top. The two
// filter instances never share state.
type GazeStabilizer struct {
	left  *filter.OneEuro
	right *filter.OneEuro

	alpha     float64
	hasLast   bool
	lastLeft  r3.Vec
	lastRight r3.Vec
}

// NewGazeStabilizer returns a stabiliser with the given filter beta and
// EMA coefficient. Non-positive alpha falls back to DefaultEMAAlpha.
func NewGazeStabilizer(beta, alpha float64) *GazeStabilizer {
	if alpha <= 0 {
		alpha = DefaultEMAAlpha
	}
	return &GazeStabilizer{
		left:  filter.New(filter.DefaultMinCutoff, beta, filter.DefaultDCutoff),
		right: filter.New(filter.DefaultMinCutoff, beta, filter.DefaultDCutoff),
		alpha: alpha,
	}
}

// centroid averages the landmark cluster at the given indices.
func centroid(landmarks []r3.Vec, indices [5]int) r3.Vec {
	var sum r3.Vec
	for _, i := range indices {
		sum = r3.Add(sum, landmarks[i])
	}
	return r3.Scale(1.0/float64(len(indices)), sum)
}

// ema blends the current value with the previous one using the fixed
// coefficient. Seeded with the first filtered value.
func (g *GazeStabilizer) ema(cur, last r3.Vec) r3.Vec {
	return r3.Add(r3.Scale(g.alpha, cur), r3.Scale(1-g.alpha, last))
}

// Process stabilises the iris centroids of a face landmark set sampled at
// time t (seconds). A nil or short landmark set yields (0,0) for both
// eyes rather than an error.
func (g *GazeStabilizer) Process(landmarks []r3.Vec, t float64) Gaze {
	if len(landmarks) < minFaceLandmarks {
		return Gaze{}
	}

	filteredLeft := g.left.Filter(centroid(landmarks, leftIrisIndices), t)
	filteredRight := g.right.Filter(centroid(landmarks, rightIrisIndices), t)

	if !g.hasLast {
		g.hasLast = true
		g.lastLeft = filteredLeft
		g.lastRight = filteredRight
	} else {
		g.lastLeft = g.ema(filteredLeft, g.lastLeft)
		g.lastRight = g.ema(filteredRight, g.lastRight)
	}

	return Gaze{
		Left:  GazePoint{X: g.lastLeft.X, Y: g.lastLeft.Y},
		Right: GazePoint{X: g.lastRight.X, Y: g.lastRight.Y},
	}
}
