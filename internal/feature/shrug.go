package feature

import "gonum.org/v1/gonum/spatial/r3"

// Pose landmark indices in the 33-point body model.
const (
	poseNose          = 0
	poseLeftShoulder  = 11
	poseRightShoulder = 12
	poseLeftHip       = 23
	poseRightHip      = 24
)

// minPoseLandmarks is the landmark count required to address the torso
// points used for shrug estimation.
const minPoseLandmarks = 25

// DefaultShrugThreshold is the normalised shoulder-to-nose distance of a
// relaxed pose. Values below it read as a shrug.
const DefaultShrugThreshold = 0.8

// Shrug is the per-side shrug amount, 0 at rest, growing as the shoulder
// approaches the nose.
type Shrug struct {
	Left  float64
	Right float64
}

// ShrugDetector estimates shoulder shrugs from pose landmarks. The
// shoulder-to-nose distance is normalised by the torso length so the
// output is independent of subject size and camera distance.
type ShrugDetector struct {
	threshold float64
}

// NewShrugDetector returns a detector with the given calibration
// threshold. Non-positive values fall back to DefaultShrugThreshold.
func NewShrugDetector(threshold float64) *ShrugDetector {
	if threshold <= 0 {
		threshold = DefaultShrugThreshold
	}
	return &ShrugDetector{threshold: threshold}
}

// Detect computes the shrug amount for both sides. A nil or short
// landmark set, or a degenerate pose with zero torso length on either
// side, yields {0,0} rather than an error.
func (d *ShrugDetector) Detect(landmarks []r3.Vec) Shrug {
	if len(landmarks) < minPoseLandmarks {
		return Shrug{}
	}

	nose := landmarks[poseNose]
	leftShoulder := landmarks[poseLeftShoulder]
	rightShoulder := landmarks[poseRightShoulder]
	leftHip := landmarks[poseLeftHip]
	rightHip := landmarks[poseRightHip]

	refLeft := r3.Norm(r3.Sub(leftShoulder, leftHip))
	refRight := r3.Norm(r3.Sub(rightShoulder, rightHip))
	if refLeft == 0 || refRight == 0 {
		return Shrug{}
	}

	normLeft := r3.Norm(r3.Sub(leftShoulder, nose)) / refLeft
	normRight := r3.Norm(r3.Sub(rightShoulder, nose)) / refRight

	return Shrug{
		Left:  max(0, 1-normLeft/d.threshold),
		Right: max(0, 1-normRight/d.threshold),
	}
}
