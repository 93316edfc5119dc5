// Package motion defines the canonical motion frame exchanged between the
// capture pipeline, the recorder/replayer and the wire encoder. A frame is
// built once per loop iteration and never mutated after it is handed off.
package motion

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// UnitTolerance is the maximum deviation from unit magnitude before a
// rotation quaternion is treated as identity by the encoder.
const UnitTolerance = 1e-3

// Vec3 is a position or direction in metres, serialised as [x, y, z].
type Vec3 struct {
	X, Y, Z float64
}

// MarshalJSON encodes the vector as a three element array.
func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{v.X, v.Y, v.Z})
}

// UnmarshalJSON decodes a three element array.
func (v *Vec3) UnmarshalJSON(data []byte) error {
	var a [3]float64
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("vec3: %w", err)
	}
	v.X, v.Y, v.Z = a[0], a[1], a[2]
	return nil
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Quat is a rotation quaternion, serialised as [x, y, z, w].
type Quat struct {
	X, Y, Z, W float64
}

// Identity returns the identity rotation.
func Identity() Quat {
	return Quat{W: 1}
}

// Norm returns the quaternion magnitude.
func (q Quat) Norm() float64 {
	return quat.Abs(quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z})
}

// IsUnit reports whether the magnitude is within UnitTolerance of 1.
func (q Quat) IsUnit() bool {
	return math.Abs(q.Norm()-1) <= UnitTolerance
}

// OrIdentity returns q if it is a valid unit rotation, identity otherwise.
// Trackers occasionally emit zero or denormalised quaternions; those must
// not reach the wire.
func (q Quat) OrIdentity() Quat {
	if q.IsUnit() {
		return q
	}
	return Identity()
}

// MarshalJSON encodes the quaternion as a four element array.
func (q Quat) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{q.X, q.Y, q.Z, q.W})
}

// UnmarshalJSON decodes a four element array.
func (q *Quat) UnmarshalJSON(data []byte) error {
	var a [4]float64
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("quat: %w", err)
	}
	q.X, q.Y, q.Z, q.W = a[0], a[1], a[2], a[3]
	return nil
}

// Transform is a position plus rotation pair.
type Transform struct {
	Position Vec3 `json:"position"`
	Rotation Quat `json:"rotation"`
}

// IsZero reports whether the transform carries no data at all. Used to
// omit the root from log records when nothing ever set it.
func (t Transform) IsZero() bool {
	return t.Position.IsZero() && t.Rotation == (Quat{})
}

// Frame is one instant of motion. An absent bone means "no update this
// frame", not zero rotation. Blendshape values are clamped to [0,1] by
// the encoder, never rejected here.
type Frame struct {
	Root        Transform          `json:"root,omitzero"`
	Bones       map[string]Quat    `json:"bones"`
	Blendshapes map[string]float64 `json:"blendshapes"`
}

// NewFrame returns an empty frame with allocated maps.
func NewFrame() *Frame {
	return &Frame{
		Bones:       make(map[string]Quat),
		Blendshapes: make(map[string]float64),
	}
}
