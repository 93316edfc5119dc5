// Package filter implements the one euro adaptive low-pass filter used to
// stabilise noisy tracker signals. The cutoff frequency rises with the
// estimated signal speed, trading smoothing for lag only when the signal
// is actually moving.
package filter

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// OneEuro filters a 3-component time series. Each filtered channel owns
// its own instance; instances must never be shared between channels.
type OneEuro struct {
	minCutoff float64
	beta      float64
	dCutoff   float64

	hasPrev bool
	prev    r3.Vec
	prevD   r3.Vec
	prevT   float64
}

// Default parameters match the reference tuning for gaze stabilisation.
const (
	DefaultMinCutoff = 1.0
	DefaultBeta      = 0.05
	DefaultDCutoff   = 1.0
)

// New returns a filter with the given parameters. Non-positive minCutoff
// and dCutoff fall back to the defaults.
func New(minCutoff, beta, dCutoff float64) *OneEuro {
	if minCutoff <= 0 {
		minCutoff = DefaultMinCutoff
	}
	if dCutoff <= 0 {
		dCutoff = DefaultDCutoff
	}
	return &OneEuro{minCutoff: minCutoff, beta: beta, dCutoff: dCutoff}
}

// smoothingFactor derives the exponential blend coefficient from the
// elapsed time and cutoff frequency: r/(r+1) with r = 2π·cutoff·Δt.
// The coefficient approaches 1 as cutoff or Δt grows, meaning "trust the
// new sample more".
func smoothingFactor(dt, cutoff float64) float64 {
	r := 2 * math.Pi * cutoff * dt
	return r / (r + 1)
}

// lerp blends the new sample with the previous output: a·x + (1−a)·prev.
func lerp(a float64, x, prev r3.Vec) r3.Vec {
	return r3.Add(r3.Scale(a, x), r3.Scale(1-a, prev))
}

// Filter produces the stabilised value for a sample taken at time t
// (seconds). The first call returns the sample unchanged. A non-positive
// Δt returns the previous output unchanged: no division by zero and no
// backward smoothing when timestamps repeat or go backwards.
func (f *OneEuro) Filter(x r3.Vec, t float64) r3.Vec {
	if !f.hasPrev {
		f.hasPrev = true
		f.prev = x
		f.prevD = r3.Vec{}
		f.prevT = t
		return x
	}

	dt := t - f.prevT
	if dt <= 0 {
		return f.prev
	}

	dx := r3.Scale(1/dt, r3.Sub(x, f.prev))
	dHat := lerp(smoothingFactor(dt, f.dCutoff), dx, f.prevD)

	cutoff := f.minCutoff + f.beta*r3.Norm(dHat)
	xHat := lerp(smoothingFactor(dt, cutoff), x, f.prev)

	f.prev = xHat
	f.prevD = dHat
	f.prevT = t
	return xHat
}
