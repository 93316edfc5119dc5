package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestFirstSamplePassesThrough(t *testing.T) {
	t.Parallel()

	f := New(1.0, 0.05, 1.0)
	in := r3.Vec{X: 0.3, Y: -1.2, Z: 4.5}
	out := f.Filter(in, 10.0)
	assert.Equal(t, in, out)
}

func TestNonIncreasingTimestampHoldsOutput(t *testing.T) {
	t.Parallel()

	f := New(1.0, 0.05, 1.0)
	first := f.Filter(r3.Vec{X: 1}, 1.0)

	t.Run("zero delta", func(t *testing.T) {
		out := f.Filter(r3.Vec{X: 99}, 1.0)
		assert.Equal(t, first, out)
	})

	t.Run("backward timestamp", func(t *testing.T) {
		out := f.Filter(r3.Vec{X: -50}, 0.5)
		assert.Equal(t, first, out)
	})
}

// TestMonotoneDamping checks that every output lies between the previous
// output and the new sample: smoothing never overshoots.
func TestMonotoneDamping(t *testing.T) {
	t.Parallel()

	f := New(1.0, 0.0, 1.0)
	prev := f.Filter(r3.Vec{}, 0)

	samples := []float64{1.0, 0.2, 3.5, 3.6, -2.0}
	for i, x := range samples {
		in := r3.Vec{X: x}
		out := f.Filter(in, float64(i+1)*0.033)

		lo, hi := prev.X, in.X
		if lo > hi {
			lo, hi = hi, lo
		}
		require.GreaterOrEqual(t, out.X, lo, "sample %d", i)
		require.LessOrEqual(t, out.X, hi, "sample %d", i)
		prev = out
	}
}

// TestAdaptiveCutoff checks the defining property of the filter: a fast
// moving signal is tracked more closely (less lag) when beta is raised.
func TestAdaptiveCutoff(t *testing.T) {
	t.Parallel()

	slack := New(1.0, 0.0, 1.0)
	tight := New(1.0, 5.0, 1.0)

	var slackOut, tightOut r3.Vec
	for i := 0; i < 20; i++ {
		// A steep ramp: 1 unit per 33ms step.
		in := r3.Vec{X: float64(i)}
		ts := float64(i) * 0.033
		slackOut = slack.Filter(in, ts)
		tightOut = tight.Filter(in, ts)
	}

	target := 19.0
	assert.Less(t, target-tightOut.X, target-slackOut.X,
		"higher beta should lag the ramp less")
}

func TestIndependentInstancesShareNoState(t *testing.T) {
	t.Parallel()

	a := New(1.0, 0.05, 1.0)
	b := New(1.0, 0.05, 1.0)

	a.Filter(r3.Vec{X: 100}, 1.0)
	out := b.Filter(r3.Vec{X: 1}, 2.0)
	assert.Equal(t, r3.Vec{X: 1}, out)
}
