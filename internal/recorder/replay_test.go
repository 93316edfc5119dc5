package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeLog writes a jsonl log with the given timestamps; each frame's
// jawOpen value is its index so releases are distinguishable.
func writeLog(t *testing.T, timestamps ...float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "replay.jsonl")

	// Reuse the recorder so the log format stays in one place.
	r := NewRecorder()
	require.NoError(t, r.Start(path, FormatJSONL))
	for i, ts := range timestamps {
		r.now = func() time.Time {
			return time.Unix(0, int64(ts*float64(time.Second)))
		}
		r.Record(testFrame(float64(i)))
	}
	r.Stop()
	return path
}

// loadedReplayer returns a replayer with the log loaded and a manual
// clock the test can advance.
func loadedReplayer(t *testing.T, timestamps ...float64) (*Replayer, *time.Time) {
	t.Helper()

	p := NewReplayer()
	clock := time.Unix(500, 0)
	p.now = func() time.Time { return clock }
	require.NoError(t, p.Load(writeLog(t, timestamps...)))
	return p, &clock
}

func TestReplayerLifecycle(t *testing.T) {
	t.Parallel()

	p := NewReplayer()
	assert.Equal(t, Unloaded, p.State())
	assert.Error(t, p.Start(), "cannot start before load")
	assert.Nil(t, p.NextFrame())

	p.Stop()
	assert.Equal(t, Unloaded, p.State(), "stop does not invent a loaded log")
}

func TestReplayerLoadFailureStaysUnloaded(t *testing.T) {
	t.Parallel()

	p := NewReplayer()
	require.Error(t, p.Load(filepath.Join(t.TempDir(), "missing.jsonl")))
	assert.Equal(t, Unloaded, p.State())
	assert.Zero(t, p.Len())
}

func TestReplayerReleasesOnRecordedOffsets(t *testing.T) {
	t.Parallel()

	p, clock := loadedReplayer(t, 100.0, 100.033, 100.1)
	require.NoError(t, p.Start())
	assert.Equal(t, Playing, p.State())

	// First frame has offset 0: due immediately, exactly once.
	first := p.NextFrame()
	require.NotNil(t, first)
	assert.Equal(t, 0.0, first.Blendshapes["jawOpen"])
	assert.Nil(t, p.NextFrame(), "second frame not due yet")

	// Just before the second frame's offset: still held.
	*clock = clock.Add(32 * time.Millisecond)
	assert.Nil(t, p.NextFrame())

	// At the offset: released.
	*clock = clock.Add(time.Millisecond)
	second := p.NextFrame()
	require.NotNil(t, second)
	assert.Equal(t, 1.0, second.Blendshapes["jawOpen"])

	// Far past the last offset: released once, then the log is done.
	*clock = clock.Add(time.Second)
	third := p.NextFrame()
	require.NotNil(t, third)
	assert.Equal(t, 2.0, third.Blendshapes["jawOpen"])

	assert.Nil(t, p.NextFrame())
	assert.Equal(t, Stopped, p.State())
}

func TestReplayerLateTickReleasesBacklogInOrder(t *testing.T) {
	t.Parallel()

	p, clock := loadedReplayer(t, 10.0, 10.01, 10.02)
	require.NoError(t, p.Start())

	// A single late tick: all three frames are due. Each poll releases
	// one, in order, none skipped.
	*clock = clock.Add(time.Second)
	for want := 0.0; want < 3; want++ {
		frame := p.NextFrame()
		require.NotNil(t, frame)
		assert.Equal(t, want, frame.Blendshapes["jawOpen"])
	}
	assert.Nil(t, p.NextFrame())
}

func TestReplayerRestartFromStopped(t *testing.T) {
	t.Parallel()

	p, clock := loadedReplayer(t, 10.0, 10.05)
	require.NoError(t, p.Start())
	require.NotNil(t, p.NextFrame())
	p.Stop()
	assert.Equal(t, Stopped, p.State())
	assert.Nil(t, p.NextFrame(), "stopped replayer releases nothing")

	// Restart replays from the beginning on a fresh clock origin.
	*clock = clock.Add(time.Hour)
	require.NoError(t, p.Start())
	frame := p.NextFrame()
	require.NotNil(t, frame)
	assert.Equal(t, 0.0, frame.Blendshapes["jawOpen"])
}

func TestReplayerWallClockTiming(t *testing.T) {
	t.Parallel()

	// Real-clock check: a 60ms recorded gap holds the second frame for
	// at least 60ms of wall time.
	p := NewReplayer()
	require.NoError(t, p.Load(writeLog(t, 20.0, 20.06)))
	require.NoError(t, p.Start())

	start := time.Now()
	require.NotNil(t, p.NextFrame())
	for p.NextFrame() == nil {
		if time.Since(start) > 2*time.Second {
			t.Fatal("second frame never released")
		}
		time.Sleep(time.Millisecond)
	}
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestReplayStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unloaded", Unloaded.String())
	assert.Equal(t, "playing", Playing.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "loaded", Loaded.String())
}
