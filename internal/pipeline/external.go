package pipeline

import (
	"context"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mocap-data/motion.stream/internal/motion"
)

// VideoFrame is one captured camera image. The pipeline never inspects
// it; it flows opaquely from the camera to the trackers.
type VideoFrame []byte

// Camera yields video frames. Read blocks until a frame is available,
// bounded by the camera driver.
type Camera interface {
	Read() (VideoFrame, error)
	Close() error
}

// CameraOpener opens the camera at the given device index.
type CameraOpener func(index int) (Camera, error)

// PoseTracker detects body landmarks in a frame. A nil result means
// "not found this frame".
type PoseTracker interface {
	Process(frame VideoFrame) []r3.Vec
}

// FaceTracker detects face mesh landmarks in a frame. A nil result
// means "not found this frame".
type FaceTracker interface {
	Process(frame VideoFrame) []r3.Vec
}

// HandTracker detects hands and resolves them to named bone rotations
// (the vector-to-quaternion finger math lives behind this boundary).
// Keys are side-prefixed bone names; a nil result means no hands found.
type HandTracker interface {
	Process(frame VideoFrame) map[string]motion.Quat
}

// BlendshapeSource supplies the latest externally ingested blendshape
// set. Satisfied by *ingest.Store.
type BlendshapeSource interface {
	Snapshot() map[string]float64
}

// FrameSender streams encoded frames to the network. Satisfied by
// *vmc.Sender.
type FrameSender interface {
	SendFrame(f *motion.Frame)
	SetTarget(host string, port int)
}

// SyntheticCamera produces empty frames at a fixed interval. Used by the
// dev composition when no capture driver is wired in, and by tests.
type SyntheticCamera struct {
	Interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

// OpenSyntheticCamera is a CameraOpener for SyntheticCamera at 30 fps.
func OpenSyntheticCamera(index int) (Camera, error) {
	ctx, cancel := context.WithCancel(context.Background())
	return &SyntheticCamera{Interval: 33 * time.Millisecond, ctx: ctx, cancel: cancel}, nil
}

// Read returns an empty frame after the configured interval.
func (c *SyntheticCamera) Read() (VideoFrame, error) {
	select {
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	case <-time.After(c.Interval):
		return VideoFrame{}, nil
	}
}

// Close releases the camera.
func (c *SyntheticCamera) Close() error {
	c.cancel()
	return nil
}
