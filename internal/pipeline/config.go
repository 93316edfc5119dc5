// Package pipeline orchestrates the motion capture loop: camera frames
// through trackers and stabilisers into motion frames, merged with
// peripheral blendshapes, optionally recorded, and streamed out at a
// target frame rate. A replay mode streams a recorded log instead.
package pipeline

import "fmt"

// Mode selects the frame source for the orchestration loop.
type Mode int

const (
	// Live streams frames captured from the camera and trackers.
	Live Mode = iota
	// Replay streams frames from a loaded recording.
	Replay
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Live:
		return "live"
	case Replay:
		return "replay"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Features toggles the per-feature tracking stages. Named fields rather
// than a string-keyed map so a typo fails at compile time, not at frame
// time.
type Features struct {
	Pose  bool `json:"pose"`
	Hands bool `json:"hands"`
	Face  bool `json:"face"`
	Shrug bool `json:"shrug"`
	Gaze  bool `json:"gaze"`
}

// AllFeatures enables every stage.
func AllFeatures() Features {
	return Features{Pose: true, Hands: true, Face: true, Shrug: true, Gaze: true}
}

// Config is the pipeline's runtime configuration. The controller owns
// it; updates replace the whole struct under lock, so the loop never
// observes a torn read such as a new host with an old port.
type Config struct {
	CameraIndex     int      `json:"camera_index"`
	TargetFrameRate int      `json:"fps"`
	SenderHost      string   `json:"host"`
	SenderPort      int      `json:"port"`
	Features        Features `json:"features"`
	Mode            Mode     `json:"-"`
}

// Validate checks the config is usable before it is applied.
func (c Config) Validate() error {
	if c.TargetFrameRate <= 0 {
		return fmt.Errorf("target frame rate must be positive, got %d", c.TargetFrameRate)
	}
	if c.SenderHost == "" {
		return fmt.Errorf("sender host must not be empty")
	}
	if c.SenderPort <= 0 || c.SenderPort > 65535 {
		return fmt.Errorf("sender port %d out of range", c.SenderPort)
	}
	if c.CameraIndex < 0 {
		return fmt.Errorf("camera index must not be negative, got %d", c.CameraIndex)
	}
	return nil
}
