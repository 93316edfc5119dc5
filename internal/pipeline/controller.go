package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mocap-data/motion.stream/internal/feature"
	"github.com/mocap-data/motion.stream/internal/motion"
	"github.com/mocap-data/motion.stream/internal/recorder"
)

// Locally estimated blendshape channel names. A peripheral channel of
// the same name always wins because the ingest snapshot merges last.
const (
	ChannelShrugLeft  = "shrug_left"
	ChannelShrugRight = "shrug_right"
	ChannelGazeLeftX  = "gaze_left_x"
	ChannelGazeLeftY  = "gaze_left_y"
	ChannelGazeRightX = "gaze_right_x"
	ChannelGazeRightY = "gaze_right_y"
)

// replayPollInterval bounds the replay loop's idle sleep so due frames
// are released within a millisecond of their schedule.
const replayPollInterval = time.Millisecond

// State is the controller lifecycle state.
type State int32

const (
	// StateIdle means Run has not been called yet.
	StateIdle State = iota
	// StateRunning means the orchestration loop is active.
	StateRunning
	// StateStopped means the loop has exited.
	StateStopped
)

// ControllerConfig bundles the controller's dependencies so wiring stays
// explicit and testable. Sender is required; OpenCamera defaults to the
// synthetic camera, Recorder and Replayer to fresh instances, and nil
// trackers simply contribute nothing to a frame.
type ControllerConfig struct {
	Config Config

	OpenCamera CameraOpener
	Pose       PoseTracker
	Hands      HandTracker
	Face       FaceTracker
	Sender     FrameSender
	Ingest     BlendshapeSource
	Recorder   *recorder.Recorder
	Replayer   *recorder.Replayer

	// Stabiliser tuning; zero values select the package defaults.
	ShrugThreshold float64
	GazeBeta       float64
	GazeAlpha      float64
}

// Controller owns the orchestration loop. One goroutine runs the loop
// and is the sole writer of frames; configuration and control calls
// arrive from other goroutines and are applied at iteration boundaries.
type Controller struct {
	mu     sync.Mutex
	cfg    Config
	cancel context.CancelFunc
	done   chan struct{}

	state atomic.Int32

	openCamera CameraOpener
	pose       PoseTracker
	hands      HandTracker
	face       FaceTracker
	sender     FrameSender
	ingest     BlendshapeSource
	rec        *recorder.Recorder
	rep        *recorder.Replayer

	gaze  *feature.GazeStabilizer
	shrug *feature.ShrugDetector

	// now is swappable for tests.
	now func() time.Time
}

// NewController wires a controller from its dependency bundle.
func NewController(cc ControllerConfig) (*Controller, error) {
	if err := cc.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if cc.Sender == nil {
		return nil, fmt.Errorf("pipeline requires a frame sender")
	}

	c := &Controller{
		cfg:        cc.Config,
		openCamera: cc.OpenCamera,
		pose:       cc.Pose,
		hands:      cc.Hands,
		face:       cc.Face,
		sender:     cc.Sender,
		ingest:     cc.Ingest,
		rec:        cc.Recorder,
		rep:        cc.Replayer,
		gaze:       feature.NewGazeStabilizer(cc.GazeBeta, cc.GazeAlpha),
		shrug:      feature.NewShrugDetector(cc.ShrugThreshold),
		now:        time.Now,
	}
	if c.openCamera == nil {
		c.openCamera = OpenSyntheticCamera
	}
	if c.ingest == nil {
		c.ingest = emptySnapshot{}
	}
	if c.rec == nil {
		c.rec = recorder.NewRecorder()
	}
	if c.rep == nil {
		c.rep = recorder.NewReplayer()
	}
	return c, nil
}

// emptySnapshot is the no-peripheral default BlendshapeSource.
type emptySnapshot struct{}

func (emptySnapshot) Snapshot() map[string]float64 { return nil }

// State returns the controller lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Running reports whether the orchestration loop is active.
func (c *Controller) Running() bool {
	return c.State() == StateRunning
}

// Run executes the orchestration loop in the caller's goroutine until
// the context is cancelled, Stop is called, or an unrecoverable startup
// failure occurs. Mode is read once at entry: switching between live and
// replay takes effect on the next Run.
func (c *Controller) Run(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) &&
		!c.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		return fmt.Errorf("pipeline is already running")
	}
	defer c.state.Store(int32(StateStopped))

	mode := c.Config().Mode
	log.Printf("[Pipeline] starting in %s mode", mode)
	if mode == Replay {
		return c.runReplay(ctx)
	}
	return c.runLive(ctx)
}

// Start runs the loop in a background goroutine. It returns an error if
// the loop is already running; startup failures inside the loop (such as
// a camera that cannot be opened) are logged and surface via Status.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return fmt.Errorf("pipeline is already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		if err := c.Run(ctx); err != nil {
			log.Printf("[Pipeline] run ended: %v", err)
		}
		c.mu.Lock()
		c.cancel = nil
		c.done = nil
		c.mu.Unlock()
	}()
	return nil
}

// Stop cancels the running loop and waits for it to exit. Safe to call
// when not running. The loop observes cancellation at the next iteration
// boundary, never mid-send.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Config returns a copy of the current configuration.
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// UpdateConfig validates and atomically replaces the configuration. The
// network target applies immediately; camera index and feature toggles
// are picked up by the live loop on its next iteration, since config is
// read fresh every frame.
func (c *Controller) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	cfg.Mode = c.cfg.Mode
	c.cfg = cfg
	c.mu.Unlock()

	c.sender.SetTarget(cfg.SenderHost, cfg.SenderPort)
	return nil
}

// StartRecording begins a recording session. An active session is
// stopped first.
func (c *Controller) StartRecording(path, format string) error {
	return c.rec.Start(path, format)
}

// StopRecording ends the active recording session, if any.
func (c *Controller) StopRecording() {
	c.rec.Stop()
}

// StartReplay loads a recorded log and switches the pipeline to replay
// mode. The mode takes effect on the next Run.
func (c *Controller) StartReplay(path string) error {
	if err := c.rep.Load(path); err != nil {
		return fmt.Errorf("cannot load replay: %w", err)
	}
	c.mu.Lock()
	c.cfg.Mode = Replay
	c.mu.Unlock()
	return nil
}

// StopReplay stops playback and switches back to live mode.
func (c *Controller) StopReplay() {
	c.rep.Stop()
	c.mu.Lock()
	c.cfg.Mode = Live
	c.mu.Unlock()
}

// Status summarises the controller for the control API.
type Status struct {
	Running        bool   `json:"running"`
	Mode           string `json:"mode"`
	Recording      bool   `json:"recording"`
	RecordingPath  string `json:"recording_path,omitempty"`
	RecordedFrames uint64 `json:"recorded_frames"`
	ReplayState    string `json:"replay_state"`
}

// Status reports the current pipeline state.
func (c *Controller) Status() Status {
	s := Status{
		Running:        c.Running(),
		Mode:           c.Config().Mode.String(),
		Recording:      c.rec.Active(),
		RecordedFrames: c.rec.FrameCount(),
		ReplayState:    c.rep.State().String(),
	}
	if s.Recording {
		s.RecordingPath = c.rec.Path()
	}
	return s
}

// runLive captures, assembles, records and sends frames at the target
// rate. A camera that cannot be opened aborts the run; a failed read of
// a single frame does not.
func (c *Controller) runLive(ctx context.Context) error {
	cfg := c.Config()
	cam, err := c.openCamera(cfg.CameraIndex)
	if err != nil {
		return fmt.Errorf("cannot open camera %d: %w", cfg.CameraIndex, err)
	}
	defer cam.Close()
	defer c.rec.Stop()

	log.Printf("[Pipeline] live capture started (camera %d, %d fps target)",
		cfg.CameraIndex, cfg.TargetFrameRate)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Pipeline] live capture stopped")
			return nil
		default:
		}

		iterStart := c.now()
		cfg = c.Config()

		video, err := cam.Read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[Pipeline] camera read failed: %v", err)
			continue
		}

		frame := c.buildFrame(cfg, video)

		// Record before send so the log and the wire carry the identical
		// frame sequence.
		c.rec.Record(frame)
		c.sender.SendFrame(frame)

		c.pace(ctx, cfg.TargetFrameRate, c.now().Sub(iterStart))
	}
}

// buildFrame runs the enabled trackers and stabilisers over one video
// frame and merges the peripheral snapshot last, so external channels
// override locally estimated ones of the same name.
func (c *Controller) buildFrame(cfg Config, video VideoFrame) *motion.Frame {
	frame := motion.NewFrame()

	var poseLm, faceLm []r3.Vec
	if cfg.Features.Pose && c.pose != nil {
		poseLm = c.pose.Process(video)
	}
	if cfg.Features.Face && c.face != nil {
		faceLm = c.face.Process(video)
	}
	if cfg.Features.Hands && c.hands != nil {
		for name, rot := range c.hands.Process(video) {
			frame.Bones[name] = rot
		}
	}

	if cfg.Features.Shrug && poseLm != nil {
		shrug := c.shrug.Detect(poseLm)
		frame.Blendshapes[ChannelShrugLeft] = shrug.Left
		frame.Blendshapes[ChannelShrugRight] = shrug.Right
	}
	if cfg.Features.Gaze && faceLm != nil {
		t := float64(c.now().UnixNano()) / float64(time.Second)
		gaze := c.gaze.Process(faceLm, t)
		frame.Blendshapes[ChannelGazeLeftX] = gaze.Left.X
		frame.Blendshapes[ChannelGazeLeftY] = gaze.Left.Y
		frame.Blendshapes[ChannelGazeRightX] = gaze.Right.X
		frame.Blendshapes[ChannelGazeRightY] = gaze.Right.Y
	}

	for name, value := range c.ingest.Snapshot() {
		frame.Blendshapes[name] = value
	}
	return frame
}

// pace sleeps for the remainder of the frame budget. An iteration that
// overran its budget proceeds immediately; there is no catch-up beyond
// that.
func (c *Controller) pace(ctx context.Context, fps int, elapsed time.Duration) {
	remaining := time.Second/time.Duration(fps) - elapsed
	if remaining <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(remaining):
	}
}

// runReplay polls the replayer and sends each frame as it becomes due.
// Consecutive due frames drain without sleeping so playback catches up
// after tick jitter; otherwise the loop naps briefly instead of
// busy-spinning.
func (c *Controller) runReplay(ctx context.Context) error {
	if c.rep.State() != recorder.Playing {
		if err := c.rep.Start(); err != nil {
			return fmt.Errorf("cannot start replay: %w", err)
		}
	}
	log.Printf("[Pipeline] replaying %d frames", c.rep.Len())

	for {
		if frame := c.rep.NextFrame(); frame != nil {
			c.sender.SendFrame(frame)
			continue
		}

		if c.rep.State() == recorder.Stopped {
			log.Printf("[Pipeline] replay finished")
			return nil
		}

		select {
		case <-ctx.Done():
			c.rep.Stop()
			log.Printf("[Pipeline] replay stopped")
			return nil
		case <-time.After(replayPollInterval):
		}
	}
}
