package recorder

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mocap-data/motion.stream/internal/motion"
)

// ReplayState is the replayer lifecycle state.
type ReplayState int

const (
	// Unloaded means no log has been loaded yet.
	Unloaded ReplayState = iota
	// Loaded means a log is in memory, ready to play.
	Loaded
	// Playing means frames are being released on their original schedule.
	Playing
	// Stopped means playback ended or was stopped.
	Stopped
)

// String returns the state name.
func (s ReplayState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("ReplayState(%d)", int(s))
}

// Replayer loads a recorded log and reproduces its frames with the
// original inter-frame timing. The controller polls NextFrame every
// tick; a frame is released once its recorded offset has elapsed, each
// frame exactly once, never early, never skipped.
type Replayer struct {
	mu        sync.Mutex
	state     ReplayState
	entries   []Entry
	cursor    int
	startedAt time.Time
	path      string

	// now is swappable for tests.
	now func() time.Time
}

// NewReplayer returns a replayer in the Unloaded state.
func NewReplayer() *Replayer {
	return &Replayer{now: time.Now}
}

// Load reads an entire log into memory. On any I/O or parse failure the
// state stays Unloaded and the previous buffer is discarded.
func (p *Replayer) Load(path string) error {
	entries, err := ReadLog(path)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = Unloaded
		p.entries = nil
		return err
	}
	p.entries = entries
	p.cursor = 0
	p.path = path
	p.state = Loaded
	log.Printf("[Replay] loaded %d frames from %s", len(entries), path)
	return nil
}

// Start begins playback from the first entry. Requires a loaded log;
// restarting a stopped replayer replays it from the beginning.
func (p *Replayer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Loaded && p.state != Stopped {
		return fmt.Errorf("cannot start replay in state %s", p.state)
	}
	if len(p.entries) == 0 {
		return fmt.Errorf("no frames loaded")
	}
	p.cursor = 0
	p.startedAt = p.now()
	p.state = Playing
	return nil
}

// NextFrame returns the next frame once it is due, nil otherwise. Due
// means the wall-clock time since Start has reached the entry's recorded
// offset from the first entry. When the log is exhausted the state moves
// to Stopped and subsequent calls return nil.
func (p *Replayer) NextFrame() *motion.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Playing {
		return nil
	}
	if p.cursor >= len(p.entries) {
		p.state = Stopped
		log.Printf("[Replay] finished %s", p.path)
		return nil
	}

	elapsed := p.now().Sub(p.startedAt).Seconds()
	target := p.entries[p.cursor].Timestamp - p.entries[0].Timestamp
	if elapsed < target {
		return nil
	}

	frame := p.entries[p.cursor].MotionData
	p.cursor++
	return &frame
}

// Stop forces playback to Stopped from any state.
func (p *Replayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Playing {
		log.Printf("[Replay] stopped %s at frame %d/%d", p.path, p.cursor, len(p.entries))
	}
	if p.state != Unloaded {
		p.state = Stopped
	}
}

// State returns the current lifecycle state.
func (p *Replayer) State() ReplayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Len returns the number of loaded entries.
func (p *Replayer) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
