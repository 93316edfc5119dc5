package recorder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mocap-data/motion.stream/internal/motion"
)

// Recorder appends wall-clock-tagged frames to a jsonl log while a
// session is active. The orchestration loop is the only caller of
// Record, so frames land in the log in exactly the order they were sent.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	w      *bufio.Writer
	path   string
	frames uint64

	// now is swappable for tests.
	now func() time.Time
}

// NewRecorder returns an inactive recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Start opens a new recording session at path, creating parent
// directories as needed. An active session is stopped first: at most one
// recording is ever active. Fails if the format is unsupported or the
// destination cannot be opened; the caller must retry.
func (r *Recorder) Start(path, format string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if format != FormatJSONL {
		return fmt.Errorf("unsupported recording format %q (only %q)", format, FormatJSONL)
	}

	if r.file != nil {
		log.Printf("[Recorder] stopping active recording %s before starting %s", r.path, path)
		r.stopLocked()
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open recording destination: %w", err)
	}

	r.file = f
	r.w = bufio.NewWriter(f)
	r.path = path
	r.frames = 0
	log.Printf("[Recorder] recording to %s", path)
	return nil
}

// Record appends one frame tagged with the current wall-clock time. A
// no-op when no session is active. A serialisation failure skips the
// frame; a write failure ends the session. Neither is fatal to the
// caller's streaming loop.
func (r *Recorder) Record(frame *motion.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return
	}

	entry := Entry{
		Timestamp:  float64(r.now().UnixNano()) / float64(time.Second),
		MotionData: *frame,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[Recorder] failed to serialise frame, skipping: %v", err)
		return
	}
	data = append(data, '\n')
	if _, err := r.w.Write(data); err != nil {
		log.Printf("[Recorder] write failed, stopping recording: %v", err)
		r.stopLocked()
		return
	}
	r.frames++
}

// Stop flushes and closes the active session. Safe to call when not
// recording.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Recorder) stopLocked() {
	if r.file == nil {
		return
	}
	if err := r.w.Flush(); err != nil {
		log.Printf("[Recorder] flush failed for %s: %v", r.path, err)
	}
	if err := r.file.Close(); err != nil {
		log.Printf("[Recorder] close failed for %s: %v", r.path, err)
	}
	log.Printf("[Recorder] stopped recording %s (%d frames)", r.path, r.frames)
	r.file = nil
	r.w = nil
}

// Active reports whether a session is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file != nil
}

// Path returns the destination of the current or last session.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// FrameCount returns the number of frames written this session.
func (r *Recorder) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}
