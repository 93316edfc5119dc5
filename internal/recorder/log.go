// Package recorder persists timestamped motion frames to a
// newline-delimited log and replays them with their original timing.
package recorder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mocap-data/motion.stream/internal/motion"
)

// FormatJSONL is the only supported log format: one JSON record per line.
const FormatJSONL = "jsonl"

// maxLineBytes bounds a single log record. A full frame with 52
// blendshapes and a hand skeleton stays well under this.
const maxLineBytes = 1 << 20

// Entry is one recorded log record. Timestamp is wall-clock seconds at
// record time; deltas between entries drive replay pacing.
type Entry struct {
	Timestamp  float64      `json:"timestamp"`
	MotionData motion.Frame `json:"motion_data"`
}

// ReadLog loads every entry of a jsonl log in write order. Any
// unreadable line fails the whole load: a partially parsed log would
// silently skew replay timing.
func ReadLog(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("failed to parse log line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("log %s contains no entries", path)
	}
	return entries, nil
}
