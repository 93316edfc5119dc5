package ingest

import "sync"

// Store holds the most recent value of every catalogue channel. A single
// writer (the ingest source) applies whole messages; the pipeline loop
// reads snapshots. A reader never observes a partially applied message.
type Store struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewStore returns a store with every channel initialised to 0.
func NewStore() *Store {
	values := make(map[string]float64, len(Channels))
	for _, name := range Channels {
		values[name] = 0
	}
	return &Store{values: values}
}

// Apply merges one parsed message into the store atomically. Unknown
// keys are ignored; channels absent from the message keep their last
// known-good value.
func (s *Store) Apply(values map[string]float64) {
	if len(values) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, value := range values {
		if KnownChannel(name) {
			s.values[name] = value
		}
	}
}

// Snapshot returns a copy of the full current channel set. Non-blocking
// with respect to writers beyond the read lock.
func (s *Store) Snapshot() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]float64, len(s.values))
	for name, value := range s.values {
		snapshot[name] = value
	}
	return snapshot
}
