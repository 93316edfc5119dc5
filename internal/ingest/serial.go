package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"

	"go.bug.st/serial"
)

// SerialSource reads line-delimited key=value messages from a serial
// peripheral and feeds them into a Store, sharing the parser and the
// single-writer discipline with the UDP path.
type SerialSource struct {
	path  string
	baud  int
	store *Store

	// open is swappable for tests.
	open func(path string, baud int) (io.ReadCloser, error)

	parseErrs uint64
}

// NewSerialSource returns an unstarted source for the serial device at
// path. A non-positive baud defaults to 115200.
func NewSerialSource(path string, baud int, store *Store) *SerialSource {
	if baud <= 0 {
		baud = 115200
	}
	return &SerialSource{
		path:  path,
		baud:  baud,
		store: store,
		open: func(path string, baud int) (io.ReadCloser, error) {
			return serial.Open(path, &serial.Mode{BaudRate: baud})
		},
	}
}

// Start reads lines until the context is cancelled or the port fails.
// Malformed lines are logged and dropped.
func (s *SerialSource) Start(ctx context.Context) error {
	port, err := s.open(s.path, s.baud)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.path, err)
	}

	// Closing the port unblocks the scanner when the context ends.
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	log.Printf("[Ingest] reading serial port %s at %d baud", s.path, s.baud)

	scanner := bufio.NewScanner(port)
	scanner.Buffer(make([]byte, maxDatagram), maxDatagram)
	for scanner.Scan() {
		s.handle(scanner.Bytes())
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("serial read failed: %w", err)
	}
	return nil
}

func (s *SerialSource) handle(payload []byte) {
	values, err := Parse(payload)
	if err != nil {
		s.parseErrs++
		if s.parseErrs == 1 || s.parseErrs%100 == 0 {
			log.Printf("[Ingest] dropped serial line (%d total): %v", s.parseErrs, err)
		}
		return
	}
	s.store.Apply(values)
}
