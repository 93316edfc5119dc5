package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"
)

// DefaultUDPPort is the port iFacialMocap-compatible apps push to.
const DefaultUDPPort = 49983

// readTimeout bounds each blocking read so the loop observes context
// cancellation promptly.
const readTimeout = 250 * time.Millisecond

// maxDatagram is larger than any full 52-channel message.
const maxDatagram = 4096

// UDPSource listens for peripheral datagrams and feeds parsed messages
// into a Store. It is the store's only writer.
type UDPSource struct {
	address string
	store   *Store
	factory UDPSocketFactory

	parseErrs uint64
}

// UDPSourceConfig configures a UDPSource. A nil SocketFactory defaults
// to real sockets.
type UDPSourceConfig struct {
	Address       string
	Store         *Store
	SocketFactory UDPSocketFactory
}

// NewUDPSource returns an unstarted source.
func NewUDPSource(cfg UDPSourceConfig) *UDPSource {
	factory := cfg.SocketFactory
	if factory == nil {
		factory = RealUDPSocketFactory{}
	}
	return &UDPSource{address: cfg.Address, store: cfg.Store, factory: factory}
}

// Start runs the receive loop until the context is cancelled. Malformed
// payloads are logged and dropped; the store keeps its last known-good
// values. Only socket acquisition failures are returned.
func (s *UDPSource) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", s.address)
	if err != nil {
		return fmt.Errorf("failed to resolve ingest address: %w", err)
	}
	conn, err := s.factory.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on ingest address: %w", err)
	}
	defer conn.Close()

	log.Printf("[Ingest] listening on %s", conn.LocalAddr())

	buf := make([]byte, maxDatagram)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("ingest read failed: %w", err)
		}

		s.handle(buf[:n])
	}
}

// handle parses one datagram and applies it to the store.
func (s *UDPSource) handle(payload []byte) {
	values, err := Parse(payload)
	if err != nil {
		s.parseErrs++
		if s.parseErrs == 1 || s.parseErrs%100 == 0 {
			log.Printf("[Ingest] dropped payload (%d total): %v", s.parseErrs, err)
		}
		return
	}
	s.store.Apply(values)
}

// ParseErrors returns the count of dropped payloads.
func (s *UDPSource) ParseErrors() uint64 {
	return s.parseErrs
}
