package ingest

import (
	"net"
	"time"
)

// UDPSocket abstracts the UDP socket operations the listener needs, so
// the receive loop can be unit tested without real network connections.
type UDPSocket interface {
	ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error)
	SetReadDeadline(t time.Time) error
	Close() error
	LocalAddr() net.Addr
}

// UDPSocketFactory creates UDP sockets, enabling injection for tests.
type UDPSocketFactory interface {
	ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error)
}

// RealUDPSocketFactory implements UDPSocketFactory using net.ListenUDP.
type RealUDPSocketFactory struct{}

// ListenUDP opens a real UDP socket.
func (RealUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error) {
	conn, err := net.ListenUDP(network, laddr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// MockUDPSocket implements UDPSocket for testing. Packets are returned
// in order; once exhausted, reads simulate timeouts, or report the
// socket closed when CloseWhenDrained is set so a receive loop under
// test terminates without real elapsed time.
type MockUDPSocket struct {
	Packets          [][]byte
	ReadIndex        int
	Closed           bool
	CloseWhenDrained bool
	Deadline         time.Time
}

// ReadFromUDP returns the next queued packet, or a timeout error when
// the queue is exhausted.
func (m *MockUDPSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	if m.Closed {
		return 0, nil, net.ErrClosed
	}
	if m.ReadIndex >= len(m.Packets) {
		if m.CloseWhenDrained {
			m.Closed = true
			return 0, nil, net.ErrClosed
		}
		return 0, nil, &net.OpError{Op: "read", Net: "udp", Err: &timeoutError{}}
	}
	pkt := m.Packets[m.ReadIndex]
	m.ReadIndex++
	return copy(b, pkt), &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)}, nil
}

// SetReadDeadline records the deadline.
func (m *MockUDPSocket) SetReadDeadline(t time.Time) error {
	m.Deadline = t
	return nil
}

// Close marks the socket closed.
func (m *MockUDPSocket) Close() error {
	m.Closed = true
	return nil
}

// LocalAddr returns a fixed loopback address.
func (m *MockUDPSocket) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 49983}
}

// MockUDPSocketFactory returns a fixed socket from ListenUDP.
type MockUDPSocketFactory struct {
	Socket *MockUDPSocket
	Err    error
}

// ListenUDP returns the configured socket or error.
func (f *MockUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (UDPSocket, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Socket, nil
}

// timeoutError implements net.Error for timeout simulation.
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
