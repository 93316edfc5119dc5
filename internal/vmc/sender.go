// Package vmc encodes motion frames as VMC-protocol OSC messages and
// transmits them over UDP. Sends are fire-and-forget: there is no
// acknowledgement or retry, because the next frame supersedes a lost one.
package vmc

import (
	"log"
	"sort"
	"sync"

	"github.com/hypebeast/go-osc/osc"

	"github.com/mocap-data/motion.stream/internal/motion"
)

// VMC message addresses.
const (
	AddrRootPos    = "/VMC/Ext/Root/Pos"
	AddrBonePos    = "/VMC/Ext/Bone/Pos"
	AddrBlendVal   = "/VMC/Ext/Blend/Val"
	AddrBlendApply = "/VMC/Ext/Blend/Apply"
)

// DefaultPort is the standard VMC receiver port.
const DefaultPort = 39539

// Client sends a single OSC packet. Satisfied by *osc.Client; a capture
// implementation backs the encoder tests.
type Client interface {
	Send(packet osc.Packet) error
}

// dialFunc builds a Client for a destination. Swappable for tests.
type dialFunc func(host string, port int) Client

func dialOSC(host string, port int) Client {
	return osc.NewClient(host, port)
}

// Sender serialises frames into the VMC wire sequence and transmits
// them. Retargeting is atomic with respect to an in-flight frame: the
// mutex is held for a frame's entire message sequence, so a single frame
// is never split between an old and a new destination.
type Sender struct {
	mu     sync.Mutex
	client Client
	host   string
	port   int
	dial   dialFunc

	sendErrs uint64
}

// NewSender returns a Sender pointed at host:port.
func NewSender(host string, port int) *Sender {
	s := &Sender{host: host, port: port, dial: dialOSC}
	s.client = s.dial(host, port)
	return s
}

// SetTarget re-points the sender. Takes effect for the next frame; an
// in-flight frame completes against the old destination.
func (s *Sender) SetTarget(host string, port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if host == s.host && port == s.port {
		return
	}
	s.host, s.port = host, port
	s.client = s.dial(host, port)
	log.Printf("[VMC] sender retargeted to %s:%d", host, port)
}

// Target returns the current destination.
func (s *Sender) Target() (host string, port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host, s.port
}

// SendErrors returns the number of messages that failed to transmit.
func (s *Sender) SendErrors() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendErrs
}

// clamp bounds a blendshape value to [0,1]. Out-of-range values are
// clamped, never rejected.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SendFrame emits the wire sequence for one frame: root transform, one
// message per bone, one per blendshape, then the blend apply commit.
// Bones and blendshapes are sent in sorted name order so the sequence is
// deterministic. Transmission errors are counted and logged sparsely,
// not returned: frame loss is tolerated by design.
func (s *Sender) SendFrame(f *motion.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := osc.NewMessage(AddrRootPos)
	root.Append("root")
	appendTransform(root, f.Root.Position, f.Root.Rotation.OrIdentity())
	s.send(root)

	for _, name := range sortedKeys(f.Bones) {
		msg := osc.NewMessage(AddrBonePos)
		msg.Append(name)
		appendTransform(msg, motion.Vec3{}, f.Bones[name].OrIdentity())
		s.send(msg)
	}

	if len(f.Blendshapes) == 0 {
		return
	}
	for _, name := range sortedKeys(f.Blendshapes) {
		msg := osc.NewMessage(AddrBlendVal)
		msg.Append(name)
		msg.Append(float32(clamp(f.Blendshapes[name])))
		s.send(msg)
	}
	s.send(osc.NewMessage(AddrBlendApply))
}

func (s *Sender) send(msg *osc.Message) {
	if err := s.client.Send(msg); err != nil {
		s.sendErrs++
		if s.sendErrs == 1 || s.sendErrs%1000 == 0 {
			log.Printf("[VMC] send failed (%d total): %v", s.sendErrs, err)
		}
	}
}

func appendTransform(msg *osc.Message, pos motion.Vec3, rot motion.Quat) {
	msg.Append(float32(pos.X))
	msg.Append(float32(pos.Y))
	msg.Append(float32(pos.Z))
	msg.Append(float32(rot.X))
	msg.Append(float32(rot.Y))
	msg.Append(float32(rot.Z))
	msg.Append(float32(rot.W))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
