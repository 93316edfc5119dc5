package vmc

import (
	"errors"
	"testing"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mocap-data/motion.stream/internal/motion"
)

// captureClient records every packet instead of transmitting it.
type captureClient struct {
	packets []*osc.Message
	err     error
}

func (c *captureClient) Send(packet osc.Packet) error {
	if c.err != nil {
		return c.err
	}
	c.packets = append(c.packets, packet.(*osc.Message))
	return nil
}

func newTestSender() (*Sender, *captureClient) {
	capture := &captureClient{}
	s := &Sender{
		host: "127.0.0.1",
		port: DefaultPort,
		dial: func(host string, port int) Client { return capture },
	}
	s.client = capture
	return s, capture
}

func addresses(msgs []*osc.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Address
	}
	return out
}

func TestSendFrameMessageSequence(t *testing.T) {
	t.Parallel()

	s, capture := newTestSender()

	f := motion.NewFrame()
	f.Root = motion.Transform{Position: motion.Vec3{Y: 1.4}, Rotation: motion.Identity()}
	f.Bones["Head"] = motion.Identity()
	f.Bones["Chest"] = motion.Identity()
	f.Blendshapes["jawOpen"] = 0.42
	f.Blendshapes["eyeBlink_L"] = 1.0
	s.SendFrame(f)

	assert.Equal(t, []string{
		AddrRootPos,
		AddrBonePos, AddrBonePos,
		AddrBlendVal, AddrBlendVal,
		AddrBlendApply,
	}, addresses(capture.packets))

	// Bones and blendshapes go out in sorted name order.
	assert.Equal(t, "Chest", capture.packets[1].Arguments[0])
	assert.Equal(t, "Head", capture.packets[2].Arguments[0])
	assert.Equal(t, "eyeBlink_L", capture.packets[3].Arguments[0])
	assert.Equal(t, "jawOpen", capture.packets[4].Arguments[0])
}

func TestSendFrameEmptyFrameSendsRootOnly(t *testing.T) {
	t.Parallel()

	s, capture := newTestSender()
	s.SendFrame(motion.NewFrame())

	require.Len(t, capture.packets, 1)
	assert.Equal(t, AddrRootPos, capture.packets[0].Address)
}

func TestSendFrameRootMessageLayout(t *testing.T) {
	t.Parallel()

	s, capture := newTestSender()

	f := motion.NewFrame()
	f.Root = motion.Transform{
		Position: motion.Vec3{X: 0.1, Y: 1.4, Z: -0.2},
		Rotation: motion.Quat{X: 0, Y: 1, Z: 0, W: 0},
	}
	s.SendFrame(f)

	require.Len(t, capture.packets, 1)
	args := capture.packets[0].Arguments
	require.Len(t, args, 8)
	assert.Equal(t, "root", args[0])
	assert.Equal(t, float32(0.1), args[1])
	assert.Equal(t, float32(1.4), args[2])
	assert.Equal(t, float32(-0.2), args[3])
	assert.Equal(t, float32(1), args[5], "rotation y")
	assert.Equal(t, float32(0), args[7], "rotation w")
}

func TestSendFrameSanitisesRotations(t *testing.T) {
	t.Parallel()

	s, capture := newTestSender()

	f := motion.NewFrame()
	f.Bones["Head"] = motion.Quat{} // zero quaternion from a glitched tracker
	s.SendFrame(f)

	require.Len(t, capture.packets, 2)
	args := capture.packets[1].Arguments
	require.Len(t, args, 8)
	// Identity substituted: rotation (0,0,0,1), position always zero for bones.
	assert.Equal(t, float32(0), args[1])
	assert.Equal(t, float32(0), args[4])
	assert.Equal(t, float32(1), args[7])
}

func TestSendFrameClampsBlendshapes(t *testing.T) {
	t.Parallel()

	s, capture := newTestSender()

	f := motion.NewFrame()
	f.Blendshapes["jawOpen"] = 1.7
	f.Blendshapes["mouthSmile_L"] = -0.3
	s.SendFrame(f)

	byName := make(map[string]float32)
	for _, m := range capture.packets {
		if m.Address == AddrBlendVal {
			byName[m.Arguments[0].(string)] = m.Arguments[1].(float32)
		}
	}
	assert.Equal(t, float32(1), byName["jawOpen"])
	assert.Equal(t, float32(0), byName["mouthSmile_L"])
}

func TestSendErrorsCountedNotReturned(t *testing.T) {
	t.Parallel()

	s, capture := newTestSender()
	capture.err = errors.New("network unreachable")

	f := motion.NewFrame()
	f.Blendshapes["jawOpen"] = 0.5
	s.SendFrame(f)

	// Root + one blend value + apply, all failed.
	assert.Equal(t, uint64(3), s.SendErrors())
}

func TestSetTarget(t *testing.T) {
	t.Parallel()

	var dials int
	s := &Sender{
		host: "127.0.0.1",
		port: DefaultPort,
		dial: func(host string, port int) Client {
			dials++
			return &captureClient{}
		},
	}
	s.client = s.dial(s.host, s.port)
	require.Equal(t, 1, dials)

	s.SetTarget("127.0.0.1", DefaultPort)
	assert.Equal(t, 1, dials, "same target must not redial")

	s.SetTarget("10.0.0.5", 39540)
	assert.Equal(t, 2, dials)
	host, port := s.Target()
	assert.Equal(t, "10.0.0.5", host)
	assert.Equal(t, 39540, port)
}
