package transport

import (
	"context"
	"time"

	"github.com/zwpool/fwupdate/internal/protocol"
)

// fakeDeviceState mirrors the simulator's lifecycle.
type fakeDeviceState int

const (
	fakeWait fakeDeviceState = iota
	fakeTransfer
	fakeError
	fakeDone
)

// simulatedBlobSize is the fixed buffer size of the in-process device
// simulator, matching the receiver model's known firmware size.
const simulatedBlobSize = protocol.KnownFirmwareSize

// replyDelay mimics radio latency between a packet arriving at the
// simulated device and its reply being observable by the caller.
const replyDelay = 5 * time.Millisecond

// Fake is an in-process device simulator used by the `fake-upload`
// command and by engine tests. It implements Transport directly; no
// gateway or broker is involved.
type Fake struct {
	state      fakeDeviceState
	nextSeq    uint16
	blob       [simulatedBlobSize]byte
	DoneIsLost bool // when true (the default), the device's reply to DONE never arrives

	// DroppedReplies, when > 0, makes the next N calls return a timeout
	// without the simulator processing the packet (simulating lost
	// packets) before resuming normal behavior. Tests use this to exercise
	// the engine's retransmission path.
	DroppedReplies int

	// ReceivedSeqs records every DATA sequence number the simulator has
	// accepted, in arrival order, for assertions in tests.
	ReceivedSeqs []uint16
}

// NewFake returns a simulator in its initial wait state, ready to receive
// a START packet. DoneIsLost defaults to true, matching the observed
// device behavior of silently dropping its own DONE confirmation.
func NewFake() *Fake {
	f := &Fake{DoneIsLost: true}
	for i := range f.blob {
		f.blob[i] = 0xFF
	}
	return f
}

// SendAndReceive implements Transport.
func (f *Fake) SendAndReceive(ctx context.Context, packet []byte) ([]byte, error) {
	if f.DroppedReplies > 0 {
		f.DroppedReplies--
		return nil, nil
	}

	reply := f.handle(packet)
	if reply == nil {
		return nil, nil
	}

	select {
	case <-time.After(replyDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return reply, nil
}

func (f *Fake) handle(packet []byte) []byte {
	if len(packet) < 2 || packet[0] != protocol.CommandFirmwareTransfer {
		return nil
	}
	typ := packet[1]

	switch {
	case typ == protocol.TypeStart && f.state == fakeWait:
		f.state = fakeTransfer
		f.nextSeq = 0
		return protocol.DataRequest(0)

	case typ == protocol.TypeData && f.state == fakeTransfer:
		return f.handleData(packet)

	case typ == protocol.TypeDone && f.state == fakeTransfer:
		if len(packet) < 4 {
			return nil
		}
		seq := uint16(packet[2]) | uint16(packet[3])<<8
		if seq != f.nextSeq {
			return nil
		}
		// Whole-blob CRC check is a documented no-op pass here.
		f.state = fakeDone
		if f.DoneIsLost {
			return nil
		}
		return protocol.Done(seq)

	case f.state == fakeError:
		return protocol.CRCErrorReply(f.nextSeq)

	default:
		return nil
	}
}

func (f *Fake) handleData(packet []byte) []byte {
	if len(packet) < 6 {
		return nil
	}
	seq := uint16(packet[2]) | uint16(packet[3])<<8
	if seq != f.nextSeq {
		return nil
	}
	if !protocol.VerifyDataCRC(packet) {
		// Simulate a dropped/garbled packet: no reply, engine retransmits.
		return nil
	}

	data := packet[4 : len(packet)-2]
	offset := int(seq) * protocol.DataWindowSize
	if offset+len(data) > len(f.blob) {
		f.state = fakeError
		return protocol.CRCErrorReply(f.nextSeq)
	}

	copy(f.blob[offset:offset+len(data)], data)
	f.ReceivedSeqs = append(f.ReceivedSeqs, seq)
	f.nextSeq++
	return protocol.DataRequest(f.nextSeq)
}

// Blob returns a copy of the simulator's current blob buffer, for tests
// that want to assert on received content.
func (f *Fake) Blob() []byte {
	out := make([]byte, len(f.blob))
	copy(out, f.blob[:])
	return out
}

// Done reports whether the simulator reached the done state.
func (f *Fake) Done() bool { return f.state == fakeDone }
