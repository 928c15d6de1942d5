package transport

import (
	"context"
	"testing"

	"github.com/zwpool/fwupdate/internal/protocol"
)

func TestFakeHappyPathSequence(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	reply, err := f.SendAndReceive(ctx, protocol.Start())
	if err != nil {
		t.Fatalf("SendAndReceive(START): %v", err)
	}
	if len(reply) < 4 || reply[1] != protocol.TypeDataRequest {
		t.Fatalf("got reply %v, want DATA_REQUEST", reply)
	}

	blob := make([]byte, protocol.KnownFirmwareSize)
	for i := range blob {
		blob[i] = byte(i)
	}

	seq := uint16(0)
	for {
		offset := int(seq) * protocol.DataWindowSize
		if offset >= len(blob) {
			break
		}
		end := offset + protocol.DataWindowSize
		if end > len(blob) {
			end = len(blob)
		}
		packet := protocol.DataPacket(seq, blob[offset:end])
		reply, err = f.SendAndReceive(ctx, packet)
		if err != nil {
			t.Fatalf("SendAndReceive(DATA seq=%d): %v", seq, err)
		}
		if len(reply) < 4 || reply[1] != protocol.TypeDataRequest {
			t.Fatalf("seq %d: got reply %v, want DATA_REQUEST", seq, reply)
		}
		gotSeq := uint16(reply[2]) | uint16(reply[3])<<8
		if gotSeq != seq+1 {
			t.Fatalf("seq %d: device asked for %d, want %d", seq, gotSeq, seq+1)
		}
		seq++
	}

	if string(f.Blob()) != string(blob) {
		t.Fatalf("simulator blob does not match uploaded content")
	}
	wantPackets := (len(blob) + protocol.DataWindowSize - 1) / protocol.DataWindowSize
	if len(f.ReceivedSeqs) != wantPackets {
		t.Fatalf("got %d received packets, want %d", len(f.ReceivedSeqs), wantPackets)
	}

	doneReply, err := f.SendAndReceive(ctx, protocol.Done(seq))
	if err != nil {
		t.Fatalf("SendAndReceive(DONE): %v", err)
	}
	if doneReply != nil {
		t.Fatalf("expected DONE reply to be lost by default, got %v", doneReply)
	}
	if !f.Done() {
		t.Fatalf("expected simulator to have reached the done state")
	}
}

func TestFakeDoneReplyObservedWhenNotLost(t *testing.T) {
	f := NewFake()
	f.DoneIsLost = false
	ctx := context.Background()

	if _, err := f.SendAndReceive(ctx, protocol.Start()); err != nil {
		t.Fatalf("SendAndReceive(START): %v", err)
	}
	reply, err := f.SendAndReceive(ctx, protocol.Done(0))
	if err != nil {
		t.Fatalf("SendAndReceive(DONE): %v", err)
	}
	if len(reply) < 2 || reply[1] != protocol.TypeDone {
		t.Fatalf("got reply %v, want DONE", reply)
	}
}

func TestFakeDroppedRepliesVanish(t *testing.T) {
	f := NewFake()
	f.DroppedReplies = 2
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		reply, err := f.SendAndReceive(ctx, protocol.Start())
		if err != nil {
			t.Fatalf("SendAndReceive: %v", err)
		}
		if reply != nil {
			t.Fatalf("attempt %d: expected dropped reply, got %v", i, reply)
		}
	}
	reply, err := f.SendAndReceive(ctx, protocol.Start())
	if err != nil {
		t.Fatalf("SendAndReceive: %v", err)
	}
	if reply == nil {
		t.Fatalf("expected a reply once the drop budget is exhausted")
	}
}

func TestFakeBadCRCIsSilentlyDropped(t *testing.T) {
	f := NewFake()
	ctx := context.Background()
	if _, err := f.SendAndReceive(ctx, protocol.Start()); err != nil {
		t.Fatalf("SendAndReceive(START): %v", err)
	}

	packet := protocol.DataPacket(0, []byte{1, 2, 3})
	packet[len(packet)-1] ^= 0xFF // corrupt the trailing CRC byte

	reply, err := f.SendAndReceive(ctx, packet)
	if err != nil {
		t.Fatalf("SendAndReceive: %v", err)
	}
	if reply != nil {
		t.Fatalf("expected a corrupted DATA packet to go unanswered, got %v", reply)
	}
}
