// Package upload drives the device-led firmware transfer state machine
// against a transport.Transport, delivering one product's blob.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zwpool/fwupdate/internal/crc"
	"github.com/zwpool/fwupdate/internal/protocol"
	"github.com/zwpool/fwupdate/internal/transport"
)

// Error kinds surfaced by Run.
var (
	ErrSizeMismatch = errors.New("upload: blob size does not match the known firmware size")
	ErrTimeout      = errors.New("upload: exceeded maximum consecutive timeouts")
	ErrCRCError     = errors.New("upload: device reported CRC_ERROR")
	ErrTransport    = errors.New("upload: transport error")
)

// Result is returned by a successful (including "assumed successful") run.
type Result struct {
	// Confirmed is true if the device replied with DONE. If false, the
	// engine exhausted its timeout budget after sending DONE and is
	// reporting success on the assumption the device applied the update
	// but its final confirmation was lost.
	Confirmed bool
}

// transferState tracks the engine's view of the exchange.
type transferState struct {
	expectedNextSeq uint16
	currentPacket   []byte
	timeouts        int
	doneSent        bool
}

// Run delivers blob to the device over t. It performs its pre-flight
// checks before sending any packet, then drives the
// request/response loop until the device confirms completion, reports a
// CRC error, or the timeout budget is exhausted.
func Run(ctx context.Context, t transport.Transport, blob []byte, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if len(blob) != protocol.KnownFirmwareSize {
		return Result{}, fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(blob), protocol.KnownFirmwareSize)
	}
	// Whole-blob CRC check: computed and logged, but never a hard gate —
	// the 116 KiB blob vs. 128 KiB flash slot layout isn't known well
	// enough here to reject on mismatch.
	logger.Debug("pre-flight firmware CRC32", "crc", fmt.Sprintf("%08x", crc.FirmwareCRC32(blob)))

	st := &transferState{currentPacket: protocol.Start()}

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		reply, err := t.SendAndReceive(ctx, st.currentPacket)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrTransport, err)
		}

		if reply == nil {
			st.timeouts++
			if st.timeouts < protocol.MaxTimeouts {
				logger.Info("timeout, retrying", "attempt", st.timeouts, "of", protocol.MaxTimeouts)
				continue
			}
			if st.doneSent {
				logger.Warn("no final confirmation from device; assuming upload succeeded")
				return Result{Confirmed: false}, nil
			}
			return Result{}, fmt.Errorf("%w", ErrTimeout)
		}

		if len(reply) < 4 || reply[0] != protocol.CommandFirmwareTransfer {
			// Malformed or foreign reply: ignore it; the next iteration
			// sends the current packet again.
			continue
		}
		st.timeouts = 0

		switch reply[1] {
		case protocol.TypeDataRequest:
			seq := uint16(reply[2]) | uint16(reply[3])<<8
			if seq != st.expectedNextSeq {
				// Device re-requested a sequence we've already answered,
				// or jumped ahead unexpectedly: ignore it; the next
				// iteration sends the current packet again.
				continue
			}
			if _, err := advance(st, blob, seq); err != nil {
				return Result{}, err
			}
			if seq > 0 && (int(seq)*protocol.DataWindowSize)%1024 == 0 {
				logger.Info("upload progress", "offset", int(seq)*protocol.DataWindowSize, "total", len(blob))
			}

		case protocol.TypeDone:
			return Result{Confirmed: true}, nil

		case protocol.TypeCRCError:
			return Result{}, fmt.Errorf("%w", ErrCRCError)

		default:
			// Unrecognized valid-command reply: ignored, and the current
			// packet is left unchanged, so the next iteration sends it
			// again (see DESIGN.md "Open Question decisions").
			logger.Warn("unrecognized reply type", "type", reply[1])
		}
	}
}

// advance builds the next outbound packet in response to a DATA_REQUEST
// for seq, mutating st accordingly.
func advance(st *transferState, blob []byte, seq uint16) (done bool, err error) {
	offset := int(seq) * protocol.DataWindowSize
	if offset >= len(blob) {
		st.currentPacket = protocol.Done(seq)
		st.doneSent = true
		st.expectedNextSeq = seq
		return true, nil
	}

	end := offset + protocol.DataWindowSize
	if end > len(blob) {
		end = len(blob)
	}
	st.currentPacket = protocol.DataPacket(seq, blob[offset:end])
	st.expectedNextSeq = seq + 1
	return false, nil
}
