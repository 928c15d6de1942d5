// Package protocol holds the wire-level constants and framing helpers
// shared by the upload engine, the transports, and the CLI:
// the fixed command byte, packet type tags, and the CRC-16 framing of
// DATA packets.
package protocol

import "github.com/zwpool/fwupdate/internal/crc"

// CommandFirmwareTransfer is the single command code carried in byte 0 of
// every packet of this protocol, over the Manufacturer-Proprietary
// Command Class.
const CommandFirmwareTransfer = 42

// Packet type tags (byte 1).
const (
	TypeStart       = 0
	TypeData        = 2
	TypeDataRequest = 3
	TypeDone        = 6
	TypeCRCError    = 7
)

// KnownFirmwareSize is the size of a valid blob for the receiver model.
const KnownFirmwareSize = 116 * 1024

// MaxTimeouts is the number of consecutive timeouts the upload engine
// tolerates before giving up on the in-flight packet.
const MaxTimeouts = 5

// DataWindowSize is the number of firmware bytes carried per DATA packet.
const DataWindowSize = 32

// ManufacturerID, ProductType and the known product ids identify Z-Wave
// nodes this client can update.
const (
	ManufacturerID = 0x0005
	ProductType    = 0x5045

	ProductIDReceiver = 0x0653
	ProductIDHandheld = 0x0953
)

// CommandClassManufacturerProprietary is the Z-Wave command class this
// protocol rides on, as carried in the gateway RPC's commandClass field.
const CommandClassManufacturerProprietary = 145

// ProductCodeFor maps a Manufacturer-Proprietary product id to the
// archive's product code, or "" if the id is not one this client knows.
func ProductCodeFor(productID uint16) string {
	switch productID {
	case ProductIDReceiver:
		return "PE0653"
	case ProductIDHandheld:
		return "PE0953"
	default:
		return ""
	}
}

// Start builds the one-shot START packet.
func Start() []byte {
	return []byte{CommandFirmwareTransfer, TypeStart}
}

// DataRequest builds a DATA_REQUEST reply packet for seq, as emitted by
// the fake transport's device simulator.
func DataRequest(seq uint16) []byte {
	return []byte{CommandFirmwareTransfer, TypeDataRequest, byte(seq), byte(seq >> 8)}
}

// CRCErrorReply builds a CRC_ERROR reply packet for seq.
func CRCErrorReply(seq uint16) []byte {
	return []byte{CommandFirmwareTransfer, TypeCRCError, byte(seq), byte(seq >> 8)}
}

// Done builds a DONE packet for seq (used both as an engine request, with
// no payload beyond the sequence number, and as a device reply).
func Done(seq uint16) []byte {
	return []byte{CommandFirmwareTransfer, TypeDone, byte(seq), byte(seq >> 8)}
}

// DataPacket builds a DATA packet carrying up to DataWindowSize bytes of
// chunk at sequence seq, with a trailing little-endian XMODEM CRC-16 over
// everything preceding it.
func DataPacket(seq uint16, chunk []byte) []byte {
	packet := make([]byte, 0, 4+len(chunk)+2)
	packet = append(packet, CommandFirmwareTransfer, TypeData, byte(seq), byte(seq>>8))
	packet = append(packet, chunk...)

	c := crc.CRC16(packet)
	// Carried little-endian on the wire: low byte first.
	packet = append(packet, byte(c), byte(c>>8))
	return packet
}

// VerifyDataCRC checks the trailing little-endian CRC-16 of a DATA packet
// against the bytes preceding it. packet must be at least 6 bytes
// (4-byte header + 2-byte CRC, 0-byte payload being the degenerate case).
func VerifyDataCRC(packet []byte) bool {
	if len(packet) < 6 {
		return false
	}
	body := packet[:len(packet)-2]
	want := crc.CRC16(body)
	got := uint16(packet[len(packet)-2]) | uint16(packet[len(packet)-1])<<8
	return got == want
}
