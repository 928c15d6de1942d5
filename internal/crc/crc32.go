package crc

import "hash/crc32"

// firmwareTable maps byte index reverseBits8(i) to reverseBits32 of the
// conventional reflected CRC-32 (poly 0xEDB88320) per-byte table entry for
// i. This lets FirmwareCRC32 be computed with ordinary table-index/shift
// logic while matching the target microcontroller's hardware CRC unit,
// which indexes from the high byte of the register and shifts left.
var firmwareTable [256]uint32

func init() {
	std := crc32.IEEETable
	for i := 0; i < 256; i++ {
		firmwareTable[reverseBits8(byte(i))] = reverseBits32(std[i])
	}
}

func reverseBits8(v byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= v & 1
		v >>= 1
	}
	return r
}

func reverseBits32(v uint32) uint32 {
	var r uint32
	for i := 0; i < 32; i++ {
		r <<= 1
		r |= v & 1
		v >>= 1
	}
	return r
}

// FirmwareCRC32 computes the bit-reversed CRC-32 variant used by the
// device's on-chip hardware CRC unit: initial value 0xFFFFFFFF, the table
// index is the high byte of the register, and the register shifts left
// rather than right. This is kept correct and exposed for tests, but the
// upload engine must never use it to reject a blob (see package upload) —
// the 116 KiB blob vs. 128 KiB flash slot size means the trailer's
// placement relative to padding is not known with confidence.
func FirmwareCRC32(data []byte) uint32 {
	reg := uint32(0xFFFFFFFF)
	for _, b := range data {
		idx := b ^ byte(reg>>24)
		reg = firmwareTable[idx] ^ (reg << 8)
	}
	return reg
}
