package archive

import (
	"encoding/hex"
	"strings"
)

// EncodeIHex renders a product's finalized blob back into Intel-HEX text,
// the inverse of the data/EOF/extended-segment-address records this
// package decodes. Used by the CLI's describe --write-ihex flag.
func EncodeIHex(p *FirmwareProduct) []byte {
	var b strings.Builder
	var currentExt uint16

	for address := 0; address < len(p.Blob); address += 16 {
		ext := uint16((address >> 16) << 12)
		if ext != currentExt {
			b.WriteString(hexLine(2, 0, recordExtendedSegmentAddr, []byte{byte(ext >> 8), byte(ext)}))
			b.WriteByte('\n')
			currentExt = ext
		}

		offset := uint16(address & 0xFFFF)
		end := address + 16
		if end > len(p.Blob) {
			end = len(p.Blob)
		}
		chunk := p.Blob[address:end]
		b.WriteString(hexLine(len(chunk), offset, recordData, chunk))
		b.WriteByte('\n')
	}

	b.WriteString(hexLine(0, 0, recordEOF, nil))
	b.WriteByte('\n')
	return []byte(b.String())
}

func hexLine(length int, offset uint16, typ byte, data []byte) string {
	row := make([]byte, 0, 4+length+1)
	row = append(row, byte(length), byte(offset>>8), byte(offset), typ)
	row = append(row, data...)

	var sum byte
	for _, v := range row {
		sum += v
	}
	row = append(row, byte(-sum))

	return ":" + strings.ToUpper(hex.EncodeToString(row))
}
