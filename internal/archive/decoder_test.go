package archive

import (
	"fmt"
	"strings"
	"testing"
)

// buildRecord hand-encodes an Intel-HEX record line (without the leading
// ':') the way the archive format expects it: length, offset, type, data,
// then a checksum that makes the byte sum come out to zero mod 256.
func buildRecord(typ byte, offset uint16, data []byte) string {
	bytes := make([]byte, 0, 4+len(data)+1)
	bytes = append(bytes, byte(len(data)), byte(offset>>8), byte(offset))
	bytes = append(bytes, typ)
	bytes = append(bytes, data...)

	var sum byte
	for _, b := range bytes {
		sum += b
	}
	checksum := byte(0) - sum
	bytes = append(bytes, checksum)

	var sb strings.Builder
	for _, b := range bytes {
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

func dataLine(offset uint16, data []byte) string {
	return ":" + buildRecord(recordData, offset, data)
}

func eofLine() string {
	return ":" + buildRecord(recordEOF, 0, nil)
}

func TestDecodeTwoProductsRoundTrip(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("PE0653=Receiver=1.0.0=initial release\n")
	sb.WriteString(dataLine(0, []byte("0123456789ABCDEF")) + "\n")
	sb.WriteString(dataLine(16, []byte("FEDCBA9876543210")) + "\n")
	sb.WriteString(eofLine() + "\n")
	sb.WriteString("PE0953=Handheld=2.1.0=second product\n")
	sb.WriteString(dataLine(0, []byte("AAAAAAAAAAAAAAAA")) + "\n")
	sb.WriteString(eofLine() + "\n")

	a, err := Decode([]byte(sb.String()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(a.Products) != 2 {
		t.Fatalf("got %d products, want 2", len(a.Products))
	}

	p1, ok := a.Products["PE0653"]
	if !ok || !p1.HasBlob {
		t.Fatalf("PE0653 missing or has no blob")
	}
	if p1.BlobLength != 32 {
		t.Fatalf("PE0653 blob length = %d, want 32", p1.BlobLength)
	}
	if string(p1.Blob[:16]) != "0123456789ABCDEF" {
		t.Fatalf("PE0653 blob[0:16] mismatch: %q", p1.Blob[:16])
	}
	if p1.BlobHash == "" {
		t.Fatalf("PE0653 blob hash not set")
	}

	p2, ok := a.Products["PE0953"]
	if !ok || !p2.HasBlob || p2.BlobLength != 16 {
		t.Fatalf("PE0953 missing, not loaded, or wrong length: %+v", p2)
	}
}

func TestDecodeUnwrittenBytesStay0xFF(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("PE0653=Receiver=1.0.0=msg\n")
	sb.WriteString(dataLine(0, bytes16(0xAA)) + "\n")
	sb.WriteString(dataLine(32, bytes16(0xBB)) + "\n") // gap at [16,32)
	sb.WriteString(eofLine() + "\n")

	a, err := Decode([]byte(sb.String()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	p := a.Products["PE0653"]
	if p.BlobLength != 48 {
		t.Fatalf("blob length = %d, want 48", p.BlobLength)
	}
	for i := 16; i < 32; i++ {
		if p.Blob[i] != 0xFF {
			t.Fatalf("byte %d = %#x, want 0xFF (never written)", i, p.Blob[i])
		}
	}
}

func bytes16(b byte) []byte {
	out := make([]byte, 16)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestDecodeUnsupportedRecordType(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("PE0653=Receiver=1.0.0=msg\n")
	sb.WriteString(":" + buildRecord(0x03, 0, []byte{0x01}) + "\n")

	_, err := Decode([]byte(sb.String()))
	if err == nil {
		t.Fatal("expected error for unsupported record type")
	}
	if !strings.Contains(err.Error(), "0x03") {
		t.Fatalf("error does not name the unsupported type: %v", err)
	}
}

func TestDecodeDuplicateEOFRejected(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("PE0653=Receiver=1.0.0=msg\n")
	sb.WriteString(dataLine(0, bytes16(0x11)) + "\n")
	sb.WriteString(eofLine() + "\n")
	sb.WriteString(dataLine(0, bytes16(0x22)) + "\n")
	sb.WriteString(eofLine() + "\n")

	_, err := Decode([]byte(sb.String()))
	if err == nil {
		t.Fatal("expected duplicate blob error")
	}
}

func TestDecodeHeaderInterleavedWithRecordsRejected(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("PE0653=Receiver=1.0.0=msg\n")
	sb.WriteString(dataLine(0, bytes16(0x11)) + "\n")
	sb.WriteString("PE0953=Handheld=2.0.0=other\n") // blob still being assembled
	_, err := Decode([]byte(sb.String()))
	if err == nil {
		t.Fatal("expected interleaving error")
	}
}

func TestDecodeFormatVersionFromFirstNonRecordLine(t *testing.T) {
	data := "FWPACK-v3\nPE0653=Receiver=1.0.0=msg\n" + dataLine(0, bytes16(0x00)) + "\n" + eofLine() + "\n"
	a, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if a.FormatVersion != "FWPACK-v3" {
		t.Fatalf("FormatVersion = %q, want FWPACK-v3", a.FormatVersion)
	}
}

func TestDecodeCRLFAccepted(t *testing.T) {
	data := "PE0653=Receiver=1.0.0=msg\r\n" + dataLine(0, bytes16(0x00)) + "\r\n" + eofLine() + "\r\n"
	a, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode with CRLF: %v", err)
	}
	if !a.Products["PE0653"].HasBlob {
		t.Fatalf("expected blob to be assembled despite CRLF line endings")
	}
}

func TestDecodeBadChecksumRejected(t *testing.T) {
	line := dataLine(0, bytes16(0x00))
	// Flip the last checksum hex digit to break the checksum.
	corrupted := line[:len(line)-1] + flipHexDigit(line[len(line)-1])
	data := "PE0653=Receiver=1.0.0=msg\n" + corrupted + "\n"
	_, err := Decode([]byte(data))
	if err == nil {
		t.Fatal("expected checksum error")
	}
}

func flipHexDigit(c byte) string {
	if c == '0' {
		return "1"
	}
	return "0"
}

func TestDecodeExtendedSegmentAddress(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("PE0653=Receiver=1.0.0=msg\n")
	sb.WriteString(":" + buildRecord(recordExtendedSegmentAddr, 0, []byte{0x10, 0x00}) + "\n")
	sb.WriteString(dataLine(0, bytes16(0x77)) + "\n")
	sb.WriteString(eofLine() + "\n")

	a, err := Decode([]byte(sb.String()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	p := a.Products["PE0653"]
	// address = (0x1000 << 4) + 0 = 0x10000
	if p.BlobLength != 0x10000+16 {
		t.Fatalf("blob length = %#x, want %#x", p.BlobLength, 0x10000+16)
	}
}
