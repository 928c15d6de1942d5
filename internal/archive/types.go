package archive

import (
	"crypto/sha256"
	"encoding/hex"
)

// maxBlobLength is the fixed capacity of a product's in-progress blob
// buffer, matching the device's flash slot size.
const maxBlobLength = 128 * 1024

// FirmwareArchive is the fully decoded result of an archive file: a
// format version string and the set of products it carries firmware for.
// Built once by Decode, then read-only.
type FirmwareArchive struct {
	FormatVersion string
	Products      map[string]*FirmwareProduct
}

// FirmwareProduct is one product's metadata plus, once its EOF record has
// been seen, its firmware blob. HasBlob distinguishes a metadata-only
// record from a fully-loaded one by construction rather than a nil check
// on Blob — Blob is set exactly once, when the product's EOF record
// finalizes it.
type FirmwareProduct struct {
	ID      string
	Name    string
	Version string
	Message string

	HasBlob    bool
	Blob       []byte
	BlobLength int
	BlobHash   string // SHA-256, hex-encoded

	buf *blobBuffer // in-progress assembly state; nil once finalized or before the first data or extended-segment-address record
}

// blobBuffer accumulates Intel-HEX data records for one product before its
// EOF record finalizes the blob.
type blobBuffer struct {
	data                   [maxBlobLength]byte
	extendedSegmentAddress uint16
	maxAddress             int // highest byte index ever written + 1
}

func newBlobBuffer() *blobBuffer {
	b := &blobBuffer{}
	for i := range b.data {
		b.data[i] = 0xFF
	}
	return b
}

// finalize truncates the buffer to [0, maxAddress) and attaches the
// resulting blob, length, and hash to p. Returns ErrSemantics if p already
// has a blob.
func (p *FirmwareProduct) finalize() error {
	if p.HasBlob {
		return errDuplicateBlob(p.ID)
	}
	blob := make([]byte, p.buf.maxAddress)
	copy(blob, p.buf.data[:p.buf.maxAddress])

	sum := sha256.Sum256(blob)

	p.Blob = blob
	p.BlobLength = len(blob)
	p.BlobHash = hex.EncodeToString(sum[:])
	p.HasBlob = true
	p.buf = nil
	return nil
}
