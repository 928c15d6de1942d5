package archive

import "errors"

// Error kinds surfaced by the decryptor and decoder. Callers distinguish
// them with errors.Is; the wrapped message carries the offending detail
// (line number, record type, product id).
var (
	// ErrIO wraps failures reading the archive file itself.
	ErrIO = errors.New("archive: io error")
	// ErrCipher wraps AES-CBC decrypt/unpad failures.
	ErrCipher = errors.New("archive: cipher error")
	// ErrSyntax wraps record framing, checksum, and unsupported-type errors.
	ErrSyntax = errors.New("archive: syntax error")
	// ErrSemantics wraps duplicate-blob and metadata/record interleaving errors.
	ErrSemantics = errors.New("archive: semantics error")
)
