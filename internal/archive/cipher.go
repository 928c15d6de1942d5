package archive

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
)

// cipherKeyIV is the vendor's fixed AES-128-CBC key, reused as the IV.
// This is a legacy compatibility constraint of the archive format, not a
// security claim, and must not be changed.
const cipherKeyIV = "gbUst8Ce8Cp4bkPw"

// Decrypt reads the full ciphertext from r, decrypts it with AES-128-CBC
// using the fixed key/IV, removes PKCS#7 padding, and returns the
// plaintext bytes. It buffers the whole archive in memory; archives are a
// few hundred KB at most.
func Decrypt(r io.Reader) ([]byte, error) {
	ciphertext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read archive: %v", ErrIO, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of the block size", ErrCipher, len(ciphertext))
	}

	block, err := aes.NewCipher([]byte(cipherKeyIV))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}

	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, []byte(cipherKeyIV))
	mode.CryptBlocks(plaintext, ciphertext)

	return unpadPKCS7(plaintext)
}

func unpadPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrCipher)
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, fmt.Errorf("%w: invalid PKCS#7 padding length %d", ErrCipher, pad)
	}
	if !bytes.Equal(data[len(data)-pad:], bytes.Repeat([]byte{byte(pad)}, pad)) {
		return nil, fmt.Errorf("%w: invalid PKCS#7 padding bytes", ErrCipher)
	}
	return data[:len(data)-pad], nil
}
