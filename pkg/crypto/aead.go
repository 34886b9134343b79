// aead.go implements the AEAD primitive used by the Stream duplex channel:
// XChaCha20-Poly1305.
//
// XChaCha20-Poly1305 extends ChaCha20-Poly1305 to a 24-byte nonce via the
// HChaCha20 sub-key derivation step, which is exactly the nonce length the
// Stream design needs: a 16-byte per-session constant plus an 8-byte
// monotonic counter (constants.NonceConstantSize + constants.NonceCounterSize
// = constants.NonceTotalSize).
//
// Mathematical Foundation:
//   - ChaCha20: stream cipher with 256-bit key
//   - Poly1305: one-time authenticator for the MAC
//   - HChaCha20: derives a sub-key from the first 16 nonce bytes, extending
//     the safe nonce length from 12 to 24 bytes
//   - Security: IND-CCA2 secure, 128-bit authentication tag
//
// CRITICAL: nonce reuse under the same key completely breaks security. The
// Stream type is responsible for the constant/counter composition; this file
// only seals and opens.
package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/galaxy42/polykex/internal/constants"
	qerrors "github.com/galaxy42/polykex/internal/errors"
)

// AEAD wraps an XChaCha20-Poly1305 cipher instance bound to a single
// Session Key. It performs no nonce bookkeeping; callers supply a full
// 24-byte nonce per operation (see ComposeNonce).
type AEAD struct {
	cipher interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
		Overhead() int
	}
}

// NewAEAD constructs an XChaCha20-Poly1305 AEAD from a 32-byte Session Key.
func NewAEAD(key []byte) (*AEAD, error) {
	if len(key) != constants.AEADKeyLen {
		return nil, qerrors.NewRangeError("aead.new", len(key), constants.AEADKeyLen)
	}

	c, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("aead.new", 0, qerrors.ErrKeyGenerationFailed)
	}

	return &AEAD{cipher: c}, nil
}

// ComposeNonce builds the 24-byte XChaCha20-Poly1305 nonce from the
// Stream's 16-byte per-session constant and an 8-byte big-endian counter.
func ComposeNonce(constant []byte, counter uint64) ([]byte, error) {
	if len(constant) != constants.NonceConstantSize {
		return nil, qerrors.NewRangeError("aead.compose_nonce", len(constant), constants.NonceConstantSize)
	}

	nonce := make([]byte, constants.NonceTotalSize)
	copy(nonce, constant)
	binary.BigEndian.PutUint64(nonce[constants.NonceConstantSize:], counter)
	return nonce, nil
}

// Seal encrypts and authenticates plaintext under the given nonce,
// returning ciphertext || tag. additionalData is authenticated but not
// encrypted.
func (a *AEAD) Seal(nonce, plaintext, additionalData []byte) ([]byte, error) {
	if len(nonce) != constants.NonceTotalSize {
		return nil, qerrors.NewRangeError("aead.seal", len(nonce), constants.NonceTotalSize)
	}
	return a.cipher.Seal(nil, nonce, plaintext, additionalData), nil
}

// Open verifies and decrypts ciphertext || tag under the given nonce.
// A verification failure is reported as AuthError by the caller (pkg/stream);
// this layer reports the raw sentinel.
func (a *AEAD) Open(nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != constants.NonceTotalSize {
		return nil, qerrors.NewRangeError("aead.open", len(nonce), constants.NonceTotalSize)
	}

	plaintext, err := a.cipher.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, qerrors.ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Overhead returns the number of bytes the Poly1305 tag adds to plaintext.
func (a *AEAD) Overhead() int {
	return a.cipher.Overhead()
}

// NonceSize returns the cipher's required nonce length (constants.NonceTotalSize).
func (a *AEAD) NonceSize() int {
	return a.cipher.NonceSize()
}
