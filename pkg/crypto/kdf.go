// Package crypto implements key derivation using SHAKE-256 (SHA-3 XOF).
//
// This file (kdf.go) uses SHAKE-256 (FIPS 202), an extendable-output function (XOF) based on the
// Keccak sponge construction. It provides 256-bit security against collision
// and preimage attacks, and 128-bit security against length-extension attacks.
//
// Mathematical Foundation:
//
// SHAKE-256 uses the Keccak-f[1600] permutation with rate r = 1088 and
// capacity c = 512. The sponge construction:
//
// 1. Absorb: Process message blocks through the permutation
// 2. Squeeze: Extract arbitrary-length output
//
// Security Properties:
//   - 256-bit preimage and collision resistance
//   - Extendable output: can generate arbitrary length keys
//   - No length-extension attacks (unlike SHA-2)
//   - Domain separation prevents key/message confusion
//
// Hash1 and Hash1_secret are the two normalization hashes used by the
// Session Key Derivation combiner (see pkg/kct): Hash1 binds public
// material, Hash1_secret binds secret material with an additional domain
// separator so the two hash families can never collide.
package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/galaxy42/polykex/internal/constants"
	qerrors "github.com/galaxy42/polykex/internal/errors"
)

const maxDerivedOutputLen = 1 << 20 // 1MB, a sanity bound, not a protocol limit

// DeriveKey derives key material using SHAKE-256 with domain separation.
//
// The derivation follows the construction:
//
//	output = SHAKE-256(
//	    domain_separator_length || domain_separator ||
//	    input_length || input,
//	    output_length
//	)
//
// Length prefixes are 4-byte big-endian integers to ensure unambiguous parsing.
func DeriveKey(domain string, input []byte, outputLen int) ([]byte, error) {
	return DeriveKeyMultiple(domain, [][]byte{input}, outputLen)
}

// DeriveKeyMultiple derives key material from multiple length-prefixed inputs
// with domain separation.
func DeriveKeyMultiple(domain string, inputs [][]byte, outputLen int) ([]byte, error) {
	if outputLen <= 0 || outputLen > maxDerivedOutputLen {
		return nil, qerrors.NewRangeError("kdf.derive", outputLen, maxDerivedOutputLen)
	}

	h := sha3.NewShake256()
	lenBuf := make([]byte, 4)

	domainBytes := []byte(domain)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(domainBytes)))
	h.Write(lenBuf)
	h.Write(domainBytes)

	binary.BigEndian.PutUint32(lenBuf, uint32(len(inputs)))
	h.Write(lenBuf)

	for _, input := range inputs {
		binary.BigEndian.PutUint32(lenBuf, uint32(len(input)))
		h.Write(lenBuf)
		h.Write(input)
	}

	output := make([]byte, outputLen)
	_, _ = h.Read(output) // SHAKE256.Read never fails

	return output, nil
}

// Hash1 is the public-material normalization hash: a fixed-length
// (constants.Hash1Len) SHAKE-256 digest over a domain separator and an
// arbitrary number of length-prefixed public inputs (e.g. per-cryptosystem
// shared secrets, public-key bytes).
func Hash1(inputs ...[]byte) []byte {
	out, _ := DeriveKeyMultiple(constants.DomainHash1, inputs, constants.Hash1Len)
	return out
}

// Hash1Secret is Hash1's secret-domain counterpart: same construction, a
// distinct domain separator, reserved for inputs that include key material
// that must never be derivable from, or collide with, a Hash1 output.
func Hash1Secret(inputs ...[]byte) []byte {
	out, _ := DeriveKeyMultiple(constants.DomainHash1Secret, inputs, constants.Hash1Len)
	return out
}

// ContainerHash computes the content-hash of a Typed Key Container's
// serialized wire form, used for Identity Pair binding and the handshake's
// identical-identity check.
func ContainerHash(wire []byte) []byte {
	out, _ := DeriveKey(constants.DomainContainerHash, wire, constants.Hash1Len)
	return out
}

