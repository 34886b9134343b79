// sidh.go implements the SIDH_p751 adapter.
//
// The real SIDH_p751 (supersingular isogeny Diffie-Hellman over a 751-bit
// prime field) is consumed as an opaque primitive per the purpose and scope
// of this core: curve arithmetic, lattice encryption, isogeny operations,
// and AEAD are external collaborators with the contracts this file exposes,
// not algorithms this package re-implements. The adapter here stands in for
// that contract using two independent X25519 sub-keypairs, matching the
// two-sub-keypair structure the design calls for (agree_side_A /
// agree_side_B over disjoint halves) without claiming isogeny-hard security.
package primitive

import (
	"crypto/ecdh"

	"github.com/galaxy42/polykex/internal/constants"
	qerrors "github.com/galaxy42/polykex/internal/errors"
	"github.com/galaxy42/polykex/pkg/crypto"
	"github.com/galaxy42/polykex/pkg/secretbuf"
)

// SIDHKeyPair holds the two independent sub-keypairs that make up one
// logical SIDH_p751 key: the public half is pub_a ∥ pub_b, the secret half
// is sec_a ∥ sec_b.
type SIDHKeyPair struct {
	PubA, PubB []byte
	SecA, SecB *secretbuf.Buffer
}

// PublicBytes returns the concatenated logical public key pub_a ∥ pub_b.
func (kp *SIDHKeyPair) PublicBytes() []byte {
	out := make([]byte, 0, len(kp.PubA)+len(kp.PubB))
	out = append(out, kp.PubA...)
	out = append(out, kp.PubB...)
	return out
}

// SecretBytes returns an explicit copy of the concatenated logical secret
// key sec_a ∥ sec_b. The caller owns the returned slice.
func (kp *SIDHKeyPair) SecretBytes() []byte {
	out := make([]byte, 0, constants.SIDHPrivateKeySize)
	out = append(out, kp.SecA.CopyOut()...)
	out = append(out, kp.SecB.CopyOut()...)
	return out
}

// Destroy releases the underlying secret buffers.
func (kp *SIDHKeyPair) Destroy() {
	if kp.SecA != nil {
		kp.SecA.Destroy()
	}
	if kp.SecB != nil {
		kp.SecB.Destroy()
	}
}

// GenerateSIDH generates a fresh SIDH_p751 logical key pair: two
// independent sub-keypairs, each validated before being returned. Curve
// context acquisition in the real vendor library is scope-bound with
// explicit wipe on every exit path; this adapter's "context" is the
// standard library ecdh.Curve value, which holds no secret state, so the
// equivalent obligation here is limited to wiping the scratch private-key
// bytes once they are copied into the Secret Buffer.
func GenerateSIDH() (*SIDHKeyPair, error) {
	curve := ecdh.X25519()

	src, err := crypto.ReaderForLevel(constants.SecurityLevelHigh)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("sidh.generate", 0, qerrors.ErrDRBGInit)
	}

	privA, err := curve.GenerateKey(src)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("sidh.generate", 0, qerrors.ErrKeyGenerationFailed)
	}
	privB, err := curve.GenerateKey(src)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("sidh.generate", 0, qerrors.ErrKeyGenerationFailed)
	}

	pubA := privA.PublicKey().Bytes()
	pubB := privB.PublicKey().Bytes()

	if err := validateSIDHPublicHalf(pubA); err != nil {
		return nil, err
	}
	if err := validateSIDHPublicHalf(pubB); err != nil {
		return nil, err
	}

	rawA := privA.Bytes()
	rawB := privB.Bytes()
	secA, err := secretbuf.FromBytes(rawA)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("sidh.generate", 0, qerrors.ErrKeyGenerationFailed)
	}
	secB, err := secretbuf.FromBytes(rawB)
	if err != nil {
		secA.Destroy()
		return nil, qerrors.NewPrimitiveError("sidh.generate", 0, qerrors.ErrKeyGenerationFailed)
	}
	crypto.Zeroize(rawA)
	crypto.Zeroize(rawB)

	return &SIDHKeyPair{PubA: pubA, PubB: pubB, SecA: secA, SecB: secB}, nil
}

// validateSIDHPublicHalf stands in for the isogeny validator every logical
// public half must pass before it is accepted.
func validateSIDHPublicHalf(pub []byte) error {
	if len(pub) != constants.SIDHSubKeyPublicSize {
		return qerrors.NewPrimitiveError("sidh.validate", 0, qerrors.ErrInvalidPublicKey)
	}
	curve := ecdh.X25519()
	if _, err := curve.NewPublicKey(pub); err != nil {
		return qerrors.NewPrimitiveError("sidh.validate", 0, qerrors.ErrInvalidPublicKey)
	}
	return nil
}

// AgreeSIDHSideA computes the side-A half of a SIDH agreement: the local
// sec_a combined with the peer's pub_b.
func AgreeSIDHSideA(secA *secretbuf.Buffer, peerPubB []byte) ([]byte, error) {
	return sidhAgree(secA, peerPubB, "sidh.agree_side_a")
}

// AgreeSIDHSideB computes the side-B half of a SIDH agreement: the local
// sec_b combined with the peer's pub_a.
func AgreeSIDHSideB(secB *secretbuf.Buffer, peerPubA []byte) ([]byte, error) {
	return sidhAgree(secB, peerPubA, "sidh.agree_side_b")
}

func sidhAgree(sec *secretbuf.Buffer, peerPub []byte, op string) ([]byte, error) {
	curve := ecdh.X25519()

	priv, err := curve.NewPrivateKey(sec.Bytes())
	if err != nil {
		return nil, qerrors.NewPrimitiveError(op, 0, qerrors.ErrInvalidPrivateKey)
	}
	if err := validateSIDHPublicHalf(peerPub); err != nil {
		return nil, err
	}
	pub, err := curve.NewPublicKey(peerPub)
	if err != nil {
		return nil, qerrors.NewPrimitiveError(op, 0, qerrors.ErrInvalidPublicKey)
	}

	shared, err := priv.ECDH(pub)
	if err != nil {
		return nil, qerrors.NewPrimitiveError(op, 0, qerrors.ErrInvalidPublicKey)
	}
	return shared, nil
}

// SplitSIDHPublic splits a concatenated logical public key pub_a ∥ pub_b
// into its two sub-key halves.
func SplitSIDHPublic(pub []byte) (pubA, pubB []byte, err error) {
	if len(pub) != constants.SIDHPublicKeySize {
		return nil, nil, qerrors.NewRangeError("sidh.split_public", len(pub), constants.SIDHPublicKeySize)
	}
	return pub[:constants.SIDHSubKeyPublicSize], pub[constants.SIDHSubKeyPublicSize:], nil
}
