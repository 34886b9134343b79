// ed25519.go implements the reserved Ed25519 adapter.
//
// Ed25519 is carried in the Cryptosystem Tag enumeration as a signature
// primitive, reserved and not used by the tunnel's key-agreement path. It
// is wired here only to the extent the enumeration requires: generate().
// No agree/encapsulate operation exists for a signature scheme, so this
// adapter exposes no such method.
package crypto

import (
	"github.com/cloudflare/circl/sign/ed25519"

	"github.com/galaxy42/polykex/internal/constants"
	qerrors "github.com/galaxy42/polykex/internal/errors"
)

// Ed25519KeyPair holds a generated, reserved Ed25519 key pair.
type Ed25519KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// GenerateEd25519KeyPair generates a fresh Ed25519 key pair.
func GenerateEd25519KeyPair() (*Ed25519KeyPair, error) {
	src, err := ReaderForLevel(constants.SecurityLevelNormal)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("ed25519.generate", 0, qerrors.ErrDRBGInit)
	}
	pub, priv, err := ed25519.GenerateKey(src)
	if err != nil {
		return nil, qerrors.NewPrimitiveError("ed25519.generate", 0, qerrors.ErrKeyGenerationFailed)
	}
	if len(pub) != constants.Ed25519PublicKeySize || len(priv) != constants.Ed25519PrivateKeySize {
		return nil, qerrors.NewPrimitiveError("ed25519.generate", 0, qerrors.ErrKeyGenerationFailed)
	}
	return &Ed25519KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// Sign signs message with the reserved private key. Exposed for completeness
// of the tag's capability set; unused by the tunnel's key-agreement path.
func (kp *Ed25519KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(kp.PrivateKey, message)
}

// Verify checks sig against message under pub.
func Verify(pub ed25519.PublicKey, message, sig []byte) bool {
	return ed25519.Verify(pub, message, sig)
}
