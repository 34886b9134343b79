package identity

import (
	"github.com/galaxy42/polykex/pkg/crypto"
	"github.com/galaxy42/polykex/pkg/keyring"
	"github.com/galaxy42/polykex/pkg/secretbuf"
)

type rawKeyPair struct {
	pub keyring.PublicKey
	sec *secretbuf.Buffer
}

// newX25519KeyPair adapts pkg/crypto's ecdh-backed X25519 adapter to the
// Identity Pair's (public, *secretbuf.Buffer) shape.
func newX25519KeyPair() (*rawKeyPair, error) {
	kp, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, err
	}
	raw := kp.PrivateKeyBytes()
	sec, err := secretbuf.FromBytes(raw)
	crypto.Zeroize(raw)
	if err != nil {
		return nil, err
	}
	return &rawKeyPair{pub: keyring.PublicKey(kp.PublicKeyBytes()), sec: sec}, nil
}

// newEd25519KeyPair adapts pkg/crypto's reserved Ed25519 adapter.
func newEd25519KeyPair() (*rawKeyPair, error) {
	kp, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		return nil, err
	}
	sec, err := secretbuf.FromBytes(kp.PrivateKey)
	if err != nil {
		return nil, err
	}
	return &rawKeyPair{pub: keyring.PublicKey(append([]byte(nil), kp.PublicKey...)), sec: sec}, nil
}
