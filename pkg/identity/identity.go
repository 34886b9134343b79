// Package identity implements the Identity Pair: a public Typed Key
// Container coupled with a matching secret container, generated together so
// the i-th secret under a tag is always the private half of the i-th public
// under that tag.
package identity

import (
	qerrors "github.com/galaxy42/polykex/internal/errors"
	"github.com/galaxy42/polykex/internal/primitive"
	"github.com/galaxy42/polykex/pkg/cryptag"
	"github.com/galaxy42/polykex/pkg/keyring"
	"github.com/galaxy42/polykex/pkg/secretbuf"
)

// Pair couples a public container with its matching secret container.
type Pair struct {
	Public *keyring.Container[keyring.PublicKey]
	Secret *keyring.Container[*secretbuf.Buffer]
}

// Counts is a total mapping from Cryptosystem Tag to a non-negative
// generation count, e.g. the result of DefaultCounts().
type Counts map[cryptag.Tag]int

// DefaultCounts returns generate_default(): {X25519: 1, NTRU: 1, SIDH: 0}.
func DefaultCounts() Counts {
	return Counts{
		cryptag.X25519:        1,
		cryptag.NTRUEES439EP1: 1,
		cryptag.SIDHp751:      0,
	}
}

// NewPair constructs an empty Identity Pair.
func NewPair() *Pair {
	return &Pair{
		Public: keyring.NewPublicContainer(),
		Secret: keyring.NewSecretContainer(),
	}
}

// Generate produces a fresh Identity Pair for the given counts. If
// willAsymKEX is false, KEM tags (currently only NTRU_EES439EP1) with a
// non-zero count are skipped at this generation site: KEM contributions are
// driven during handshake only when the caller opts in (see pkg/kct).
func Generate(counts Counts, willAsymKEX bool) (*Pair, error) {
	p := NewPair()

	for _, tag := range cryptag.All() {
		n := counts[tag]
		if n <= 0 {
			continue
		}
		if !willAsymKEX && cryptag.IsAsymmetricKEM(tag) {
			continue
		}

		for i := 0; i < n; i++ {
			pub, sec, err := generateOne(tag)
			if err != nil {
				return nil, err
			}
			p.Public.AddKey(tag, pub)
			p.Secret.AddKey(tag, sec)
		}
	}

	return p, nil
}

// Add appends a caller-supplied key pair into both halves of p atomically:
// either both containers are extended or neither is (generateOne already
// succeeded by the time it is called, so failure here is limited to a
// secretbuf allocation failure).
func (p *Pair) Add(tag cryptag.Tag, public []byte, secret []byte) error {
	secBuf, err := secretbuf.FromBytes(secret)
	if err != nil {
		return err
	}
	p.Public.AddKey(tag, keyring.PublicKey(append([]byte(nil), public...)))
	p.Secret.AddKey(tag, secBuf)
	return nil
}

// generateOne invokes the Primitive Adapter for tag once, returning the
// public and secret halves ready to append to an Identity Pair.
func generateOne(tag cryptag.Tag) (keyring.PublicKey, *secretbuf.Buffer, error) {
	switch tag {
	case cryptag.X25519:
		kp, err := newX25519KeyPair()
		if err != nil {
			return nil, nil, err
		}
		return kp.pub, kp.sec, nil

	case cryptag.SIDHp751:
		kp, err := primitive.GenerateSIDH()
		if err != nil {
			return nil, nil, err
		}
		sec, err := secretbuf.FromBytes(kp.SecretBytes())
		kp.Destroy()
		if err != nil {
			return nil, nil, err
		}
		return keyring.PublicKey(kp.PublicBytes()), sec, nil

	case cryptag.NTRUEES439EP1:
		kp, err := primitive.GenerateNTRU()
		if err != nil {
			return nil, nil, err
		}
		return keyring.PublicKey(kp.Public), kp.Secret, nil

	case cryptag.Ed25519:
		kp, err := newEd25519KeyPair()
		if err != nil {
			return nil, nil, err
		}
		return kp.pub, kp.sec, nil

	default:
		return nil, nil, qerrors.NewPrimitiveError("identity.generate_one", int(tag), qerrors.ErrUnknownCryptosystem)
	}
}
