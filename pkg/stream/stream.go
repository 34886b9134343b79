// Package stream implements the Stream: an authenticated duplex channel
// over a derived Session Key with nonce-direction discipline, as described
// in SPEC_FULL.md §4.5.
package stream

import (
	"encoding/binary"

	"github.com/galaxy42/polykex/internal/constants"
	qerrors "github.com/galaxy42/polykex/internal/errors"
	"github.com/galaxy42/polykex/pkg/crypto"
	"github.com/galaxy42/polykex/pkg/identity"
	"github.com/galaxy42/polykex/pkg/kct"
	"github.com/galaxy42/polykex/pkg/keyring"
)

// State is the Stream's lifecycle state machine: fresh → started → open →
// closed. Only started → open is driven by the first successful box/unbox;
// closed is terminal and is entered on any authentication failure.
type State int

const (
	StateFresh State = iota
	StateStarted
	StateOpen
	StateClosed
)

// direction is one side of the duplex: either the boxer (encrypts) or the
// unboxer (decrypts). Both sides of a Stream share the same AEAD key and the
// same all-zero 16-byte nonce constant; what keeps their nonces from ever
// colliding is nonce parity: odd carries a fixed bit (0 or 1) folded into
// the low bit of the 64-bit nonce counter, so the boxer's nonces and the
// unboxer's nonces partition the counter space into disjoint odd/even
// halves (the "nonce_odd" / "nonce direction" the design names).
type direction struct {
	aead     *crypto.AEAD
	constant []byte
	odd      bool
	seq      uint64 // local sequence number; actual nonce counter = 2*seq + parity bit
}

func (d *direction) parityBit() uint64 {
	if d.odd {
		return 1
	}
	return 0
}

func (d *direction) nonceCounter(seq uint64) uint64 {
	return 2*seq + d.parityBit()
}

func (d *direction) nextNonce() ([]byte, uint64, error) {
	counter := d.nonceCounter(d.seq)
	nonce, err := crypto.ComposeNonce(d.constant, counter)
	return nonce, counter, err
}

// Stream is the authenticated duplex channel. Not safe for concurrent use.
type Stream struct {
	boxer    *direction
	unboxer  *direction
	nonceOdd bool
	state    State
	used     kct.UsedSystems
}

// ExchangeStart derives a fresh Session Key between self and them and opens
// a new Stream over it, following SPEC_FULL.md §4.5:
//  1. KCT ← derive(self, them, willNewID, "")
//  2. nonce_odd ← self.public.hash() > them.hash(), strict and asymmetric
//  3. boxer gets direction nonce_odd, unboxer gets ¬nonce_odd, both starting
//     from the all-zero 16-byte nonce constant.
func ExchangeStart(self *identity.Pair, them *keyring.Container[keyring.PublicKey], willNewID bool) (*Stream, error) {
	sessionKey, used, err := kct.Derive(self, them, willNewID)
	if err != nil {
		return nil, err
	}
	defer sessionKey.Destroy()

	selfHash := self.Public.Hash()
	themHash := them.Hash()
	cmp := compareHashes(selfHash, themHash)
	if cmp == 0 {
		return nil, qerrors.NewHandshakeError("stream.exchange_start", qerrors.ErrIdenticalIdentity)
	}
	nonceOdd := cmp > 0

	return newStream(sessionKey.Bytes(), nonceOdd, used)
}

// ExchangeDone completes the responder's side of a handshake: the
// responder independently derives the same Session Key from the same two
// public identities, producing the same nonce_odd and the complementary
// boxer/unboxer directions. This resolves SPEC_FULL.md §9 Open Question 2:
// the responder's completion path is simply a symmetric call to the same
// derivation and direction rule the initiator uses in ExchangeStart — there
// is no separate responder-only branch to complete.
func ExchangeDone(self *identity.Pair, them *keyring.Container[keyring.PublicKey], willNewID bool) (*Stream, error) {
	return ExchangeStart(self, them, willNewID)
}

func newStream(sessionKey []byte, nonceOdd bool, used kct.UsedSystems) (*Stream, error) {
	zeroConstant := make([]byte, constants.NonceConstantSize)

	boxerAEAD, err := crypto.NewAEAD(sessionKey)
	if err != nil {
		return nil, err
	}
	unboxerAEAD, err := crypto.NewAEAD(sessionKey)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		boxer:    &direction{aead: boxerAEAD, constant: zeroConstant, odd: nonceOdd},
		unboxer:  &direction{aead: unboxerAEAD, constant: zeroConstant, odd: !nonceOdd},
		nonceOdd: nonceOdd,
		state:    StateStarted,
		used:     used,
	}
	return s, nil
}

// compareHashes returns -1, 0, or 1 per lexicographic byte comparison,
// matching the container's hash()-based ordering.
func compareHashes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// NonceOdd reports the direction bit this Stream's boxer was assigned.
func (s *Stream) NonceOdd() bool { return s.nonceOdd }

// State returns the Stream's current lifecycle state.
func (s *Stream) State() State { return s.state }

// UsedSystems returns the cryptosystem tags that actually contributed to
// this Stream's Session Key, published so the caller can build an
// ephemeral Identity Pair over exactly those systems.
func (s *Stream) UsedSystems() kct.UsedSystems { return s.used }

// Box AEAD-seals msg under the current boxer nonce and post-increments the
// counter. Fails with CryptoError if the underlying AEAD refuses.
func (s *Stream) Box(msg []byte) ([]byte, error) {
	if s.state == StateClosed {
		return nil, qerrors.NewCryptoError("stream.box", qerrors.ErrStreamClosed)
	}

	nonce, counter, err := s.boxer.nextNonce()
	if err != nil {
		return nil, qerrors.NewCryptoError("stream.box", err)
	}

	ciphertext, err := s.boxer.aead.Seal(nonce, msg, counterAD(counter))
	if err != nil {
		return nil, qerrors.NewCryptoError("stream.box", qerrors.ErrSealFailed)
	}
	s.boxer.seq++
	if s.state == StateStarted {
		s.state = StateOpen
	}

	framed := make([]byte, 8+len(ciphertext))
	binary.BigEndian.PutUint64(framed, counter)
	copy(framed[8:], ciphertext)
	return framed, nil
}

// Unbox verifies and decrypts a ciphertext produced by the peer's Box. On
// MAC failure it returns AuthError and transitions the Stream to closed;
// the counter advances only on success.
func (s *Stream) Unbox(framed []byte) ([]byte, error) {
	if s.state == StateClosed {
		return nil, qerrors.NewCryptoError("stream.unbox", qerrors.ErrStreamClosed)
	}
	if len(framed) < 8 {
		return nil, qerrors.NewRangeError("stream.unbox", len(framed), 8)
	}

	counter := binary.BigEndian.Uint64(framed[:8])
	ciphertext := framed[8:]

	if counter&1 != s.unboxer.parityBit() {
		return nil, qerrors.NewAuthError("stream.unbox")
	}
	seq := counter >> 1
	if seq < s.unboxer.seq {
		return nil, qerrors.NewAuthError("stream.unbox") // replay: counter not strictly increasing
	}

	nonce, err := crypto.ComposeNonce(s.unboxer.constant, counter)
	if err != nil {
		return nil, qerrors.NewCryptoError("stream.unbox", err)
	}

	plaintext, err := s.unboxer.aead.Open(nonce, ciphertext, counterAD(counter))
	if err != nil {
		s.state = StateClosed
		return nil, qerrors.NewAuthError("stream.unbox")
	}

	s.unboxer.seq = seq + 1
	if s.state == StateStarted {
		s.state = StateOpen
	}
	return plaintext, nil
}

func counterAD(counter uint64) []byte {
	ad := make([]byte, 8)
	binary.BigEndian.PutUint64(ad, counter)
	return ad
}
