// Package kct implements the Session Key Derivation combiner: it folds the
// per-cryptosystem shared secrets two Identity Pairs have in common into a
// single Session Key, order-independently and initiator-symmetrically.
package kct

import (
	"github.com/galaxy42/polykex/internal/constants"
	qerrors "github.com/galaxy42/polykex/internal/errors"
	"github.com/galaxy42/polykex/internal/primitive"
	"github.com/galaxy42/polykex/pkg/crypto"
	"github.com/galaxy42/polykex/pkg/cryptag"
	"github.com/galaxy42/polykex/pkg/identity"
	"github.com/galaxy42/polykex/pkg/keyring"
	"github.com/galaxy42/polykex/pkg/secretbuf"
)

// UsedSystems records which cryptosystem tags actually contributed to a
// derivation, published so the caller can build an ephemeral Identity Pair
// over exactly those systems (cryptolists_count_for_KCTf in the design).
type UsedSystems map[cryptag.Tag]bool

// Derive computes the Session Key shared between self (a full Identity
// Pair, including secrets) and them (a peer's public container).
//
// Per SPEC_FULL.md's resolution of Open Question 1, the NTRU_EES439EP1 KEM
// branch is out of scope for this combiner: a one-shot KEM needs a
// ciphertext carried alongside the public container (the encapsulator's
// output, not a key the decapsulator already holds), which does not fit
// Derive's symmetric two-container signature. Derive only combines the
// interactive systems (X25519, SIDH_p751), matching the non-KEM default
// Identity Pair generated by identity.Generate(counts, willAsymKEX=false).
// A caller may still generate NTRU_EES439EP1 keys via willAsymKEX=true;
// they are carried in the Identity Pair but not folded into the Session Key
// until a KEM-aware transport for the ciphertext exists.
func Derive(self *identity.Pair, them *keyring.Container[keyring.PublicKey], recordUsage bool) (*secretbuf.Buffer, UsedSystems, error) {
	if self.Public.CountSystemsUsed() != self.Secret.CountSystemsUsed() ||
		self.Public.CountSystemsUsed() != them.CountSystemsUsed() {
		return nil, nil, qerrors.NewHandshakeError("kct.derive", qerrors.ErrCountMismatch)
	}

	accum := make([]byte, constants.Hash1Len)
	used := UsedSystems{}
	anyCommon := false

	for _, tag := range cryptag.All() {
		if tag == cryptag.NTRUEES439EP1 {
			continue // one-shot KEM, out of scope for this combiner; see doc comment above.
		}

		a := self.Public.CountIn(tag)
		b := them.CountIn(tag)
		if a == 0 || b == 0 {
			continue
		}
		anyCommon = true
		if recordUsage {
			used[tag] = true
		}

		n := a
		if b > n {
			n = b
		}

		for i := 0; i < n; i++ {
			localIdx := i % a
			peerIdx := i % b

			myPub, err := self.Public.GetKey(tag, localIdx)
			if err != nil {
				return nil, nil, err
			}
			mySec, err := self.Secret.GetKey(tag, localIdx)
			if err != nil {
				return nil, nil, err
			}
			theirPub, err := them.GetKey(tag, peerIdx)
			if err != nil {
				return nil, nil, err
			}

			s, err := agree(tag, mySec, theirPub.Bytes())
			if err != nil {
				return nil, nil, err
			}

			kPair := bindPair(s, myPub.Bytes(), theirPub.Bytes())
			xorInto(accum, kPair)
		}
	}

	if !anyCommon {
		return nil, nil, qerrors.NewHandshakeError("kct.derive", qerrors.ErrNoCommonSystems)
	}

	full := crypto.Hash1Secret(accum)
	if len(full) < constants.AEADKeyLen {
		return nil, nil, qerrors.NewCryptoError("kct.derive", qerrors.ErrInvariantBreach)
	}

	sessionKey, err := secretbuf.FromBytes(full[:constants.AEADKeyLen])
	if err != nil {
		return nil, nil, err
	}
	return sessionKey, used, nil
}

// agree computes the per-pair raw shared secret for tag.
func agree(tag cryptag.Tag, mySec *secretbuf.Buffer, theirPub []byte) ([]byte, error) {
	switch tag {
	case cryptag.X25519:
		priv, err := crypto.NewX25519KeyPairFromBytes(mySec.Bytes())
		if err != nil {
			return nil, err
		}
		pub, err := crypto.ParseX25519PublicKey(theirPub)
		if err != nil {
			return nil, err
		}
		return crypto.X25519(priv.PrivateKey, pub)

	case cryptag.SIDHp751:
		return agreeSIDH(mySec, theirPub)

	default:
		return nil, qerrors.NewPrimitiveError("kct.agree", 0, qerrors.ErrUnknownCryptosystem)
	}
}

// agreeSIDH combines the two independent sub-agreements per SPEC_FULL.md
// §4.4: s ← Hash1(s_a) ⊕ Hash1(s_b), where s_a pairs the local sec_a with
// the peer's pub_b, and s_b pairs the local sec_b with the peer's pub_a.
func agreeSIDH(mySec *secretbuf.Buffer, theirPub []byte) ([]byte, error) {
	mySecA, mySecB := mySec.Bytes()[:constants.SIDHSubKeyPrivateSize], mySec.Bytes()[constants.SIDHSubKeyPrivateSize:]
	theirPubA, theirPubB, err := primitive.SplitSIDHPublic(theirPub)
	if err != nil {
		return nil, err
	}

	secA, err := secretbuf.FromBytes(mySecA)
	if err != nil {
		return nil, err
	}
	defer secA.Destroy()
	secB, err := secretbuf.FromBytes(mySecB)
	if err != nil {
		return nil, err
	}
	defer secB.Destroy()

	sA, err := primitive.AgreeSIDHSideA(secA, theirPubB)
	if err != nil {
		return nil, err
	}
	sB, err := primitive.AgreeSIDHSideB(secB, theirPubA)
	if err != nil {
		return nil, err
	}

	hA := crypto.Hash1(sA)
	hB := crypto.Hash1(sB)
	out := make([]byte, len(hA))
	for i := range out {
		out[i] = hA[i] ^ hB[i%len(hB)]
	}
	return out, nil
}

// bindPair derives k_pair = Hash1_secret( Hash1_secret(s) ⊕ Hash1(my_pub) ⊕
// Hash1(their_pub) ), binding the normalized shared secret to the specific
// identities involved and preventing unknown-key-share.
func bindPair(s, myPub, theirPub []byte) []byte {
	hs := crypto.Hash1Secret(s)
	hMy := crypto.Hash1(myPub)
	hTheir := crypto.Hash1(theirPub)

	bound := make([]byte, len(hs))
	for i := range bound {
		bound[i] = hs[i] ^ hMy[i%len(hMy)] ^ hTheir[i%len(hTheir)]
	}
	return crypto.Hash1Secret(bound)
}

func xorInto(accum, kPair []byte) {
	for i := range accum {
		accum[i] ^= kPair[i%len(kPair)]
	}
}
