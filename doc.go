// Package polykex implements a hybrid multi-algorithm identity and tunnel
// core for a peer-to-peer overlay network: a closed enumeration of
// cryptosystems, a generic typed container for the keys built from them, and
// the handshake that combines whichever cryptosystems two peers hold in
// common into a single authenticated duplex channel.
//
// # Quick Start
//
// Two peers each generate a long-term Identity Pair, exchange its public
// half out of band, and run the Tunnel handshake:
//
//	import (
//		"context"
//
//		"github.com/galaxy42/polykex/pkg/identity"
//		"github.com/galaxy42/polykex/pkg/tunnel"
//	)
//
//	selfLong, _ := identity.Generate(identity.DefaultCounts(), false)
//
//	// Initiator, holding the peer's long-term public container:
//	t, _ := tunnel.NewInitiator(context.Background(), selfLong, themLongPublic)
//
//	// Responder, holding the initiator's serialized preamble:
//	t, _ := tunnel.NewResponder(context.Background(), selfLong, preamble)
//
//	// Both sides exchange ephemeral public containers over Stream A...
//	framed, _ := t.BoxAB(t.EphemeralPublic().Serialize())
//	// ...then supersede Stream A with the ephemeral Stream B:
//	their, _ := keyring.NewPublicContainer(), /* deserialize peer's frame */
//	t.CreateEphemeral(context.Background(), their)
//
//	ciphertext, _ := t.Box([]byte("hello"))
//	plaintext, _ := t.Unbox(ciphertext)
//
// # Package Structure
//
//   - pkg/cryptag: the closed Cryptosystem Tag enumeration and its wire IDs
//   - pkg/secretbuf: page-locked, zero-on-drop Secret Buffers
//   - internal/primitive: the per-cryptosystem adapters (X25519, SIDH_p751,
//     NTRU_EES439EP1, Ed25519) consumed as opaque primitives
//   - pkg/crypto: AEAD, KDF (Hash1/Hash1_secret), and primitive wrappers
//   - pkg/keyring: the generic Typed Key Container and its wire format
//   - pkg/identity: the Identity Pair (paired public/secret containers)
//   - pkg/kct: the Session Key Derivation combiner
//   - pkg/stream: the authenticated duplex Stream built over a Session Key
//   - pkg/tunnel: the two-stage handshake that bootstraps and supersedes
//     Streams with ephemeral Identity Pairs
//   - pkg/blobstore: the save/load collaborator for persisting containers
//   - pkg/metrics: structured logging, metrics, and tracing
//
// # Security Properties
//
//   - Hybrid guarantee: a Session Key remains secure if any one shared
//     cryptosystem between the two identities remains secure
//   - Forward secrecy: the Tunnel's ephemeral Identity Pair is generated
//     fresh per handshake and discarded with the Tunnel
//   - Authenticated encryption: XChaCha20-Poly1305 with a 24-byte nonce
//   - Nonce-direction discipline: a content-hash comparison fixes which
//     side sends on odd nonce-counter parity and which on even, so the two
//     directions of a Stream never reuse a (key, nonce) pair
//
// # Testing
//
//	go test ./...                          # unit tests
//	go test -bench=. ./test/benchmark      # benchmarks
//	go test -fuzz=FuzzDeserialize ./test/fuzz
//	go test -run TestHandshake ./test/integration
//
// For more information, see: https://github.com/galaxy42/polykex
package polykex
