// Package tunnel implements the Tunnel: the two-stage handshake that
// bootstraps a long-term Stream between two identities, uses it to agree on
// an ephemeral Identity Pair, and supersedes the long-term Stream with a
// fresh ephemeral one for ongoing traffic, per SPEC_FULL.md §4.6.
package tunnel

import (
	"context"

	qerrors "github.com/galaxy42/polykex/internal/errors"
	"github.com/galaxy42/polykex/pkg/cryptag"
	"github.com/galaxy42/polykex/pkg/identity"
	"github.com/galaxy42/polykex/pkg/keyring"
	"github.com/galaxy42/polykex/pkg/metrics"
	"github.com/galaxy42/polykex/pkg/stream"
)

// Tunnel couples a long-term Stream (Stream A), established from the two
// peers' persistent Identity Pairs, with an ephemeral Stream (Stream B)
// created afterwards from freshly-generated ephemeral Identity Pairs. Once
// CreateEphemeral succeeds, Box/Unbox address Stream B; BoxAB/UnboxAB keep
// addressing Stream A for handshake-phase messages only.
//
// Not safe for concurrent use.
type Tunnel struct {
	selfLong  *identity.Pair
	ephemeral *identity.Pair
	streamA   *stream.Stream
	streamB   *stream.Stream
	log       *metrics.Logger
}

// NewInitiator builds Stream A over (selfLong, themLong) with will_new_id =
// true, then derives an ephemeral Identity Pair over exactly the
// cryptosystems Stream A's key derivation actually used.
func NewInitiator(ctx context.Context, selfLong *identity.Pair, themLong *keyring.Container[keyring.PublicKey]) (*Tunnel, error) {
	_, end := metrics.StartSpan(ctx, metrics.SpanHandshakeInitiator)
	var err error
	defer func() { end(err) }()

	t, err := newTunnel(selfLong, themLong, true)
	return t, err
}

// NewResponder parses an initiator-supplied handshake preamble — the
// initiator's serialized long-term public container — and completes the
// responder's side of the handshake, likewise deriving an ephemeral
// Identity Pair over Stream A's used cryptosystems.
func NewResponder(ctx context.Context, selfLong *identity.Pair, preamble []byte) (*Tunnel, error) {
	_, end := metrics.StartSpan(ctx, metrics.SpanHandshakeResponder)
	var err error
	defer func() { end(err) }()

	themLong := keyring.NewPublicContainer()
	if err = themLong.Deserialize(preamble); err != nil {
		return nil, err
	}

	t, err := newTunnel(selfLong, themLong, false)
	return t, err
}

func newTunnel(selfLong *identity.Pair, themLong *keyring.Container[keyring.PublicKey], initiator bool) (*Tunnel, error) {
	log := metrics.GetLogger().Named("tunnel")

	var streamA *stream.Stream
	var err error
	if initiator {
		streamA, err = stream.ExchangeStart(selfLong, themLong, true)
	} else {
		streamA, err = stream.ExchangeDone(selfLong, themLong, true)
	}
	if err != nil {
		metrics.Global().TunnelFailed()
		log.Error("handshake failed establishing stream A", metrics.Fields{"err": err.Error()})
		return nil, err
	}

	ephemeral, err := identity.Generate(countsFrom(streamA.UsedSystems()), true)
	if err != nil {
		metrics.Global().TunnelFailed()
		return nil, err
	}

	metrics.Global().TunnelStarted()
	log.Info("tunnel handshake complete", metrics.Fields{
		"initiator": initiator,
		"nonce_odd": streamA.NonceOdd(),
	})

	return &Tunnel{
		selfLong:  selfLong,
		ephemeral: ephemeral,
		streamA:   streamA,
		log:       log,
	}, nil
}

// Preamble returns the handshake preamble an initiator sends to the
// responder: the serialized long-term public container.
func (t *Tunnel) Preamble() []byte {
	return t.selfLong.Public.Serialize()
}

// EphemeralPublic returns this Tunnel's ephemeral public container, to be
// exchanged with the peer's own via the long-term Stream A (box_ab).
func (t *Tunnel) EphemeralPublic() *keyring.Container[keyring.PublicKey] {
	return t.ephemeral.Public
}

// CreateEphemeral builds Stream B (create_CTf) from this Tunnel's ephemeral
// Identity Pair and the peer's ephemeral public container. Per-pair keys are
// already bound to both sides' public-key hashes (pkg/kct.bindPair), which
// keeps Stream A's key material cryptographically independent of Stream B's
// without any additional transcript binding. Once this succeeds, Box/Unbox
// address Stream B; Stream A remains reachable only via BoxAB/UnboxAB.
func (t *Tunnel) CreateEphemeral(ctx context.Context, theirEphemeralPublic *keyring.Container[keyring.PublicKey]) error {
	_, end := metrics.StartSpan(ctx, metrics.SpanCreateEphemeral)
	var err error
	defer func() { end(err) }()

	// nonce_odd is computed symmetrically from the two ephemeral public-key
	// hashes (see pkg/stream.ExchangeStart), so either side may call it here
	// without an initiator/responder distinction for Stream B.
	streamB, err := stream.ExchangeStart(t.ephemeral, theirEphemeralPublic, true)
	if err != nil {
		return err
	}

	t.streamB = streamB
	t.log.Info("ephemeral stream established", metrics.Fields{"nonce_odd": streamB.NonceOdd()})
	return nil
}

// Box seals msg under the ephemeral Stream B. Fails with a HandshakeError if
// CreateEphemeral has not yet succeeded.
func (t *Tunnel) Box(msg []byte) ([]byte, error) {
	if t.streamB == nil {
		return nil, qerrors.NewHandshakeError("tunnel.box", qerrors.ErrEphemeralNotEstablished)
	}
	out, err := t.streamB.Box(msg)
	if err == nil {
		metrics.Global().RecordBytesBoxed(uint64(len(msg)))
	}
	return out, err
}

// Unbox opens a ciphertext produced by the peer's Box, via the ephemeral
// Stream B. Fails with a HandshakeError if CreateEphemeral has not yet
// succeeded.
func (t *Tunnel) Unbox(framed []byte) ([]byte, error) {
	if t.streamB == nil {
		return nil, qerrors.NewHandshakeError("tunnel.unbox", qerrors.ErrEphemeralNotEstablished)
	}
	out, err := t.streamB.Unbox(framed)
	if err == nil {
		metrics.Global().RecordBytesUnboxed(uint64(len(out)))
	} else {
		metrics.Global().RecordAuthFailure()
	}
	return out, err
}

// BoxAB seals msg under the long-term Stream A, for handshake-phase
// messages only (e.g. exchanging ephemeral public containers).
func (t *Tunnel) BoxAB(msg []byte) ([]byte, error) {
	return t.streamA.Box(msg)
}

// UnboxAB opens a ciphertext under the long-term Stream A.
func (t *Tunnel) UnboxAB(framed []byte) ([]byte, error) {
	return t.streamA.Unbox(framed)
}

// countsFrom builds an Identity Pair generation count map with exactly one
// key per cryptosystem tag Stream A's derivation actually used, matching
// the ephemeral Identity Pair to the systems the long-term handshake proved
// were shared.
func countsFrom(used map[cryptag.Tag]bool) identity.Counts {
	counts := identity.Counts{}
	for tag := range used {
		counts[tag] = 1
	}
	return counts
}

