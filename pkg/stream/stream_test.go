package stream

import (
	"bytes"
	"testing"

	qerrors "github.com/galaxy42/polykex/internal/errors"
	"github.com/galaxy42/polykex/pkg/cryptag"
	"github.com/galaxy42/polykex/pkg/identity"
)

func mustPair(t *testing.T, counts identity.Counts) *identity.Pair {
	t.Helper()
	p, err := identity.Generate(counts, false)
	if err != nil {
		t.Fatalf("identity.Generate: %v", err)
	}
	return p
}

func TestExchangeStartBoxUnboxRoundTrip(t *testing.T) {
	a := mustPair(t, identity.Counts{cryptag.X25519: 1})
	b := mustPair(t, identity.Counts{cryptag.X25519: 1})

	sa, err := ExchangeStart(a, b.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(a): %v", err)
	}
	sb, err := ExchangeStart(b, a.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(b): %v", err)
	}

	if sa.NonceOdd() == sb.NonceOdd() {
		t.Error("the two sides must disagree on nonce_odd")
	}

	msg := []byte("hello across the tunnel")
	framed, err := sa.Box(msg)
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	got, err := sb.Unbox(framed)
	if err != nil {
		t.Fatalf("Unbox: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Errorf("Unbox = %q, want %q", got, msg)
	}
	if sa.State() != StateOpen || sb.State() != StateOpen {
		t.Error("both streams should be open after a successful exchange")
	}
}

func TestBoxUnboxMultipleMessagesBothDirections(t *testing.T) {
	a := mustPair(t, identity.Counts{cryptag.X25519: 1})
	b := mustPair(t, identity.Counts{cryptag.X25519: 1})

	sa, err := ExchangeStart(a, b.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(a): %v", err)
	}
	sb, err := ExchangeStart(b, a.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(b): %v", err)
	}

	for i := 0; i < 5; i++ {
		msg := []byte{byte(i), byte(i + 1)}
		framed, err := sa.Box(msg)
		if err != nil {
			t.Fatalf("a->b Box[%d]: %v", i, err)
		}
		got, err := sb.Unbox(framed)
		if err != nil {
			t.Fatalf("a->b Unbox[%d]: %v", i, err)
		}
		if !bytes.Equal(got, msg) {
			t.Errorf("a->b [%d] = %v, want %v", i, got, msg)
		}

		replyMsg := []byte{byte(100 + i)}
		framed2, err := sb.Box(replyMsg)
		if err != nil {
			t.Fatalf("b->a Box[%d]: %v", i, err)
		}
		got2, err := sa.Unbox(framed2)
		if err != nil {
			t.Fatalf("b->a Unbox[%d]: %v", i, err)
		}
		if !bytes.Equal(got2, replyMsg) {
			t.Errorf("b->a [%d] = %v, want %v", i, got2, replyMsg)
		}
	}
}

func TestNonceCounterParitySeparatesDirections(t *testing.T) {
	a := mustPair(t, identity.Counts{cryptag.X25519: 1})
	b := mustPair(t, identity.Counts{cryptag.X25519: 1})

	sa, err := ExchangeStart(a, b.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(a): %v", err)
	}

	if sa.boxer.odd == sa.unboxer.odd {
		t.Fatal("boxer and unboxer must carry opposite parity bits")
	}
	for seq := uint64(0); seq < 4; seq++ {
		boxerCounter := sa.boxer.nonceCounter(seq)
		unboxerCounter := sa.unboxer.nonceCounter(seq)
		if boxerCounter%2 == unboxerCounter%2 {
			t.Fatalf("counters must have opposite parity: boxer=%d unboxer=%d", boxerCounter, unboxerCounter)
		}
	}
}

func TestUnboxRejectsTamperedCiphertext(t *testing.T) {
	a := mustPair(t, identity.Counts{cryptag.X25519: 1})
	b := mustPair(t, identity.Counts{cryptag.X25519: 1})

	sa, err := ExchangeStart(a, b.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(a): %v", err)
	}
	sb, err := ExchangeStart(b, a.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(b): %v", err)
	}

	framed, err := sa.Box([]byte("untouched"))
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	framed[len(framed)-1] ^= 0xFF

	_, err = sb.Unbox(framed)
	if err == nil {
		t.Fatal("Unbox should fail on tampered ciphertext")
	}
	var authErr *qerrors.AuthError
	if !qerrors.As(err, &authErr) {
		t.Errorf("expected AuthError, got %T: %v", err, err)
	}
	if sb.State() != StateClosed {
		t.Error("stream must transition to closed on authentication failure")
	}
}

func TestUnboxRejectsReplay(t *testing.T) {
	a := mustPair(t, identity.Counts{cryptag.X25519: 1})
	b := mustPair(t, identity.Counts{cryptag.X25519: 1})

	sa, err := ExchangeStart(a, b.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(a): %v", err)
	}
	sb, err := ExchangeStart(b, a.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(b): %v", err)
	}

	framed, err := sa.Box([]byte("first"))
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	if _, err := sb.Unbox(framed); err != nil {
		t.Fatalf("first Unbox: %v", err)
	}

	framed2, err := sa.Box([]byte("second"))
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	if _, err := sb.Unbox(framed2); err != nil {
		t.Fatalf("second Unbox: %v", err)
	}

	if _, err := sb.Unbox(framed); err == nil {
		t.Fatal("replaying an old frame should be rejected")
	}
}

func TestExchangeStartRejectsIdenticalIdentity(t *testing.T) {
	a := mustPair(t, identity.Counts{cryptag.X25519: 1})

	_, err := ExchangeStart(a, a.Public, true)
	if err == nil {
		t.Fatal("ExchangeStart should reject a peer with an identical identity hash")
	}
	var hsErr *qerrors.HandshakeError
	if !qerrors.As(err, &hsErr) {
		t.Errorf("expected HandshakeError, got %T: %v", err, err)
	}
}

func TestExchangeDoneMatchesExchangeStart(t *testing.T) {
	a := mustPair(t, identity.Counts{cryptag.X25519: 1})
	b := mustPair(t, identity.Counts{cryptag.X25519: 1})

	sa, err := ExchangeStart(a, b.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(a): %v", err)
	}
	sb, err := ExchangeDone(b, a.Public, true)
	if err != nil {
		t.Fatalf("ExchangeDone(b): %v", err)
	}

	framed, err := sa.Box([]byte("via exchange done"))
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	if _, err := sb.Unbox(framed); err != nil {
		t.Fatalf("Unbox: %v", err)
	}
}

func TestBoxFailsAfterClose(t *testing.T) {
	a := mustPair(t, identity.Counts{cryptag.X25519: 1})
	b := mustPair(t, identity.Counts{cryptag.X25519: 1})

	sa, err := ExchangeStart(a, b.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(a): %v", err)
	}
	sb, err := ExchangeStart(b, a.Public, true)
	if err != nil {
		t.Fatalf("ExchangeStart(b): %v", err)
	}

	framed, err := sa.Box([]byte("ok"))
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	framed[len(framed)-1] ^= 0xFF
	if _, err := sb.Unbox(framed); err == nil {
		t.Fatal("expected tamper failure")
	}

	if _, err := sb.Box([]byte("after close")); err == nil {
		t.Fatal("Box should fail once the stream is closed")
	}
	if _, err := sb.Unbox(framed); err == nil {
		t.Fatal("Unbox should fail once the stream is closed")
	}
}
