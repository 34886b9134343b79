// Package benchmark provides performance benchmarks for the polykex identity
// and tunnel core.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./test/benchmark/
//
// For profiling:
//
//	go test -bench=. -cpuprofile=cpu.prof -memprofile=mem.prof ./test/benchmark/
package benchmark

import (
	"context"
	"testing"

	"github.com/galaxy42/polykex/internal/constants"
	"github.com/galaxy42/polykex/internal/primitive"
	"github.com/galaxy42/polykex/pkg/crypto"
	"github.com/galaxy42/polykex/pkg/cryptag"
	"github.com/galaxy42/polykex/pkg/identity"
	"github.com/galaxy42/polykex/pkg/kct"
	"github.com/galaxy42/polykex/pkg/stream"
	"github.com/galaxy42/polykex/pkg/tunnel"
)

// --- Cryptographic Primitive Benchmarks ---

func BenchmarkSecureRandom32(b *testing.B) {
	buf := make([]byte, 32)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = crypto.SecureRandom(buf)
	}
}

func BenchmarkHash1(b *testing.B) {
	input := make([]byte, 64)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = crypto.Hash1(input)
	}
}

// --- X25519 Benchmarks ---

func BenchmarkX25519KeyGeneration(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := crypto.GenerateX25519KeyPair(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkX25519SharedSecret(b *testing.B) {
	alice, _ := crypto.GenerateX25519KeyPair()
	bob, _ := crypto.GenerateX25519KeyPair()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := crypto.X25519(alice.PrivateKey, bob.PublicKey); err != nil {
			b.Fatal(err)
		}
	}
}

// --- SIDH_p751 and NTRU_EES439EP1 adapter benchmarks ---

func BenchmarkSIDHKeyGeneration(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		kp, err := primitive.GenerateSIDH()
		if err != nil {
			b.Fatal(err)
		}
		kp.Destroy()
	}
}

func BenchmarkNTRUKeyGeneration(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := primitive.GenerateNTRU(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNTRUEncapsulation(b *testing.B) {
	kp, err := primitive.GenerateNTRU()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := primitive.EncapsulateNTRU(kp.Public); err != nil {
			b.Fatal(err)
		}
	}
}

// --- AEAD Benchmarks ---

func BenchmarkAEADSeal(b *testing.B) {
	key := make([]byte, constants.AEADKeyLen)
	aead, err := crypto.NewAEAD(key)
	if err != nil {
		b.Fatal(err)
	}
	nonce, err := crypto.ComposeNonce(make([]byte, constants.NonceConstantSize), 0)
	if err != nil {
		b.Fatal(err)
	}
	plaintext := make([]byte, 1024)

	b.ResetTimer()
	b.SetBytes(int64(len(plaintext)))
	for i := 0; i < b.N; i++ {
		if _, err := aead.Seal(nonce, plaintext, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Session Key Derivation Benchmarks ---

func BenchmarkKCTDeriveX25519Only(b *testing.B) {
	a, err := identity.Generate(identity.Counts{cryptag.X25519: 1}, false)
	if err != nil {
		b.Fatal(err)
	}
	peer, err := identity.Generate(identity.Counts{cryptag.X25519: 1}, false)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key, _, err := kct.Derive(a, peer.Public, false)
		if err != nil {
			b.Fatal(err)
		}
		key.Destroy()
	}
}

func BenchmarkKCTDeriveHybrid(b *testing.B) {
	a, err := identity.Generate(identity.Counts{cryptag.X25519: 1, cryptag.SIDHp751: 1}, false)
	if err != nil {
		b.Fatal(err)
	}
	peer, err := identity.Generate(identity.Counts{cryptag.X25519: 1, cryptag.SIDHp751: 1}, false)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key, _, err := kct.Derive(a, peer.Public, false)
		if err != nil {
			b.Fatal(err)
		}
		key.Destroy()
	}
}

// --- Stream Benchmarks ---

func BenchmarkStreamBoxUnbox(b *testing.B) {
	a, err := identity.Generate(identity.Counts{cryptag.X25519: 1}, false)
	if err != nil {
		b.Fatal(err)
	}
	peer, err := identity.Generate(identity.Counts{cryptag.X25519: 1}, false)
	if err != nil {
		b.Fatal(err)
	}

	sa, err := stream.ExchangeStart(a, peer.Public, true)
	if err != nil {
		b.Fatal(err)
	}
	sb, err := stream.ExchangeStart(peer, a.Public, true)
	if err != nil {
		b.Fatal(err)
	}

	msg := make([]byte, 1024)

	b.ResetTimer()
	b.SetBytes(int64(len(msg)))
	for i := 0; i < b.N; i++ {
		framed, err := sa.Box(msg)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := sb.Unbox(framed); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Full Tunnel Handshake Benchmark ---

func BenchmarkTunnelHandshake(b *testing.B) {
	ctx := context.Background()
	a, err := identity.Generate(identity.DefaultCounts(), false)
	if err != nil {
		b.Fatal(err)
	}
	peer, err := identity.Generate(identity.DefaultCounts(), false)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		initTun, err := tunnel.NewInitiator(ctx, a, peer.Public)
		if err != nil {
			b.Fatal(err)
		}
		respTun, err := tunnel.NewResponder(ctx, peer, initTun.Preamble())
		if err != nil {
			b.Fatal(err)
		}
		if err := initTun.CreateEphemeral(ctx, respTun.EphemeralPublic()); err != nil {
			b.Fatal(err)
		}
		if err := respTun.CreateEphemeral(ctx, initTun.EphemeralPublic()); err != nil {
			b.Fatal(err)
		}
	}
}
