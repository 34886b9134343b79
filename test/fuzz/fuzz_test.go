// Package fuzz provides fuzz tests for security-critical parsing functions
// in the polykex identity and tunnel core.
//
// Run fuzz tests with:
//
//	go test -fuzz=FuzzDeserializePublicContainer -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzDeserializeSecretContainer -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzAEADOpen -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzStreamUnbox -fuzztime=30s ./test/fuzz/
package fuzz

import (
	"testing"

	"github.com/galaxy42/polykex/internal/constants"
	"github.com/galaxy42/polykex/pkg/crypto"
	"github.com/galaxy42/polykex/pkg/cryptag"
	"github.com/galaxy42/polykex/pkg/identity"
	"github.com/galaxy42/polykex/pkg/keyring"
	"github.com/galaxy42/polykex/pkg/stream"
)

// FuzzDeserializePublicContainer fuzzes the Typed Key Container parser on a
// public container. This is security-critical: it processes untrusted input
// received from a peer before any handshake has established trust.
func FuzzDeserializePublicContainer(f *testing.F) {
	p, err := identity.Generate(identity.Counts{cryptag.X25519: 2, cryptag.SIDHp751: 1}, false)
	if err == nil {
		f.Add(p.Public.Serialize())
	}

	f.Add([]byte{})
	f.Add([]byte("GMK"))
	f.Add([]byte{0x47, 0x4D, 0x4B, 0x61, 0x00, 0x00})
	f.Add(make([]byte, 64))

	f.Fuzz(func(t *testing.T, data []byte) {
		c := keyring.NewPublicContainer()
		if err := c.Deserialize(data); err != nil {
			if c.CountSystemsUsed() != 0 {
				t.Error("a failed Deserialize must leave the container empty")
			}
			return
		}
		// A successful parse must re-serialize to an equal wire form.
		if c.Hash() == nil {
			t.Error("Hash must never be nil after a successful Deserialize")
		}
	})
}

// FuzzDeserializeSecretContainer fuzzes the same parser against a secret
// container, whose newKey callback allocates a locked Secret Buffer per key
// — a different allocation path worth fuzzing independently.
func FuzzDeserializeSecretContainer(f *testing.F) {
	p, err := identity.Generate(identity.Counts{cryptag.X25519: 1}, false)
	if err == nil {
		f.Add(p.Secret.Serialize())
	}
	f.Add([]byte{0x47, 0x4D, 0x4B, 0x61, 0x01, 0x00})

	f.Fuzz(func(t *testing.T, data []byte) {
		c := keyring.NewSecretContainer()
		_ = c.Deserialize(data)
	})
}

// FuzzAEADOpen fuzzes Open against arbitrary nonces and ciphertexts. Open
// must never panic and must only succeed when the MAC actually verifies.
func FuzzAEADOpen(f *testing.F) {
	key := make([]byte, constants.AEADKeyLen)
	aead, err := crypto.NewAEAD(key)
	if err != nil {
		f.Fatalf("NewAEAD: %v", err)
	}
	nonce, err := crypto.ComposeNonce(make([]byte, constants.NonceConstantSize), 0)
	if err != nil {
		f.Fatalf("ComposeNonce: %v", err)
	}
	ct, err := aead.Seal(nonce, []byte("seed plaintext"), nil)
	if err != nil {
		f.Fatalf("Seal: %v", err)
	}

	f.Add(nonce, ct)
	f.Add(make([]byte, constants.NonceTotalSize), []byte{})
	f.Add(make([]byte, constants.NonceTotalSize), make([]byte, 8))

	f.Fuzz(func(t *testing.T, nonce, ciphertext []byte) {
		_, _ = aead.Open(nonce, ciphertext, nil)
	})
}

// FuzzStreamUnbox fuzzes the Stream's frame parser (an 8-byte counter prefix
// plus an AEAD ciphertext) against arbitrary input, after a real handshake
// has opened the Stream.
func FuzzStreamUnbox(f *testing.F) {
	a, err := identity.Generate(identity.Counts{cryptag.X25519: 1}, false)
	if err != nil {
		f.Fatalf("identity.Generate(a): %v", err)
	}
	b, err := identity.Generate(identity.Counts{cryptag.X25519: 1}, false)
	if err != nil {
		f.Fatalf("identity.Generate(b): %v", err)
	}

	sa, err := stream.ExchangeStart(a, b.Public, true)
	if err != nil {
		f.Fatalf("ExchangeStart: %v", err)
	}
	sb, err := stream.ExchangeStart(b, a.Public, true)
	if err != nil {
		f.Fatalf("ExchangeStart: %v", err)
	}

	framed, err := sa.Box([]byte("seed"))
	if err != nil {
		f.Fatalf("Box: %v", err)
	}
	f.Add(framed)
	f.Add([]byte{})
	f.Add(make([]byte, 7))
	f.Add(make([]byte, 8))

	f.Fuzz(func(t *testing.T, data []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Unbox panicked on input %x: %v", data, r)
			}
		}()
		_, _ = sb.Unbox(data)
	})
}
