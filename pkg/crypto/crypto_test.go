package crypto

import (
	"bytes"
	"testing"

	"github.com/galaxy42/polykex/internal/constants"
)

func TestAEADSealOpenRoundTrip(t *testing.T) {
	key := MustSecureRandomBytes(constants.AEADKeyLen)
	a, err := NewAEAD(key)
	if err != nil {
		t.Fatalf("NewAEAD: %v", err)
	}

	constant := make([]byte, constants.NonceConstantSize)
	nonce, err := ComposeNonce(constant, 0)
	if err != nil {
		t.Fatalf("ComposeNonce: %v", err)
	}

	plaintext := []byte("hello tunnel")
	ciphertext, err := a.Seal(nonce, plaintext, nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	got, err := a.Open(nonce, ciphertext, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Open() = %q, want %q", got, plaintext)
	}
}

func TestAEADOpenRejectsTamperedCiphertext(t *testing.T) {
	key := MustSecureRandomBytes(constants.AEADKeyLen)
	a, err := NewAEAD(key)
	if err != nil {
		t.Fatalf("NewAEAD: %v", err)
	}
	constant := make([]byte, constants.NonceConstantSize)
	nonce, _ := ComposeNonce(constant, 1)

	ciphertext, err := a.Seal(nonce, []byte("msg"), nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	ciphertext[0] ^= 0xFF

	if _, err := a.Open(nonce, ciphertext, nil); err == nil {
		t.Error("Open should fail on tampered ciphertext")
	}
}

func TestComposeNonceDeterministic(t *testing.T) {
	constant := bytes.Repeat([]byte{0x42}, constants.NonceConstantSize)
	n1, err := ComposeNonce(constant, 7)
	if err != nil {
		t.Fatalf("ComposeNonce: %v", err)
	}
	n2, err := ComposeNonce(constant, 7)
	if err != nil {
		t.Fatalf("ComposeNonce: %v", err)
	}
	if !bytes.Equal(n1, n2) {
		t.Error("ComposeNonce should be deterministic for identical inputs")
	}
	if len(n1) != constants.NonceTotalSize {
		t.Errorf("nonce length = %d, want %d", len(n1), constants.NonceTotalSize)
	}
}

func TestHash1DeterministicAndDomainSeparated(t *testing.T) {
	in := []byte("shared-secret-material")
	if !bytes.Equal(Hash1(in), Hash1(in)) {
		t.Error("Hash1 should be deterministic")
	}
	if bytes.Equal(Hash1(in), Hash1Secret(in)) {
		t.Error("Hash1 and Hash1Secret must be domain-separated")
	}
	if len(Hash1(in)) != constants.Hash1Len {
		t.Errorf("Hash1 length = %d, want %d", len(Hash1(in)), constants.Hash1Len)
	}
}

func TestX25519KeyExchangeAgreement(t *testing.T) {
	a, err := GenerateX25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateX25519KeyPair (a): %v", err)
	}
	b, err := GenerateX25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateX25519KeyPair (b): %v", err)
	}

	sA, err := X25519(a.PrivateKey, b.PublicKey)
	if err != nil {
		t.Fatalf("X25519 (a): %v", err)
	}
	sB, err := X25519(b.PrivateKey, a.PublicKey)
	if err != nil {
		t.Fatalf("X25519 (b): %v", err)
	}
	if !bytes.Equal(sA, sB) {
		t.Error("X25519 agreement mismatch")
	}
}

func TestEd25519GenerateAndSign(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair: %v", err)
	}
	msg := []byte("reserved tag, not used by the tunnel")
	sig := kp.Sign(msg)
	if !Verify(kp.PublicKey, msg, sig) {
		t.Error("Verify should accept a signature from its own key pair")
	}
}

func TestDRBGForLevelCaches(t *testing.T) {
	resetDRBGCacheForTest()
	r1, err := DRBGForLevel(constants.SecurityLevelNormal)
	if err != nil {
		t.Fatalf("DRBGForLevel: %v", err)
	}
	r2, err := DRBGForLevel(constants.SecurityLevelNormal)
	if err != nil {
		t.Fatalf("DRBGForLevel: %v", err)
	}
	if r1 != r2 {
		t.Error("DRBGForLevel should return the cached handle on repeat calls")
	}
}

func TestGenerateX25519KeyPairPopulatesNormalDRBGCache(t *testing.T) {
	resetDRBGCacheForTest()
	if _, err := GenerateX25519KeyPair(); err != nil {
		t.Fatalf("GenerateX25519KeyPair: %v", err)
	}
	r, err := DRBGForLevel(constants.SecurityLevelNormal)
	if err != nil {
		t.Fatalf("DRBGForLevel: %v", err)
	}
	if r == nil {
		t.Error("GenerateX25519KeyPair should have drawn from and populated the normal-level DRBG cache")
	}
}

func TestConstantTimeCompare(t *testing.T) {
	a := []byte("secret")
	b := []byte("secret")
	c := []byte("differ")
	if !ConstantTimeCompare(a, b) {
		t.Error("ConstantTimeCompare should report equal slices as equal")
	}
	if ConstantTimeCompare(a, c) {
		t.Error("ConstantTimeCompare should report differing slices as unequal")
	}
}
