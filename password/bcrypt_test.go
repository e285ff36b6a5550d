package password

import (
	"strings"
	"testing"
)

func newTestHasher(t *testing.T, cost int) *Bcrypt {
	t.Helper()

	h, err := NewBcrypt(Config{Cost: cost})
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}
	return h
}

func TestNewBcryptDefaults(t *testing.T) {
	h, err := NewBcrypt(Config{})
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}
	if h.config.Cost != DefaultCost {
		t.Errorf("expected default cost %d, got %d", DefaultCost, h.config.Cost)
	}
}

func TestNewBcryptRejectsCostOutOfRange(t *testing.T) {
	if _, err := NewBcrypt(Config{Cost: 2}); err == nil {
		t.Fatal("expected rejection below MinCost")
	}
	if _, err := NewBcrypt(Config{Cost: 40}); err == nil {
		t.Fatal("expected rejection above MaxCost")
	}
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t, 4)

	hash, err := h.Hash("Str0ngPass")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("unexpected hash format %q", hash)
	}

	ok, err := h.Verify("Str0ngPass", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("WrongPass1", hash)
	if err != nil {
		t.Fatalf("mismatch must not be an error: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashSaltsEachCall(t *testing.T) {
	h := newTestHasher(t, 4)

	first, err := h.Hash("Str0ngPass")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	second, err := h.Hash("Str0ngPass")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestHashRejectsEmpty(t *testing.T) {
	h := newTestHasher(t, 4)

	if _, err := h.Hash(""); err == nil {
		t.Fatal("expected rejection of the empty password")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := newTestHasher(t, 4)

	if _, err := h.Verify("Str0ngPass", "not-a-bcrypt-hash"); err == nil {
		t.Fatal("expected an error for a malformed stored hash")
	}
}

func TestLongPasswordsTruncateConsistently(t *testing.T) {
	h := newTestHasher(t, 4)

	prefix := strings.Repeat("a", maxInputBytes)
	long := prefix + "tail-that-bcrypt-never-sees"

	hash, err := h.Hash(long)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	// Hashing and verification truncate identically, so the full string
	// and its 72-byte prefix are interchangeable.
	if ok, err := h.Verify(long, hash); err != nil || !ok {
		t.Fatalf("full string should verify, ok=%v err=%v", ok, err)
	}
	if ok, err := h.Verify(prefix, hash); err != nil || !ok {
		t.Fatalf("prefix should verify, ok=%v err=%v", ok, err)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak := newTestHasher(t, 4)
	strong := newTestHasher(t, 6)

	hash, err := weak.Hash("Str0ngPass")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if up, err := weak.NeedsUpgrade(hash); err != nil || up {
		t.Fatalf("same cost must not need upgrade, up=%v err=%v", up, err)
	}
	if up, err := strong.NeedsUpgrade(hash); err != nil || !up {
		t.Fatalf("lower stored cost must need upgrade, up=%v err=%v", up, err)
	}
	if _, err := strong.NeedsUpgrade("garbage"); err == nil {
		t.Fatal("expected an error for a malformed stored hash")
	}
}
