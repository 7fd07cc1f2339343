package auth

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("secret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "secret" {
		t.Fatal("Hash returned the plain password")
	}
	if err := h.Compare(hash, "secret"); err != nil {
		t.Errorf("Compare with right password failed: %v", err)
	}
	if err := h.Compare(hash, "nope"); err == nil {
		t.Error("Compare with wrong password should fail")
	}
	if err := h.Compare("", ""); err == nil {
		t.Error("Compare against an empty hash should fail")
	}
}

func TestTokensRoundTrip(t *testing.T) {
	t.Parallel()

	tokens := NewTokens([]byte("key"), time.Hour)
	tok, err := tokens.Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	id, err := tokens.Verify(tok)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if id != 42 {
		t.Errorf("Expected user 42, got %d", id)
	}
}

func TestTokensRejectTampering(t *testing.T) {
	t.Parallel()

	tokens := NewTokens([]byte("key"), time.Hour)
	tok, _ := tokens.Issue(42)

	other := NewTokens([]byte("other"), time.Hour)
	if _, err := other.Verify(tok); err == nil {
		t.Error("Token signed with another key should fail")
	}

	payload, sig, _ := strings.Cut(tok, ".")
	forged := payload + "x." + sig
	if _, err := tokens.Verify(forged); err == nil {
		t.Error("Tampered payload should fail")
	}

	for _, bad := range []string{"", "abc", "a.b.c"} {
		if _, err := tokens.Verify(bad); err == nil {
			t.Errorf("Verify(%q) should fail", bad)
		}
	}
}

func TestTokensExpire(t *testing.T) {
	t.Parallel()

	tokens := NewTokens([]byte("key"), time.Minute)
	start := time.Now()
	tokens.now = func() time.Time { return start }
	tok, _ := tokens.Issue(7)

	tokens.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, err := tokens.Verify(tok); err == nil {
		t.Error("Expired token should fail")
	}
}

func TestLoadOrInitSecret(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "web", "secret.key")
	first, err := LoadOrInitSecret(path)
	if err != nil {
		t.Fatalf("LoadOrInitSecret failed: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("Expected a generated secret")
	}

	second, err := LoadOrInitSecret(path)
	if err != nil {
		t.Fatalf("LoadOrInitSecret reload failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Expected the stored secret to be reused")
	}
}
