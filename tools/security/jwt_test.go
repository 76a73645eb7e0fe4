package security

import (
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("unit-test-secret")

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions(testSecret)
	token, hash, exp, err := Generate(opts, "u123")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if !strings.HasPrefix(hash, "sha256:") {
		t.Fatalf("hash format: %q", hash)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expiry in the past: %v", exp)
	}

	sub, err := Verify(opts, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "u123" {
		t.Fatalf("subject = %q, want u123", sub)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, _, err := Generate(DefaultOptions(testSecret), "u123")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := Verify(DefaultOptions([]byte("other-secret")), token); err == nil {
		t.Fatal("token signed with a different secret must not verify")
	}
}

func TestVerifyGarbage(t *testing.T) {
	if _, err := Verify(DefaultOptions(testSecret), "not.a.jwt"); err == nil {
		t.Fatal("garbage token must not verify")
	}
}

func TestVerifyExpired(t *testing.T) {
	// TTL<=0 falls back to the default, so force expiry via a tiny TTL
	opts := Options{Secret: testSecret, Alg: "HS256", TTL: time.Nanosecond}
	token, _, _, err := Generate(opts, "u123")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := Verify(opts, token); err == nil {
		t.Fatal("expired token must not verify")
	}
}

func TestUnsupportedAlg(t *testing.T) {
	if _, _, _, err := Generate(Options{Secret: testSecret, Alg: "RS256"}, "u1"); err == nil {
		t.Fatal("non-HMAC alg must be rejected")
	}
}

func TestHashTokenStable(t *testing.T) {
	a, b := HashToken("tok"), HashToken("tok")
	if a != b {
		t.Fatal("hash not deterministic")
	}
	if a == HashToken("tok2") {
		t.Fatal("distinct tokens hash equal")
	}
}
