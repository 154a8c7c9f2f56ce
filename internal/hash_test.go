package internal

import "testing"

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("refresh-token-value")
	b := HashToken("refresh-token-value")
	if a != b {
		t.Fatalf("expected identical digests, got %q and %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(a))
	}
	if HashToken("other-token") == a {
		t.Fatal("expected distinct tokens to hash differently")
	}
}

func TestNewTemporarySecret(t *testing.T) {
	first, err := NewTemporarySecret(24)
	if err != nil {
		t.Fatalf("NewTemporarySecret error: %v", err)
	}
	second, err := NewTemporarySecret(24)
	if err != nil {
		t.Fatalf("NewTemporarySecret error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct secrets")
	}

	fallback, err := NewTemporarySecret(0)
	if err != nil {
		t.Fatalf("NewTemporarySecret error: %v", err)
	}
	if fallback == "" {
		t.Fatal("expected non-empty secret for zero size")
	}
}
