package session

import (
	"testing"
	"time"
)

func TestIsValidRequiresActiveAndUnexpired(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name   string
		sess   *Session
		want   bool
	}{
		{"nil session", nil, false},
		{"active and unexpired", &Session{Active: true, ExpiresAt: now.Add(time.Hour)}, true},
		{"inactive", &Session{Active: false, ExpiresAt: now.Add(time.Hour)}, false},
		{"expired", &Session{Active: true, ExpiresAt: now.Add(-time.Second)}, false},
		{"expired exactly now", &Session{Active: true, ExpiresAt: now}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sess.IsValid(now); got != tc.want {
				t.Fatalf("IsValid = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTouchNeverMovesBackwards(t *testing.T) {
	now := time.Now()
	sess := &Session{LastUsedAt: now}

	sess.Touch(now.Add(-time.Minute))
	if !sess.LastUsedAt.Equal(now) {
		t.Fatalf("Touch moved LastUsedAt backwards to %v", sess.LastUsedAt)
	}

	later := now.Add(time.Minute)
	sess.Touch(later)
	if !sess.LastUsedAt.Equal(later) {
		t.Fatalf("Touch did not advance LastUsedAt, got %v", sess.LastUsedAt)
	}
}

func TestRotateReplacesHashesAndExtendsExpiry(t *testing.T) {
	now := time.Now()
	sess := &Session{
		AccessTokenHash:  "old-access",
		RefreshTokenHash: "old-refresh",
		ExpiresAt:        now.Add(time.Minute),
		Active:           true,
	}

	newExpiry := now.Add(time.Hour)
	sess.Rotate("new-access", "new-refresh", newExpiry, now)

	if sess.AccessTokenHash != "new-access" || sess.RefreshTokenHash != "new-refresh" {
		t.Fatalf("hashes not replaced: %q %q", sess.AccessTokenHash, sess.RefreshTokenHash)
	}
	if !sess.ExpiresAt.Equal(newExpiry) {
		t.Fatalf("expiry not extended, got %v", sess.ExpiresAt)
	}
	if !sess.LastUsedAt.Equal(now) {
		t.Fatalf("rotation should touch LastUsedAt, got %v", sess.LastUsedAt)
	}
}

func TestInvalidateIsTerminal(t *testing.T) {
	sess := &Session{Active: true, ExpiresAt: time.Now().Add(time.Hour)}
	sess.Invalidate()
	if sess.Active {
		t.Fatal("session still active after Invalidate")
	}
	if sess.IsValid(time.Now()) {
		t.Fatal("invalidated session reported valid")
	}
}
