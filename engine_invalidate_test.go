package authgate

import (
	"context"
	"errors"
	"testing"
)

func TestInvalidateSessionByAccessToken(t *testing.T) {
	f := newEngineTest(t)
	login := loginAlice(t, f)
	ctx := context.Background()

	if err := f.engine.InvalidateSession(ctx, "u-alice", login.Tokens.AccessToken, "user logout"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	sessions, err := f.engine.ActiveSessions(ctx, "u-alice")
	if err != nil {
		t.Fatalf("active sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("session still listed as active: %d", len(sessions))
	}
}

func TestInvalidateSessionByRefreshToken(t *testing.T) {
	f := newEngineTest(t)
	login := loginAlice(t, f)
	ctx := context.Background()

	if err := f.engine.InvalidateSession(ctx, "u-alice", login.Tokens.RefreshToken, "user logout"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	sessions, err := f.engine.ActiveSessions(ctx, "u-alice")
	if err != nil {
		t.Fatalf("active sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("session still listed as active: %d", len(sessions))
	}
}

func TestInvalidateSessionUnknownToken(t *testing.T) {
	f := newEngineTest(t)
	err := f.engine.InvalidateSession(context.Background(), "u-alice", "unknown-token", "user logout")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestInvalidateSessionOwnershipViolation(t *testing.T) {
	f := newEngineTest(t)
	login := loginAlice(t, f)
	ctx := context.Background()

	err := f.engine.InvalidateSession(ctx, "u-bob", login.Tokens.AccessToken, "takeover attempt")
	if !errors.Is(err, ErrSessionOwnership) {
		t.Fatalf("expected ErrSessionOwnership, got %v", err)
	}
	if errors.Is(err, ErrSessionNotFound) {
		t.Fatal("ownership violation must stay distinct from not-found")
	}

	// The targeted session must survive.
	sessions, err := f.engine.ActiveSessions(ctx, "u-alice")
	if err != nil {
		t.Fatalf("active sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("victim session should remain valid, got %d active", len(sessions))
	}
}

func TestInvalidateAllExcludeCurrent(t *testing.T) {
	f := newEngineTest(t)
	first := loginAlice(t, f)
	loginAlice(t, f)
	loginAlice(t, f)
	ctx := context.Background()

	count, err := f.engine.InvalidateAllSessions(ctx, "admin-1", "u-alice", true, first.Tokens.AccessToken, "password reset")
	if err != nil {
		t.Fatalf("invalidate all: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 invalidated, got %d", count)
	}

	sessions, err := f.engine.ActiveSessions(ctx, "u-alice")
	if err != nil {
		t.Fatalf("active sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != first.SessionID {
		t.Fatalf("expected only the current session to survive, got %d", len(sessions))
	}
}

func TestInvalidateAllWithoutExclusion(t *testing.T) {
	f := newEngineTest(t)
	loginAlice(t, f)
	loginAlice(t, f)
	ctx := context.Background()

	count, err := f.engine.InvalidateAllSessions(ctx, "admin-1", "u-alice", false, "", "account lock")
	if err != nil {
		t.Fatalf("invalidate all: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 invalidated, got %d", count)
	}
}

func TestInvalidateAllNoSessions(t *testing.T) {
	f := newEngineTest(t)
	count, err := f.engine.InvalidateAllSessions(context.Background(), "admin-1", "u-ghost", false, "", "cleanup")
	if err != nil {
		t.Fatalf("invalidate all: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0, got %d", count)
	}
}
