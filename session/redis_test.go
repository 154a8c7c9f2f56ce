package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "ag", time.Hour)
	return store, rdb, func() {
		rdb.Close()
		mr.Close()
	}
}

func testSession() *Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &Session{
		ID:               "sid-1",
		PrincipalID:      "u-1",
		AccessTokenHash:  "ah-1",
		RefreshTokenHash: "rh-1",
		IPAddress:        "203.0.113.9",
		UserAgent:        "test-agent",
		CountryCode:      "DE",
		CreatedAt:        now,
		LastUsedAt:       now,
		ExpiresAt:        now.Add(time.Hour),
		Active:           true,
	}
}

func TestSaveAndFindByHashes(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()
	sess := testSession()

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	byAccess, err := store.FindByAccessTokenHash(ctx, sess.AccessTokenHash)
	if err != nil {
		t.Fatalf("find by access hash: %v", err)
	}
	if byAccess.ID != sess.ID || byAccess.PrincipalID != sess.PrincipalID {
		t.Fatalf("wrong session from access index: %+v", byAccess)
	}

	byRefresh, err := store.FindByRefreshTokenHash(ctx, sess.RefreshTokenHash)
	if err != nil {
		t.Fatalf("find by refresh hash: %v", err)
	}
	if byRefresh.ID != sess.ID {
		t.Fatalf("wrong session from refresh index: %+v", byRefresh)
	}

	if _, err := store.FindByAccessTokenHash(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown hash, got %v", err)
	}
}

func TestUpdateRotatesHashIndexes(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()
	sess := testSession()

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	sess.Rotate("ah-2", "rh-2", time.Now().Add(2*time.Hour), time.Now())
	if err := store.Update(ctx, sess); err != nil {
		t.Fatalf("update: %v", err)
	}
	if sess.Version != 2 {
		t.Fatalf("expected version 2 after update, got %d", sess.Version)
	}

	if _, err := store.FindByAccessTokenHash(ctx, "ah-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old access index should be gone, got %v", err)
	}
	got, err := store.FindByRefreshTokenHash(ctx, "rh-2")
	if err != nil {
		t.Fatalf("find by new refresh hash: %v", err)
	}
	if got.Version != 2 || got.AccessTokenHash != "ah-2" {
		t.Fatalf("unexpected session after rotation: %+v", got)
	}
}

func TestUpdateVersionConflict(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()
	sess := testSession()

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	stale := *sess
	sess.Rotate("ah-2", "rh-2", time.Now().Add(2*time.Hour), time.Now())
	if err := store.Update(ctx, sess); err != nil {
		t.Fatalf("first update: %v", err)
	}

	stale.Rotate("ah-3", "rh-3", time.Now().Add(2*time.Hour), time.Now())
	if err := store.Update(ctx, &stale); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for stale update, got %v", err)
	}

	if err := store.Update(ctx, &Session{ID: "nope", Version: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing session, got %v", err)
	}
}

func TestFindActiveByPrincipalFiltersInvalid(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	valid := testSession()
	if err := store.Save(ctx, valid); err != nil {
		t.Fatalf("save valid: %v", err)
	}

	expired := testSession()
	expired.ID = "sid-2"
	expired.AccessTokenHash = "ah-exp"
	expired.RefreshTokenHash = "rh-exp"
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	if err := store.Save(ctx, expired); err != nil {
		t.Fatalf("save expired: %v", err)
	}

	revoked := testSession()
	revoked.ID = "sid-3"
	revoked.AccessTokenHash = "ah-rev"
	revoked.RefreshTokenHash = "rh-rev"
	if err := store.Save(ctx, revoked); err != nil {
		t.Fatalf("save revoked: %v", err)
	}
	revoked.Invalidate()
	if err := store.Update(ctx, revoked); err != nil {
		t.Fatalf("invalidate revoked: %v", err)
	}

	active, err := store.FindActiveByPrincipal(ctx, "u-1")
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if len(active) != 1 || active[0].ID != valid.ID {
		t.Fatalf("expected only the valid session, got %d sessions", len(active))
	}
}
