package authgate

import (
	"context"
	"testing"

	"github.com/corvidlabs/authgate/cache"
)

func TestCheckPermission(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	allowed, err := f.engine.CheckPermission(ctx, "u-alice", "billing:read")
	if err != nil {
		t.Fatalf("check permission: %v", err)
	}
	if !allowed {
		t.Fatal("expected permission granted")
	}

	denied, err := f.engine.CheckPermission(ctx, "u-alice", "admin:write")
	if err != nil {
		t.Fatalf("check permission: %v", err)
	}
	if denied {
		t.Fatal("expected permission denied")
	}
}

func TestCheckPermissionServedFromCache(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	if _, err := f.engine.CheckPermission(ctx, "u-alice", "billing:read"); err != nil {
		t.Fatalf("first check: %v", err)
	}
	calls := f.roles.permCalls

	if _, err := f.engine.CheckPermission(ctx, "u-alice", "billing:read"); err != nil {
		t.Fatalf("second check: %v", err)
	}
	if f.roles.permCalls != calls {
		t.Fatalf("second check hit the system of record: %d calls", f.roles.permCalls)
	}
}

func TestResourcePermissionDoesNotCollideWithNamedCheck(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	// "billing:read" exists as a literal permission name; a resource check
	// for resource "billing", action "read" resolves through a disjoint
	// cache key but the same permission set.
	named, err := f.engine.CheckPermission(ctx, "u-alice", "billing:read")
	if err != nil {
		t.Fatalf("named check: %v", err)
	}
	scoped, err := f.engine.CheckResourcePermission(ctx, "u-alice", "billing", "read")
	if err != nil {
		t.Fatalf("resource check: %v", err)
	}
	if !named || !scoped {
		t.Fatalf("expected both grants, got named=%v scoped=%v", named, scoped)
	}
}

func TestCacheFailureEquivalentToNoCache(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	// Populate, then kill Redis so every cache operation errors.
	if _, err := f.engine.CheckPermission(ctx, "u-alice", "billing:read"); err != nil {
		t.Fatalf("warm check: %v", err)
	}
	f.mr.Close()

	allowed, err := f.engine.CheckPermission(ctx, "u-alice", "billing:read")
	if err != nil {
		t.Fatalf("check with dead cache: %v", err)
	}
	if !allowed {
		t.Fatal("dead cache changed the answer")
	}

	user, err := f.engine.UserByID(ctx, "u-alice")
	if err != nil {
		t.Fatalf("user lookup with dead cache: %v", err)
	}
	if user == nil || user.ID != "u-alice" {
		t.Fatalf("dead cache changed user lookup: %+v", user)
	}
}

func TestNegativeCachingSingleSourceHit(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	user, err := f.engine.UserByID(ctx, "u-ghost")
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if user != nil {
		t.Fatalf("expected not found, got %+v", user)
	}
	calls := f.users.idCalls

	user, err = f.engine.UserByID(ctx, "u-ghost")
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if user != nil {
		t.Fatalf("expected not found, got %+v", user)
	}
	if f.users.idCalls != calls {
		t.Fatalf("second lookup hit the system of record: %d calls", f.users.idCalls)
	}
}

func TestRoleByIDFidelityUpgrade(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	// Seed a low-fidelity projection, as a role listing would produce.
	seed := cache.New(f.rdb, cache.Config{Prefix: f.engine.config.Cache.RedisPrefix})
	if err := seed.Set(ctx, cache.RoleKey("r-member"), Role{ID: "r-member", Name: "member"}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	role, err := f.engine.RoleByID(ctx, "r-member")
	if err != nil {
		t.Fatalf("role lookup: %v", err)
	}
	if role == nil || !role.PermissionsLoaded || len(role.Permissions) == 0 {
		t.Fatalf("expected hydrated role, got %+v", role)
	}
	if f.roles.roleCalls != 1 {
		t.Fatalf("low-fidelity hit must go back to the system of record, got %d calls", f.roles.roleCalls)
	}

	// Now the upgraded record is cached; no further source calls.
	if _, err := f.engine.RoleByID(ctx, "r-member"); err != nil {
		t.Fatalf("second role lookup: %v", err)
	}
	if f.roles.roleCalls != 1 {
		t.Fatalf("upgraded hit should be served from cache, got %d calls", f.roles.roleCalls)
	}
}

func TestUserByEmailAndProfile(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	user, err := f.engine.UserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("user by email: %v", err)
	}
	if user == nil || user.ID != "u-alice" {
		t.Fatalf("unexpected user: %+v", user)
	}

	profile, err := f.engine.ProfileFor(ctx, "u-alice")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile == nil || profile.DisplayName != "Alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	missing, err := f.engine.ProfileFor(ctx, "u-bob")
	if err != nil {
		t.Fatalf("missing profile: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil profile, got %+v", missing)
	}
}

func TestRolesForListsRoles(t *testing.T) {
	f := newEngineTest(t)
	roles, err := f.engine.RolesFor(context.Background(), "u-alice")
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "member" {
		t.Fatalf("unexpected roles: %+v", roles)
	}
}
