package authgate

import (
	"context"
	"fmt"

	"github.com/corvidlabs/authgate/cache"
)

// Cache-aside query layer. The cache is never authoritative: read errors
// are treated as misses, write-backs are best-effort, and a definitive
// not-found from the system of record is negatively cached.

func (e *Engine) cacheGet(ctx context.Context, key string, dest any) cache.Result {
	if e == nil || e.cache == nil {
		return cache.Miss
	}
	res, err := e.cache.Get(ctx, key, dest)
	if err != nil {
		e.metricInc(MetricCacheMiss)
		return cache.Miss
	}
	switch res {
	case cache.Hit:
		e.metricInc(MetricCacheHit)
	case cache.NegativeHit:
		e.metricInc(MetricCacheNegativeHit)
	default:
		e.metricInc(MetricCacheMiss)
	}
	return res
}

func (e *Engine) cacheSet(ctx context.Context, key string, value any) {
	if e == nil || e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, value); err != nil {
		e.metricInc(MetricCacheWriteBackFailure)
	}
}

func (e *Engine) cacheSetNegative(ctx context.Context, key string) {
	if e == nil || e.cache == nil {
		return
	}
	if err := e.cache.SetNegative(ctx, key); err != nil {
		e.metricInc(MetricCacheWriteBackFailure)
	}
}

// CheckPermission describes the checkpermission operation and its observable behavior.
//
// CheckPermission may return an error when input validation, dependency calls, or security checks fail.
// CheckPermission does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CheckPermission(ctx context.Context, principalID, permission string) (bool, error) {
	if e == nil || e.roles == nil {
		return false, ErrEngineNotReady
	}

	key := cache.PermissionKey(principalID, permission)
	var allowed bool
	if e.cacheGet(ctx, key, &allowed) == cache.Hit {
		return allowed, nil
	}

	permissions, err := e.PermissionsFor(ctx, principalID)
	if err != nil {
		return false, err
	}
	allowed = containsString(permissions, permission)
	e.cacheSet(ctx, key, allowed)
	return allowed, nil
}

// CheckResourcePermission describes the checkresourcepermission operation and its observable behavior.
//
// CheckResourcePermission may return an error when input validation, dependency calls, or security checks fail.
// CheckResourcePermission does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CheckResourcePermission(ctx context.Context, principalID, resource, action string) (bool, error) {
	if e == nil || e.roles == nil {
		return false, ErrEngineNotReady
	}

	key := cache.ResourcePermissionKey(principalID, resource, action)
	var allowed bool
	if e.cacheGet(ctx, key, &allowed) == cache.Hit {
		return allowed, nil
	}

	permissions, err := e.PermissionsFor(ctx, principalID)
	if err != nil {
		return false, err
	}
	allowed = containsString(permissions, resource+":"+action)
	e.cacheSet(ctx, key, allowed)
	return allowed, nil
}

// PermissionsFor describes the permissionsfor operation and its observable behavior.
//
// PermissionsFor may return an error when input validation, dependency calls, or security checks fail.
// PermissionsFor does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) PermissionsFor(ctx context.Context, principalID string) ([]string, error) {
	if e == nil || e.roles == nil {
		return nil, ErrEngineNotReady
	}

	key := cache.PermissionsKey(principalID)
	var permissions []string
	if e.cacheGet(ctx, key, &permissions) == cache.Hit {
		return permissions, nil
	}

	permissions, err := e.roles.PermissionsForPrincipal(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("%w: permission lookup: %v", ErrQueryFailed, err)
	}
	if permissions == nil {
		permissions = []string{}
	}
	e.cacheSet(ctx, key, permissions)
	return permissions, nil
}

// RolesFor describes the rolesfor operation and its observable behavior.
//
// RolesFor may return an error when input validation, dependency calls, or security checks fail.
// RolesFor does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RolesFor(ctx context.Context, principalID string) ([]Role, error) {
	if e == nil || e.roles == nil {
		return nil, ErrEngineNotReady
	}

	key := cache.RolesKey(principalID)
	var roles []Role
	if e.cacheGet(ctx, key, &roles) == cache.Hit {
		return roles, nil
	}

	roles, err := e.roles.RolesForPrincipal(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("%w: role lookup: %v", ErrQueryFailed, err)
	}
	if roles == nil {
		roles = []Role{}
	}
	e.cacheSet(ctx, key, roles)
	return roles, nil
}

// RoleByID describes the rolebyid operation and its observable behavior.
//
// RoleByID may return an error when input validation, dependency calls, or security checks fail.
// RoleByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A cached role without its permission list is a lower-fidelity projection;
// RoleByID upgrades it by going back to the system of record.
func (e *Engine) RoleByID(ctx context.Context, roleID string) (*Role, error) {
	if e == nil || e.roles == nil {
		return nil, ErrEngineNotReady
	}

	key := cache.RoleKey(roleID)
	var cached Role
	switch e.cacheGet(ctx, key, &cached) {
	case cache.NegativeHit:
		return nil, nil
	case cache.Hit:
		if cached.PermissionsLoaded {
			return &cached, nil
		}
	}

	role, err := e.roles.RoleByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: role lookup: %v", ErrQueryFailed, err)
	}
	if role == nil {
		e.cacheSetNegative(ctx, key)
		return nil, nil
	}
	e.cacheSet(ctx, key, role)
	return role, nil
}

// UserByID describes the userbyid operation and its observable behavior.
//
// UserByID may return an error when input validation, dependency calls, or security checks fail.
// UserByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) UserByID(ctx context.Context, id string) (*Principal, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	key := cache.UserIDKey(id)
	var cached Principal
	switch e.cacheGet(ctx, key, &cached) {
	case cache.NegativeHit:
		return nil, nil
	case cache.Hit:
		return &cached, nil
	}

	principal, err := e.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: user lookup: %v", ErrQueryFailed, err)
	}
	if principal == nil {
		e.cacheSetNegative(ctx, key)
		return nil, nil
	}
	// SecretHash is excluded from the JSON payload, so the cached record
	// never carries credential material.
	e.cacheSet(ctx, key, principal)
	return principal, nil
}

// UserByEmail describes the userbyemail operation and its observable behavior.
//
// UserByEmail may return an error when input validation, dependency calls, or security checks fail.
// UserByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) UserByEmail(ctx context.Context, email string) (*Principal, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	key := cache.UserEmailKey(email)
	var cached Principal
	switch e.cacheGet(ctx, key, &cached) {
	case cache.NegativeHit:
		return nil, nil
	case cache.Hit:
		return &cached, nil
	}

	principal, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: user lookup: %v", ErrQueryFailed, err)
	}
	if principal == nil {
		e.cacheSetNegative(ctx, key)
		return nil, nil
	}
	e.cacheSet(ctx, key, principal)
	return principal, nil
}

// ProfileFor describes the profilefor operation and its observable behavior.
//
// ProfileFor may return an error when input validation, dependency calls, or security checks fail.
// ProfileFor does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ProfileFor(ctx context.Context, principalID string) (*Profile, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	key := cache.ProfileKey(principalID)
	var cached Profile
	switch e.cacheGet(ctx, key, &cached) {
	case cache.NegativeHit:
		return nil, nil
	case cache.Hit:
		return &cached, nil
	}

	profile, err := e.users.Profile(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("%w: profile lookup: %v", ErrQueryFailed, err)
	}
	if profile == nil {
		e.cacheSetNegative(ctx, key)
		return nil, nil
	}
	e.cacheSet(ctx, key, profile)
	return profile, nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
