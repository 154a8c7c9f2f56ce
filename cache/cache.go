// Package cache is a small Redis-backed read cache for authorization data.
// Values are stored as JSON under namespaced keys; confirmed absences are
// stored as a sentinel with a shorter TTL so repeated lookups for missing
// records do not hammer the system of record.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// negativeSentinel marks a key whose source lookup returned nothing.
const negativeSentinel = "\x00nil"

// Result classifies the outcome of a cache lookup.
type Result int

const (
	// Miss means the key is not cached.
	Miss Result = iota
	// Hit means the key is cached and dest was populated.
	Hit
	// NegativeHit means the source of record has already confirmed this key
	// does not exist.
	NegativeHit
)

// Config controls TTLs and key namespacing.
type Config struct {
	// Prefix namespaces every key. Defaults to "ag".
	Prefix string
	// TTL is the lifetime of positive entries. Defaults to 5 minutes.
	TTL time.Duration
	// NegativeTTL is the lifetime of negative entries. Defaults to 30
	// seconds so recently created records surface quickly.
	NegativeTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = "ag"
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.NegativeTTL <= 0 {
		c.NegativeTTL = 30 * time.Second
	}
	return c
}

// Cache is the Redis-backed store. All operations are best effort from the
// caller's perspective; an error from any method should be treated as a
// miss, never surfaced to the end user.
type Cache struct {
	redis redis.UniversalClient
	cfg   Config
}

// New creates a Cache over an existing Redis client.
func New(client redis.UniversalClient, cfg Config) *Cache {
	return &Cache{redis: client, cfg: cfg.withDefaults()}
}

// Get looks key up and unmarshals a positive hit into dest.
func (c *Cache) Get(ctx context.Context, key string, dest any) (Result, error) {
	data, err := c.redis.Get(ctx, c.cfg.Prefix+":"+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Miss, nil
		}
		return Miss, err
	}
	if string(data) == negativeSentinel {
		return NegativeHit, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return Miss, err
	}
	return Hit, nil
}

// Set stores a positive entry.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, c.cfg.Prefix+":"+key, data, c.cfg.TTL).Err()
}

// SetNegative records that the source of record has no value for key.
func (c *Cache) SetNegative(ctx context.Context, key string) error {
	return c.redis.Set(ctx, c.cfg.Prefix+":"+key, negativeSentinel, c.cfg.NegativeTTL).Err()
}

// Invalidate drops one or more keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.cfg.Prefix + ":" + k
	}
	return c.redis.Del(ctx, full...).Err()
}

// Key builders. Named-permission and resource/action checks live in
// disjoint keyspaces so "billing:read" as a permission name can never
// collide with resource "billing", action "read".

// PermissionKey caches a named-permission check for a principal.
func PermissionKey(principalID, permission string) string {
	return "perm:" + principalID + ":name:" + permission
}

// ResourcePermissionKey caches a resource/action check for a principal.
func ResourcePermissionKey(principalID, resource, action string) string {
	return "perm:" + principalID + ":resource:" + resource + ":action:" + action
}

// PermissionsKey caches a principal's full permission list.
func PermissionsKey(principalID string) string {
	return "perms:" + principalID
}

// RolesKey caches a principal's role list.
func RolesKey(principalID string) string {
	return "roles:" + principalID
}

// RoleKey caches a single role record.
func RoleKey(roleID string) string {
	return "role:" + roleID
}

// UserIDKey caches a user record by id.
func UserIDKey(id string) string {
	return "user:id:" + id
}

// UserEmailKey caches a user record by email.
func UserEmailKey(email string) string {
	return "user:email:" + email
}

// ProfileKey caches a principal's profile.
func ProfileKey(principalID string) string {
	return "profile:" + principalID
}
