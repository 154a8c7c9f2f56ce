package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const minRetention = time.Minute

// Version-guarded update. Rewrites the session payload only when the stored
// version still matches the caller's snapshot, and moves the token-hash
// index keys alongside. Returns 0 when the session is gone, -1 on a version
// conflict, 1 on success.
const updateSessionScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local current = cjson.decode(data)
if tonumber(current.version) ~= tonumber(ARGV[1]) then
  return -1
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
if KEYS[2] ~= KEYS[4] then
  redis.call("DEL", KEYS[2])
  redis.call("SET", KEYS[4], ARGV[4], "PX", ARGV[3])
else
  redis.call("SET", KEYS[4], ARGV[4], "PX", ARGV[3])
end
if KEYS[3] ~= KEYS[5] then
  redis.call("DEL", KEYS[3])
  redis.call("SET", KEYS[5], ARGV[4], "PX", ARGV[3])
else
  redis.call("SET", KEYS[5], ARGV[4], "PX", ARGV[3])
end
return 1
`

var updateSessionLua = redis.NewScript(updateSessionScript)

// RedisStore is a Redis-backed Store. Sessions are stored as JSON under a
// per-id key, with token-hash index keys pointing back at the id and a
// per-principal set for owner enumeration. Updates go through a Lua script
// so the version check and the write are a single Redis operation.
type RedisStore struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisStore creates a RedisStore. prefix namespaces all keys; retention
// is how long an expired or invalidated session stays readable before Redis
// evicts it (the engine itself never deletes sessions).
func NewRedisStore(client redis.UniversalClient, prefix string, retention time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "ag"
	}
	if retention < minRetention {
		retention = minRetention
	}
	return &RedisStore{
		redis:     client,
		prefix:    prefix,
		retention: retention,
	}
}

func (s *RedisStore) sessionKey(id string) string {
	return s.prefix + ":s:" + id
}

func (s *RedisStore) accessKey(hash string) string {
	return s.prefix + ":a:" + hash
}

func (s *RedisStore) refreshKey(hash string) string {
	return s.prefix + ":r:" + hash
}

func (s *RedisStore) principalKey(principalID string) string {
	return s.prefix + ":p:" + principalID
}

func (s *RedisStore) ttl(sess *Session) time.Duration {
	ttl := time.Until(sess.ExpiresAt) + s.retention
	if ttl < minRetention {
		ttl = minRetention
	}
	return ttl
}

// Save persists a new session and its lookup indexes.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess.Version == 0 {
		sess.Version = 1
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ttl := s.ttl(sess)
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.sessionKey(sess.ID), payload, ttl)
	pipe.Set(ctx, s.accessKey(sess.AccessTokenHash), sess.ID, ttl)
	pipe.Set(ctx, s.refreshKey(sess.RefreshTokenHash), sess.ID, ttl)
	pipe.SAdd(ctx, s.principalKey(sess.PrincipalID), sess.ID)
	pipe.Expire(ctx, s.principalKey(sess.PrincipalID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Update applies a version-guarded rewrite of the session payload.
func (s *RedisStore) Update(ctx context.Context, sess *Session) error {
	current, err := s.getByID(ctx, sess.ID)
	if err != nil {
		return err
	}

	next := *sess
	next.Version = sess.Version + 1
	payload, err := json.Marshal(&next)
	if err != nil {
		return err
	}

	keys := []string{
		s.sessionKey(sess.ID),
		s.accessKey(current.AccessTokenHash),
		s.refreshKey(current.RefreshTokenHash),
		s.accessKey(next.AccessTokenHash),
		s.refreshKey(next.RefreshTokenHash),
	}
	args := []interface{}{
		sess.Version,
		payload,
		s.ttl(&next).Milliseconds(),
		sess.ID,
	}

	res, err := updateSessionLua.Run(ctx, s.redis, keys, args...).Int64()
	if err != nil {
		return err
	}
	switch res {
	case 1:
		sess.Version = next.Version
		return nil
	case -1:
		return ErrVersionConflict
	default:
		return ErrNotFound
	}
}

// FindByAccessTokenHash resolves the access-hash index to a session.
func (s *RedisStore) FindByAccessTokenHash(ctx context.Context, hash string) (*Session, error) {
	return s.findByIndex(ctx, s.accessKey(hash))
}

// FindByRefreshTokenHash resolves the refresh-hash index to a session.
func (s *RedisStore) FindByRefreshTokenHash(ctx context.Context, hash string) (*Session, error) {
	return s.findByIndex(ctx, s.refreshKey(hash))
}

func (s *RedisStore) findByIndex(ctx context.Context, indexKey string) (*Session, error) {
	id, err := s.redis.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.getByID(ctx, id)
}

func (s *RedisStore) getByID(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// FindActiveByPrincipal enumerates the principal's session set and returns
// only currently valid sessions. Ids whose records have been evicted are
// pruned from the set opportunistically.
func (s *RedisStore) FindActiveByPrincipal(ctx context.Context, principalID string) ([]*Session, error) {
	ids, err := s.redis.SMembers(ctx, s.principalKey(principalID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	now := time.Now()
	var out []*Session
	var stale []interface{}
	for _, id := range ids {
		sess, err := s.getByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				stale = append(stale, id)
				continue
			}
			return nil, err
		}
		if sess.IsValid(now) {
			out = append(out, sess)
		}
	}

	if len(stale) > 0 {
		_ = s.redis.SRem(ctx, s.principalKey(principalID), stale...).Err()
	}
	return out, nil
}
