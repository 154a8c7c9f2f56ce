package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a pgx-backed Store for deployments that want sessions in
// the primary database instead of Redis. Optimistic concurrency uses a
// version column checked in the UPDATE predicate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pgx pool. Call EnsureSchema once at
// startup if the table may not exist yet.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS auth_sessions (
    id                 TEXT PRIMARY KEY,
    principal_id       TEXT        NOT NULL,
    access_token_hash  TEXT        NOT NULL,
    refresh_token_hash TEXT        NOT NULL,
    ip_address         TEXT        NOT NULL DEFAULT '',
    user_agent         TEXT        NOT NULL DEFAULT '',
    country_code       TEXT        NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL,
    last_used_at       TIMESTAMPTZ NOT NULL,
    expires_at         TIMESTAMPTZ NOT NULL,
    active             BOOLEAN     NOT NULL DEFAULT TRUE,
    version            BIGINT      NOT NULL DEFAULT 1
);
CREATE UNIQUE INDEX IF NOT EXISTS auth_sessions_access_hash ON auth_sessions (access_token_hash);
CREATE UNIQUE INDEX IF NOT EXISTS auth_sessions_refresh_hash ON auth_sessions (refresh_token_hash);
CREATE INDEX IF NOT EXISTS auth_sessions_principal ON auth_sessions (principal_id);
`

const insertSQL = `
INSERT INTO auth_sessions
    (id, principal_id, access_token_hash, refresh_token_hash,
     ip_address, user_agent, country_code,
     created_at, last_used_at, expires_at, active, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const updateSQL = `
UPDATE auth_sessions SET
    access_token_hash = $3,
    refresh_token_hash = $4,
    ip_address = $5,
    user_agent = $6,
    country_code = $7,
    last_used_at = $8,
    expires_at = $9,
    active = $10,
    version = version + 1
WHERE id = $1 AND version = $2`

// EnsureSchema creates the sessions table and its lookup indexes.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// Save inserts a new session row.
func (s *PostgresStore) Save(ctx context.Context, sess *Session) error {
	if sess.Version == 0 {
		sess.Version = 1
	}
	_, err := s.pool.Exec(ctx, insertSQL,
		sess.ID, sess.PrincipalID, sess.AccessTokenHash, sess.RefreshTokenHash,
		sess.IPAddress, sess.UserAgent, sess.CountryCode,
		sess.CreatedAt, sess.LastUsedAt, sess.ExpiresAt, sess.Active, sess.Version)
	return err
}

// Update rewrites the row only when the stored version matches the caller's
// snapshot, advancing the version by one.
func (s *PostgresStore) Update(ctx context.Context, sess *Session) error {
	tag, err := s.pool.Exec(ctx, updateSQL,
		sess.ID, sess.Version,
		sess.AccessTokenHash, sess.RefreshTokenHash,
		sess.IPAddress, sess.UserAgent, sess.CountryCode,
		sess.LastUsedAt, sess.ExpiresAt, sess.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM auth_sessions WHERE id = $1)`,
			sess.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrVersionConflict
		}
		return ErrNotFound
	}
	sess.Version++
	return nil
}

const selectColumns = `
    id, principal_id, access_token_hash, refresh_token_hash,
    ip_address, user_agent, country_code,
    created_at, last_used_at, expires_at, active, version`

// FindByAccessTokenHash looks a session up by its access token hash.
func (s *PostgresStore) FindByAccessTokenHash(ctx context.Context, hash string) (*Session, error) {
	return s.findOne(ctx,
		`SELECT`+selectColumns+` FROM auth_sessions WHERE access_token_hash = $1`, hash)
}

// FindByRefreshTokenHash looks a session up by its refresh token hash.
func (s *PostgresStore) FindByRefreshTokenHash(ctx context.Context, hash string) (*Session, error) {
	return s.findOne(ctx,
		`SELECT`+selectColumns+` FROM auth_sessions WHERE refresh_token_hash = $1`, hash)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*Session, error) {
	row := s.pool.QueryRow(ctx, query, arg)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// FindActiveByPrincipal returns the principal's currently valid sessions.
func (s *PostgresStore) FindActiveByPrincipal(ctx context.Context, principalID string) ([]*Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT`+selectColumns+` FROM auth_sessions
WHERE principal_id = $1 AND active AND expires_at > $2
ORDER BY created_at`, principalID, time.Now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row) (*Session, error) {
	var sess Session
	err := row.Scan(
		&sess.ID, &sess.PrincipalID, &sess.AccessTokenHash, &sess.RefreshTokenHash,
		&sess.IPAddress, &sess.UserAgent, &sess.CountryCode,
		&sess.CreatedAt, &sess.LastUsedAt, &sess.ExpiresAt, &sess.Active, &sess.Version)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}
