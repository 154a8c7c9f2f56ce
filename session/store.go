package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups when no session matches.
var ErrNotFound = errors.New("session not found")

// ErrVersionConflict is returned by Update when the stored session has moved
// past the caller's snapshot. Exactly one of any set of concurrent updates
// against the same session wins; the rest observe this error.
var ErrVersionConflict = errors.New("session version conflict")

// Store is the system-of-record contract for sessions. Implementations must
// provide row-level atomicity for Update (compare-and-swap on Version); the
// engine takes no in-process locks across concurrent requests.
type Store interface {
	// Save persists a new session. The session's Version starts at 1.
	Save(ctx context.Context, sess *Session) error

	// Update persists field changes to an existing session, guarded by the
	// caller's Version snapshot. On success the stored and in-memory Version
	// advance by one. Returns ErrNotFound or ErrVersionConflict.
	Update(ctx context.Context, sess *Session) error

	// FindByAccessTokenHash returns the session currently holding the given
	// access-token hash, or ErrNotFound.
	FindByAccessTokenHash(ctx context.Context, hash string) (*Session, error)

	// FindByRefreshTokenHash returns the session currently holding the given
	// refresh-token hash, or ErrNotFound.
	FindByRefreshTokenHash(ctx context.Context, hash string) (*Session, error)

	// FindActiveByPrincipal returns every currently valid session owned by
	// the principal. Invalid sessions are never included.
	FindActiveByPrincipal(ctx context.Context, principalID string) ([]*Session, error)
}
