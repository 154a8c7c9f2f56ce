package session

import "time"

// Session is the durable record of one issued credential grant. Only one-way
// hashes of the tokens are stored; the raw token values never reach the
// store. Identity, owner, and creation-time provenance are immutable after
// creation. Version guards concurrent updates: every successful store update
// increments it, and a stale writer loses with ErrVersionConflict.
type Session struct {
	ID               string    `json:"id"`
	PrincipalID      string    `json:"principal_id"`
	AccessTokenHash  string    `json:"access_token_hash"`
	RefreshTokenHash string    `json:"refresh_token_hash"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
	CountryCode      string    `json:"country_code,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	LastUsedAt       time.Time `json:"last_used_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	Active           bool      `json:"active"`
	Version          uint64    `json:"version"`
}

// IsValid reports whether the session may authorize anything at the given
// instant: it must be active and its refresh expiry must be in the future.
func (s *Session) IsValid(now time.Time) bool {
	return s != nil && s.Active && now.Before(s.ExpiresAt)
}

// Touch advances LastUsedAt. The field is monotonically non-decreasing, so
// an older instant is ignored.
func (s *Session) Touch(now time.Time) {
	if s == nil {
		return
	}
	if now.After(s.LastUsedAt) {
		s.LastUsedAt = now
	}
}

// Rotate swaps in a freshly issued pair's hashes and refresh expiry. Session
// identity and owner are untouched; this is an in-place update, never a new
// record.
func (s *Session) Rotate(accessTokenHash, refreshTokenHash string, expiresAt, now time.Time) {
	s.AccessTokenHash = accessTokenHash
	s.RefreshTokenHash = refreshTokenHash
	s.ExpiresAt = expiresAt
	s.Touch(now)
}

// Invalidate marks the session terminally inactive. Active is never reset
// to true.
func (s *Session) Invalidate() {
	s.Active = false
}
