package authgate

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrSessionNotFound is an exported constant or variable used by the authentication engine.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionOwnership is an exported constant or variable used by the authentication engine.
	ErrSessionOwnership = errors.New("session ownership violation")
	// ErrAuthenticationFailed is an exported constant or variable used by the authentication engine.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrTokenRefreshFailed is an exported constant or variable used by the authentication engine.
	ErrTokenRefreshFailed = errors.New("token refresh failed")
	// ErrInvalidationFailed is an exported constant or variable used by the authentication engine.
	ErrInvalidationFailed = errors.New("session invalidation failed")
	// ErrQueryFailed is an exported constant or variable used by the authentication engine.
	ErrQueryFailed = errors.New("authorization query failed")
)

// Fixed failure vocabulary. Login and Refresh never return messages outside
// this set, so callers cannot distinguish which check failed beyond it.
const (
	// MessageInvalidCredentials is an exported constant or variable used by the authentication engine.
	MessageInvalidCredentials = "Invalid credentials"
	// MessageAccountInactive is an exported constant or variable used by the authentication engine.
	MessageAccountInactive = "Account is inactive"
	// MessageSessionExpired is an exported constant or variable used by the authentication engine.
	MessageSessionExpired = "Session expired"
	// MessageInvalidToken is an exported constant or variable used by the authentication engine.
	MessageInvalidToken = "Invalid token"
	// MessageInvalidRefreshToken is an exported constant or variable used by the authentication engine.
	MessageInvalidRefreshToken = "Invalid refresh token"
	// MessageInvalidTokenFormat is an exported constant or variable used by the authentication engine.
	MessageInvalidTokenFormat = "Invalid token format"
)
