package authgate

import (
	"context"

	"github.com/corvidlabs/authgate/internal/audit"
	"github.com/corvidlabs/authgate/token"
)

// Principal is the account record the engine authenticates. The host's
// UserProvider returns it from the system of record; SecretHash carries the
// encoded credential hash and is never exposed through query results.
type Principal struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	SecretHash string `json:"-"`
	Active     bool   `json:"active"`
}

// Role is a named grant of permissions. PermissionsLoaded distinguishes a
// fully hydrated role from a listing projection that carries the name only;
// the query layer upgrades low-fidelity cache hits by going back to the
// system of record.
type Role struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Permissions       []string `json:"permissions,omitempty"`
	PermissionsLoaded bool     `json:"permissions_loaded"`
}

// Profile is the displayable projection of a principal.
type Profile struct {
	PrincipalID string            `json:"principal_id"`
	DisplayName string            `json:"display_name"`
	Email       string            `json:"email"`
	AvatarURL   string            `json:"avatar_url,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// AuthResult is the outcome of Login and Refresh. Expected authentication
// failures are reported here as OK=false with a message from the fixed
// vocabulary, never as Go errors; errors are reserved for infrastructure
// failures.
//
//	Docs: docs/engine.md
type AuthResult struct {
	OK          bool
	Message     string
	PrincipalID string
	Email       string
	SessionID   string
	Tokens      token.Pair
}

func failure(message string) *AuthResult {
	return &AuthResult{Message: message}
}

// UserProvider is the system-of-record interface the host must implement
// for principal lookup. A nil record with a nil error means "definitively
// not found" and is negatively cacheable; an error means the system of
// record could not answer.
//
//	Docs: docs/engine.md, docs/usage.md
type UserProvider interface {
	GetByIdentifier(ctx context.Context, identifier string) (*Principal, error)
	GetByID(ctx context.Context, id string) (*Principal, error)
	GetByEmail(ctx context.Context, email string) (*Principal, error)
	Profile(ctx context.Context, principalID string) (*Profile, error)
}

// RoleProvider is the system-of-record interface for role and permission
// lookup. The same nil-nil not-found convention as UserProvider applies.
//
//	Docs: docs/engine.md, docs/usage.md
type RoleProvider interface {
	RolesForPrincipal(ctx context.Context, principalID string) ([]Role, error)
	PermissionsForPrincipal(ctx context.Context, principalID string) ([]string, error)
	RoleByID(ctx context.Context, roleID string) (*Role, error)
}

// TokenCodec issues and validates the signed token pair. The token package
// provides the JWT implementation; hosts may substitute their own.
type TokenCodec interface {
	IssuePair(principalID, email string, permissions []string) (token.Pair, error)
	Validate(tokenStr string) error
	ValidateRefresh(tokenStr string) error
	ExtractPrincipalID(tokenStr string) (string, bool)
	ExtractEmail(tokenStr string) (string, bool)
}

// CredentialVerifier checks a plaintext secret against a stored hash. The
// password package provides the Argon2id implementation.
type CredentialVerifier interface {
	Verify(secret string, encodedHash string) (bool, error)
	Hash(secret string) (string, error)
}

// AuditEvent is an exported constant or variable used by the authentication engine.
type AuditEvent = audit.Event

// AuditSink is an exported constant or variable used by the authentication engine.
type AuditSink = audit.Sink
