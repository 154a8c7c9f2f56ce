package token

import (
	"crypto/ed25519"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod defines the signature algorithm used for issued tokens.
type SigningMethod string

const (
	// MethodEd25519 signs with EdDSA over Curve25519.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with HMAC-SHA256.
	MethodHS256 SigningMethod = "hs256"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// ErrInvalidToken is returned by Validate for any token that fails signature,
// expiry, issuer, audience, or type checks. Callers get no finer detail, by
// the same fixed-vocabulary rule the engine applies to its own results.
var ErrInvalidToken = errors.New("invalid token")

// Pair is one issued access/refresh token pair together with the expiry
// instants of each half. Pair values are never persisted as-is; the engine
// hashes both tokens before any storage.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Claims is the claim set embedded in both token halves. TokenType
// distinguishes access from refresh so one can never be replayed as the
// other.
type Claims struct {
	PrincipalID string   `json:"uid"`
	Email       string   `json:"email,omitempty"`
	Permissions []string `json:"perms,omitempty"`
	TokenType   string   `json:"typ"`
	jwt.RegisteredClaims
}

// Config carries the signing material and TTLs for the codec.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// Codec issues and verifies signed token pairs. A Codec is immutable after
// construction and safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("refresh TTL must exceed access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Codec{config: cfg}, nil
}

// IssuePair creates a new access/refresh pair scoped to the given principal,
// email, and permission names. The refresh token carries no permissions; it
// only proves the right to request a new pair. Each half carries a fresh
// random jti, so no two issuances ever produce the same token bytes; the
// hashed-token session indexes and in-place rotation depend on that.
func (c *Codec) IssuePair(principalID, email string, permissions []string) (Pair, error) {
	now := time.Now()
	accessExpiry := now.Add(c.config.AccessTTL)
	refreshExpiry := now.Add(c.config.RefreshTTL)

	access, err := c.sign(Claims{
		PrincipalID: principalID,
		Email:       email,
		Permissions: permissions,
		TokenType:   typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principalID,
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.config.Issuer,
		},
	})
	if err != nil {
		return Pair{}, err
	}

	refresh, err := c.sign(Claims{
		PrincipalID: principalID,
		Email:       email,
		TokenType:   typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principalID,
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.config.Issuer,
		},
	})
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

func (c *Codec) sign(claims Claims) (string, error) {
	if c.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{c.config.Audience}
	}

	tok := jwt.NewWithClaims(c.getMethod(), claims)
	signKey, err := c.getSignKey()
	if err != nil {
		return "", err
	}
	return tok.SignedString(signKey)
}

// Validate checks signature and registered claims of any token half.
// It reports only ErrInvalidToken on failure.
func (c *Codec) Validate(tokenStr string) error {
	_, err := c.parse(tokenStr)
	if err != nil {
		return ErrInvalidToken
	}
	return nil
}

// ValidateRefresh is Validate restricted to refresh-typed tokens.
func (c *Codec) ValidateRefresh(tokenStr string) error {
	claims, err := c.parse(tokenStr)
	if err != nil || claims.TokenType != typeRefresh {
		return ErrInvalidToken
	}
	return nil
}

// Parse returns the verified claim set of a token, or an error when the
// token does not verify.
func (c *Codec) Parse(tokenStr string) (*Claims, error) {
	return c.parse(tokenStr)
}

// ExtractPrincipalID returns the principal id claim of a verified token.
// The second return is false when the token is invalid or the claim absent.
func (c *Codec) ExtractPrincipalID(tokenStr string) (string, bool) {
	claims, err := c.parse(tokenStr)
	if err != nil || strings.TrimSpace(claims.PrincipalID) == "" {
		return "", false
	}
	return claims.PrincipalID, true
}

// ExtractEmail returns the email claim of a verified token.
// The second return is false when the token is invalid or the claim absent.
func (c *Codec) ExtractEmail(tokenStr string) (string, bool) {
	claims, err := c.parse(tokenStr)
	if err != nil || strings.TrimSpace(claims.Email) == "" {
		return "", false
	}
	return claims.Email, true
}

func (c *Codec) parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.getMethod().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}
	if c.config.Audience != "" {
		options = append(options, jwt.WithAudience(c.config.Audience))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.getVerifyKey()
	})
	if err != nil {
		return nil, err
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.TokenType != typeAccess && claims.TokenType != typeRefresh {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

func (c *Codec) getMethod() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (c *Codec) getSignKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.PrivateKey, nil
	default:
		return parseEdPrivateKey(c.config.PrivateKey)
	}
}

func (c *Codec) getVerifyKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.PrivateKey, nil
	default:
		return parseEdPublicKey(c.config.PublicKey)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
