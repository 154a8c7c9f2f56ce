package authgate

import (
	"errors"
	"time"

	"github.com/corvidlabs/authgate/token"
)

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token   TokenConfig
	Session SessionConfig
	Secret  SecretConfig
	Cache   CacheConfig
	Anomaly AnomalyConfig
	Geo     GeoConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by authgate APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by authgate APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix string
	// Retention is how long an expired or invalidated session stays
	// readable in the Redis store before eviction.
	Retention time.Duration
}

/*
====================================
SECRET CONFIG
====================================
*/

// SecretConfig defines a public type used by authgate APIs.
//
// SecretConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecretConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig defines a public type used by authgate APIs.
//
// CacheConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CacheConfig struct {
	Enabled     bool
	RedisPrefix string
	TTL         time.Duration
	NegativeTTL time.Duration
}

/*
====================================
ANOMALY CONFIG
====================================
*/

// AnomalyConfig defines a public type used by authgate APIs.
//
// AnomalyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AnomalyConfig struct {
	MaxSessions        int
	MaxDistinctIPs     int
	MaxRecentCreations int
	MaxUserAgents      int
	RecentWindow       time.Duration
}

/*
====================================
GEO CONFIG
====================================
*/

// GeoConfig defines a public type used by authgate APIs.
//
// GeoConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GeoConfig struct {
	Enabled bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by authgate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by authgate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: string(token.MethodEd25519),
			Issuer:        "authgate",
			Leeway:        30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix: "ag",
			Retention:   24 * time.Hour,
		},
		Secret: SecretConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Cache: CacheConfig{
			Enabled:     true,
			RedisPrefix: "ag",
			TTL:         5 * time.Minute,
			NegativeTTL: 30 * time.Second,
		},
		Anomaly: AnomalyConfig{
			MaxSessions:        10,
			MaxDistinctIPs:     3,
			MaxRecentCreations: 5,
			MaxUserAgents:      5,
			RecentWindow:       time.Hour,
		},
		Geo: GeoConfig{
			Enabled: true,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = append([]byte(nil), cfg.Token.PrivateKey...)
	out.Token.PublicKey = append([]byte(nil), cfg.Token.PublicKey...)
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token.AccessTTL must be positive")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token.RefreshTTL must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("Token.RefreshTTL must exceed Token.AccessTTL")
	}
	switch token.SigningMethod(c.Token.SigningMethod) {
	case token.MethodEd25519, token.MethodHS256:
	default:
		return errors.New("Token.SigningMethod must be ed25519 or hs256")
	}
	if len(c.Token.PrivateKey) == 0 {
		return errors.New("Token.PrivateKey required")
	}
	if token.SigningMethod(c.Token.SigningMethod) == token.MethodEd25519 && len(c.Token.PublicKey) == 0 {
		return errors.New("Token.PublicKey required for ed25519")
	}
	if c.Session.Retention < 0 {
		return errors.New("Session.Retention must not be negative")
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return errors.New("Cache.TTL must be positive")
		}
		if c.Cache.NegativeTTL <= 0 {
			return errors.New("Cache.NegativeTTL must be positive")
		}
		if c.Cache.NegativeTTL > c.Cache.TTL {
			return errors.New("Cache.NegativeTTL must not exceed Cache.TTL")
		}
	}
	if c.Anomaly.MaxSessions < 0 || c.Anomaly.MaxDistinctIPs < 0 ||
		c.Anomaly.MaxRecentCreations < 0 || c.Anomaly.MaxUserAgents < 0 {
		return errors.New("Anomaly thresholds must not be negative")
	}
	if c.Anomaly.RecentWindow < 0 {
		return errors.New("Anomaly.RecentWindow must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}
	return nil
}
