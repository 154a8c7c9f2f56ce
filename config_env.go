package authgate

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

type envConfig struct {
	Token struct {
		AccessTTL     time.Duration `env:"AUTHGATE_TOKEN_ACCESS_TTL,default=15m"`
		RefreshTTL    time.Duration `env:"AUTHGATE_TOKEN_REFRESH_TTL,default=168h"`
		SigningMethod string        `env:"AUTHGATE_TOKEN_SIGNING_METHOD,default=ed25519"`
		PrivateKey    string        `env:"AUTHGATE_TOKEN_PRIVATE_KEY,default="`
		PublicKey     string        `env:"AUTHGATE_TOKEN_PUBLIC_KEY,default="`
		Issuer        string        `env:"AUTHGATE_TOKEN_ISSUER,default=authgate"`
		Audience      string        `env:"AUTHGATE_TOKEN_AUDIENCE,default="`
		Leeway        time.Duration `env:"AUTHGATE_TOKEN_LEEWAY,default=30s"`
	}
	Session struct {
		RedisPrefix string        `env:"AUTHGATE_SESSION_REDIS_PREFIX,default=ag"`
		Retention   time.Duration `env:"AUTHGATE_SESSION_RETENTION,default=24h"`
	}
	Cache struct {
		Enabled     bool          `env:"AUTHGATE_CACHE_ENABLED,default=true"`
		RedisPrefix string        `env:"AUTHGATE_CACHE_REDIS_PREFIX,default=ag"`
		TTL         time.Duration `env:"AUTHGATE_CACHE_TTL,default=5m"`
		NegativeTTL time.Duration `env:"AUTHGATE_CACHE_NEGATIVE_TTL,default=30s"`
	}
	Anomaly struct {
		MaxSessions        int           `env:"AUTHGATE_ANOMALY_MAX_SESSIONS,default=10"`
		MaxDistinctIPs     int           `env:"AUTHGATE_ANOMALY_MAX_DISTINCT_IPS,default=3"`
		MaxRecentCreations int           `env:"AUTHGATE_ANOMALY_MAX_RECENT_CREATIONS,default=5"`
		MaxUserAgents      int           `env:"AUTHGATE_ANOMALY_MAX_USER_AGENTS,default=5"`
		RecentWindow       time.Duration `env:"AUTHGATE_ANOMALY_RECENT_WINDOW,default=1h"`
	}
	Geo struct {
		Enabled bool `env:"AUTHGATE_GEO_ENABLED,default=true"`
	}
	Audit struct {
		Enabled    bool `env:"AUTHGATE_AUDIT_ENABLED,default=true"`
		BufferSize int  `env:"AUTHGATE_AUDIT_BUFFER_SIZE,default=1024"`
		DropIfFull bool `env:"AUTHGATE_AUDIT_DROP_IF_FULL,default=true"`
	}
	Metrics struct {
		Enabled                 bool `env:"AUTHGATE_METRICS_ENABLED,default=true"`
		EnableLatencyHistograms bool `env:"AUTHGATE_METRICS_LATENCY_HISTOGRAMS,default=false"`
	}
}

// ConfigFromEnv builds a Config from AUTHGATE_* environment variables,
// falling back to the defaults of DefaultConfig for anything unset. Signing
// keys are passed base64 encoded (standard encoding).
//
// ConfigFromEnv may return an error when input validation, dependency calls, or security checks fail.
// ConfigFromEnv does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func ConfigFromEnv() (Config, error) {
	var env envConfig
	if err := envdecode.Decode(&env); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	cfg := defaultConfig()
	cfg.Token.AccessTTL = env.Token.AccessTTL
	cfg.Token.RefreshTTL = env.Token.RefreshTTL
	cfg.Token.SigningMethod = env.Token.SigningMethod
	cfg.Token.Issuer = env.Token.Issuer
	cfg.Token.Audience = env.Token.Audience
	cfg.Token.Leeway = env.Token.Leeway

	if env.Token.PrivateKey != "" {
		key, err := base64.StdEncoding.DecodeString(env.Token.PrivateKey)
		if err != nil {
			return Config{}, fmt.Errorf("decode AUTHGATE_TOKEN_PRIVATE_KEY: %w", err)
		}
		cfg.Token.PrivateKey = key
	}
	if env.Token.PublicKey != "" {
		key, err := base64.StdEncoding.DecodeString(env.Token.PublicKey)
		if err != nil {
			return Config{}, fmt.Errorf("decode AUTHGATE_TOKEN_PUBLIC_KEY: %w", err)
		}
		cfg.Token.PublicKey = key
	}

	cfg.Session.RedisPrefix = env.Session.RedisPrefix
	cfg.Session.Retention = env.Session.Retention

	cfg.Cache.Enabled = env.Cache.Enabled
	cfg.Cache.RedisPrefix = env.Cache.RedisPrefix
	cfg.Cache.TTL = env.Cache.TTL
	cfg.Cache.NegativeTTL = env.Cache.NegativeTTL

	cfg.Anomaly.MaxSessions = env.Anomaly.MaxSessions
	cfg.Anomaly.MaxDistinctIPs = env.Anomaly.MaxDistinctIPs
	cfg.Anomaly.MaxRecentCreations = env.Anomaly.MaxRecentCreations
	cfg.Anomaly.MaxUserAgents = env.Anomaly.MaxUserAgents
	cfg.Anomaly.RecentWindow = env.Anomaly.RecentWindow

	cfg.Geo.Enabled = env.Geo.Enabled

	cfg.Audit.Enabled = env.Audit.Enabled
	cfg.Audit.BufferSize = env.Audit.BufferSize
	cfg.Audit.DropIfFull = env.Audit.DropIfFull

	cfg.Metrics.Enabled = env.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = env.Metrics.EnableLatencyHistograms

	return cfg, nil
}
