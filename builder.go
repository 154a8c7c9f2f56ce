package authgate

import (
	"errors"

	"github.com/corvidlabs/authgate/anomaly"
	"github.com/corvidlabs/authgate/cache"
	"github.com/corvidlabs/authgate/geo"
	"github.com/corvidlabs/authgate/internal/audit"
	"github.com/corvidlabs/authgate/password"
	"github.com/corvidlabs/authgate/session"
	"github.com/corvidlabs/authgate/token"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by authgate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sessionStore session.Store
	codec        TokenCodec
	verifier     CredentialVerifier
	userProvider UserProvider
	roleProvider RoleProvider
	geoResolver  geo.Resolver
	auditSink    AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore overrides the Redis-backed default, e.g. with
// session.PostgresStore.
//
// WithSessionStore may return an error when input validation, dependency calls, or security checks fail.
// WithSessionStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithTokenCodec describes the withtokencodec operation and its observable behavior.
//
// WithTokenCodec may return an error when input validation, dependency calls, or security checks fail.
// WithTokenCodec does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTokenCodec(codec TokenCodec) *Builder {
	b.codec = codec
	return b
}

// WithCredentialVerifier describes the withcredentialverifier operation and its observable behavior.
//
// WithCredentialVerifier may return an error when input validation, dependency calls, or security checks fail.
// WithCredentialVerifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCredentialVerifier(verifier CredentialVerifier) *Builder {
	b.verifier = verifier
	return b
}

// WithUserProvider describes the withuserprovider operation and its observable behavior.
//
// WithUserProvider may return an error when input validation, dependency calls, or security checks fail.
// WithUserProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithRoleProvider describes the withroleprovider operation and its observable behavior.
//
// WithRoleProvider may return an error when input validation, dependency calls, or security checks fail.
// WithRoleProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRoleProvider(rp RoleProvider) *Builder {
	b.roleProvider = rp
	return b
}

// WithGeoResolver describes the withgeoresolver operation and its observable behavior.
//
// WithGeoResolver may return an error when input validation, dependency calls, or security checks fail.
// WithGeoResolver does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithGeoResolver(resolver geo.Resolver) *Builder {
	b.geoResolver = resolver
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}
	if b.roleProvider == nil {
		return nil, errors.New("role provider required")
	}

	codec := b.codec
	if codec == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		c, err := token.NewCodec(token.Config{
			AccessTTL:     cfg.Token.AccessTTL,
			RefreshTTL:    cfg.Token.RefreshTTL,
			SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
			PrivateKey:    cfg.Token.PrivateKey,
			PublicKey:     cfg.Token.PublicKey,
			Issuer:        cfg.Token.Issuer,
			Audience:      cfg.Token.Audience,
			Leeway:        cfg.Token.Leeway,
		})
		if err != nil {
			return nil, err
		}
		codec = c
	}

	verifier := b.verifier
	if verifier == nil {
		v, err := password.NewArgon2(password.Config{
			Memory:      cfg.Secret.Memory,
			Time:        cfg.Secret.Time,
			Parallelism: cfg.Secret.Parallelism,
			SaltLength:  cfg.Secret.SaltLength,
			KeyLength:   cfg.Secret.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		verifier = v
	}

	store := b.sessionStore
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session store required")
		}
		store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.Retention)
	}

	var permCache *cache.Cache
	if cfg.Cache.Enabled && b.redis != nil {
		permCache = cache.New(b.redis, cache.Config{
			Prefix:      cfg.Cache.RedisPrefix,
			TTL:         cfg.Cache.TTL,
			NegativeTTL: cfg.Cache.NegativeTTL,
		})
	}

	resolver := b.geoResolver
	if resolver == nil {
		resolver = geo.NoopResolver{}
	}

	sink := b.auditSink
	if sink == nil {
		sink = audit.NoOpSink{}
	}
	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, sink)

	detector := anomaly.NewDetector(anomaly.Thresholds{
		MaxSessions:        cfg.Anomaly.MaxSessions,
		MaxDistinctIPs:     cfg.Anomaly.MaxDistinctIPs,
		MaxRecentCreations: cfg.Anomaly.MaxRecentCreations,
		MaxUserAgents:      cfg.Anomaly.MaxUserAgents,
		RecentWindow:       cfg.Anomaly.RecentWindow,
	})

	b.built = true

	return &Engine{
		config:   cfg,
		sessions: store,
		cache:    permCache,
		codec:    codec,
		verifier: verifier,
		users:    b.userProvider,
		roles:    b.roleProvider,
		detector: detector,
		geo:      resolver,
		audit:    dispatcher,
		metrics:  NewMetrics(cfg.Metrics),
	}, nil
}
