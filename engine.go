package authgate

import (
	"context"
	"fmt"
	"time"

	"github.com/corvidlabs/authgate/anomaly"
	"github.com/corvidlabs/authgate/cache"
	"github.com/corvidlabs/authgate/geo"
	"github.com/corvidlabs/authgate/internal"
	"github.com/corvidlabs/authgate/internal/audit"
	"github.com/corvidlabs/authgate/session"
	"github.com/google/uuid"
)

// Engine defines a public type used by authgate APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config   Config
	sessions session.Store
	cache    *cache.Cache
	codec    TokenCodec
	verifier CredentialVerifier
	users    UserProvider
	roles    RoleProvider
	detector *anomaly.Detector
	geo      geo.Resolver
	audit    *audit.Dispatcher
	metrics  *Metrics
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// resolveCountry is best-effort: any failure mode degrades to the unknown
// sentinel and never aborts the caller.
func (e *Engine) resolveCountry(ctx context.Context, ip string) string {
	if !e.config.Geo.Enabled || e.geo == nil || ip == "" {
		e.metricInc(MetricGeoFallback)
		return geo.UnknownCountry
	}
	country := e.geo.Country(ctx, ip)
	if country == "" {
		e.metricInc(MetricGeoFallback)
		return geo.UnknownCountry
	}
	return country
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (*AuthResult, error) {
	if e == nil || e.users == nil || e.verifier == nil || e.codec == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	principal, err := e.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: principal lookup: %v", ErrAuthenticationFailed, err)
	}
	if principal == nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", "unknown_principal", nil, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
			}
		})
		return failure(MessageInvalidCredentials), nil
	}
	if !principal.Active {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, principal.ID, "", "", "account_inactive", nil, nil)
		return failure(MessageAccountInactive), nil
	}

	ok, err := e.verifier.Verify(secret, principal.SecretHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, principal.ID, "", "", "secret_mismatch", nil, nil)
		return failure(MessageInvalidCredentials), nil
	}
	secret = ""

	permissions, err := e.PermissionsFor(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: permission lookup: %v", ErrAuthenticationFailed, err)
	}

	pair, err := e.codec.IssuePair(principal.ID, principal.Email, permissions)
	if err != nil {
		return nil, fmt.Errorf("%w: token issuance: %v", ErrAuthenticationFailed, err)
	}

	now := time.Now().UTC()
	ip := clientIPFromContext(ctx)
	country := e.resolveCountry(ctx, ip)
	sess := &session.Session{
		ID:               uuid.NewString(),
		PrincipalID:      principal.ID,
		AccessTokenHash:  internal.HashToken(pair.AccessToken),
		RefreshTokenHash: internal.HashToken(pair.RefreshToken),
		IPAddress:        ip,
		UserAgent:        userAgentFromContext(ctx),
		CountryCode:      country,
		CreatedAt:        now,
		LastUsedAt:       now,
		ExpiresAt:        pair.RefreshExpiresAt,
		Active:           true,
		Version:          1,
	}

	if err := e.sessions.Save(ctx, sess); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, principal.ID, sess.ID, country, "session_persist_failed", ErrAuthenticationFailed, nil)
		return nil, fmt.Errorf("%w: session persist: %v", ErrAuthenticationFailed, err)
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginSuccess, true, principal.ID, sess.ID, country, "", nil, nil)

	return &AuthResult{
		OK:          true,
		PrincipalID: principal.ID,
		Email:       principal.Email,
		SessionID:   sess.ID,
		Tokens:      pair,
	}, nil
}

// ActiveSessions describes the activesessions operation and its observable behavior.
//
// ActiveSessions may return an error when input validation, dependency calls, or security checks fail.
// ActiveSessions does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ActiveSessions(ctx context.Context, principalID string) ([]*session.Session, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	sessions, err := e.sessions.FindActiveByPrincipal(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("%w: session listing: %v", ErrQueryFailed, err)
	}
	return sessions, nil
}
