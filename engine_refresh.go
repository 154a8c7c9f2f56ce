package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/corvidlabs/authgate/internal"
	"github.com/corvidlabs/authgate/session"
)

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The checks run strictly in order and the first failure short-circuits:
// codec validation, session lookup by refresh hash, session validity, claim
// presence, owner match, principal state, then rotation. A signed token is
// never sufficient on its own; it must be bound to a live session record,
// which is what makes server-side revocation effective.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if e == nil || e.users == nil || e.codec == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricRefreshLatency, time.Since(start))
		}
	}()

	if err := e.codec.ValidateRefresh(refreshToken); err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", "", "token_validation", nil, nil)
		return failure(MessageInvalidRefreshToken), nil
	}

	hash := internal.HashToken(refreshToken)
	sess, err := e.sessions.FindByRefreshTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", "", "unknown_refresh_hash", nil, nil)
			return failure(MessageInvalidRefreshToken), nil
		}
		return nil, fmt.Errorf("%w: session lookup: %v", ErrTokenRefreshFailed, err)
	}

	now := time.Now().UTC()
	if !sess.IsValid(now) {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, sess.PrincipalID, sess.ID, "", "session_expired", nil, nil)
		return failure(MessageSessionExpired), nil
	}

	principalID, okID := e.codec.ExtractPrincipalID(refreshToken)
	email, okEmail := e.codec.ExtractEmail(refreshToken)
	if !okID || !okEmail || principalID == "" || email == "" {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, sess.PrincipalID, sess.ID, "", "missing_claims", nil, nil)
		return failure(MessageInvalidTokenFormat), nil
	}

	if principalID != sess.PrincipalID {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, sess.PrincipalID, sess.ID, "", "owner_mismatch", nil, func() map[string]string {
			return map[string]string{
				"claimed_principal": principalID,
			}
		})
		return failure(MessageInvalidToken), nil
	}

	principal, err := e.users.GetByID(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("%w: principal lookup: %v", ErrTokenRefreshFailed, err)
	}
	if principal == nil || !principal.Active {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, principalID, sess.ID, "", "account_inactive", nil, nil)
		return failure(MessageAccountInactive), nil
	}

	permissions, err := e.PermissionsFor(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: permission lookup: %v", ErrTokenRefreshFailed, err)
	}

	pair, err := e.codec.IssuePair(principal.ID, principal.Email, permissions)
	if err != nil {
		return nil, fmt.Errorf("%w: token issuance: %v", ErrTokenRefreshFailed, err)
	}

	sess.Rotate(internal.HashToken(pair.AccessToken), internal.HashToken(pair.RefreshToken), pair.RefreshExpiresAt, now)
	if err := e.sessions.Update(ctx, sess); err != nil {
		if errors.Is(err, session.ErrVersionConflict) || errors.Is(err, session.ErrNotFound) {
			// A concurrent rotation won; this caller's token is stale.
			e.metricInc(MetricRotationConflict)
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, principal.ID, sess.ID, "", "rotation_conflict", err, nil)
			return failure(MessageInvalidRefreshToken), nil
		}
		return nil, fmt.Errorf("%w: session update: %v", ErrTokenRefreshFailed, err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, principal.ID, sess.ID, "", "", nil, nil)

	return &AuthResult{
		OK:          true,
		PrincipalID: principal.ID,
		Email:       principal.Email,
		SessionID:   sess.ID,
		Tokens:      pair,
	}, nil
}
