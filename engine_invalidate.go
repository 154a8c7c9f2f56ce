package authgate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/corvidlabs/authgate/internal"
	"github.com/corvidlabs/authgate/session"
)

// InvalidateSession describes the invalidatesession operation and its observable behavior.
//
// InvalidateSession may return an error when input validation, dependency calls, or security checks fail.
// InvalidateSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// This is the self-service path: the session resolved from the supplied
// token must belong to principalID, otherwise the call fails with
// ErrSessionOwnership, distinct from ErrSessionNotFound so violations can
// be alerted on separately.
func (e *Engine) InvalidateSession(ctx context.Context, principalID, anyToken, reason string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	hash := internal.HashToken(anyToken)
	sess, err := e.sessions.FindByAccessTokenHash(ctx, hash)
	if errors.Is(err, session.ErrNotFound) {
		sess, err = e.sessions.FindByRefreshTokenHash(ctx, hash)
	}
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("%w: session lookup: %v", ErrInvalidationFailed, err)
	}

	if sess.PrincipalID != principalID {
		e.metricInc(MetricOwnershipViolation)
		e.emitAudit(ctx, auditEventOwnershipViolation, false, principalID, sess.ID, "", reason, ErrSessionOwnership, func() map[string]string {
			return map[string]string{
				"session_owner": sess.PrincipalID,
			}
		})
		return ErrSessionOwnership
	}

	country := e.resolveCountry(ctx, clientIPFromContext(ctx))
	e.emitAudit(ctx, auditEventSessionInvalidated, true, principalID, sess.ID, country, reason, nil, nil)

	sess.Invalidate()
	if err := e.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("%w: session update: %v", ErrInvalidationFailed, err)
	}

	e.metricInc(MetricSessionInvalidated)
	return nil
}

// InvalidateAllSessions describes the invalidateallsessions operation and its observable behavior.
//
// InvalidateAllSessions may return an error when input validation, dependency calls, or security checks fail.
// InvalidateAllSessions does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// This is the administrative path used for security response. The bulk
// action is audited up front regardless of outcome, anomaly signals are
// computed over the full pre-filter session set for the audit trail only,
// and persistence is all-or-nothing: the first failed update fails the
// whole call rather than reporting a partial count.
func (e *Engine) InvalidateAllSessions(ctx context.Context, actingID, targetID string, excludeCurrent bool, currentToken, reason string) (int, error) {
	if e == nil || e.sessions == nil {
		return 0, ErrEngineNotReady
	}

	country := e.resolveCountry(ctx, clientIPFromContext(ctx))
	e.emitAudit(ctx, auditEventInvalidateAll, true, targetID, "", country, reason, nil, func() map[string]string {
		return map[string]string{
			"acting_principal": actingID,
			"exclude_current":  strconv.FormatBool(excludeCurrent),
		}
	})

	sessions, err := e.sessions.FindActiveByPrincipal(ctx, targetID)
	if err != nil {
		return 0, fmt.Errorf("%w: session listing: %v", ErrInvalidationFailed, err)
	}
	if len(sessions) == 0 {
		return 0, nil
	}

	e.reportAnomalies(ctx, targetID, sessions)

	var currentHash string
	if excludeCurrent && currentToken != "" {
		currentHash = internal.HashToken(currentToken)
	}

	invalidated := 0
	for _, sess := range sessions {
		if currentHash != "" && (sess.AccessTokenHash == currentHash || sess.RefreshTokenHash == currentHash) {
			continue
		}
		sess.Invalidate()
		if err := e.sessions.Update(ctx, sess); err != nil {
			return 0, fmt.Errorf("%w: session %s update: %v", ErrInvalidationFailed, sess.ID, err)
		}
		e.metricInc(MetricSessionInvalidated)
		invalidated++
	}

	e.metricInc(MetricInvalidateAll)
	return invalidated, nil
}

func (e *Engine) reportAnomalies(ctx context.Context, principalID string, sessions []*session.Session) {
	if e.detector == nil {
		return
	}
	signals := e.detector.Evaluate(sessions, time.Now().UTC())
	if len(signals) == 0 {
		return
	}
	for range signals {
		e.metricInc(MetricAnomalySignal)
	}
	e.emitAudit(ctx, auditEventAnomalyDetected, true, principalID, "", "", "", nil, func() map[string]string {
		md := make(map[string]string, len(signals)+1)
		md["session_count"] = strconv.Itoa(len(sessions))
		for i, s := range signals {
			md["signal_"+strconv.Itoa(i)] = string(s)
		}
		return md
	})
}
