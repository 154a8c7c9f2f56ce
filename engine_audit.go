package authgate

import (
	"context"
	"errors"
	"time"

	"github.com/corvidlabs/authgate/internal/audit"
	"github.com/corvidlabs/authgate/session"
	"github.com/google/uuid"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshFailure     = "refresh_failure"
	auditEventSessionInvalidated = "session_invalidated"
	auditEventInvalidateAll      = "invalidate_all"
	auditEventOwnershipViolation = "ownership_violation"
	auditEventAnomalyDetected    = "anomaly_detected"
)

// AuditErrorCode defines a public type used by authgate APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrSessionNotFound  AuditErrorCode = "session_not_found"
	auditErrOwnership        AuditErrorCode = "ownership_violation"
	auditErrAuthentication   AuditErrorCode = "authentication_failed"
	auditErrRefresh          AuditErrorCode = "token_refresh_failed"
	auditErrInvalidation     AuditErrorCode = "session_invalidation_failed"
	auditErrRotationConflict AuditErrorCode = "rotation_conflict"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionOwnership):
		return auditErrOwnership
	case errors.Is(err, session.ErrVersionConflict):
		return auditErrRotationConflict
	case errors.Is(err, ErrAuthenticationFailed):
		return auditErrAuthentication
	case errors.Is(err, ErrTokenRefreshFailed):
		return auditErrRefresh
	case errors.Is(err, ErrInvalidationFailed):
		return auditErrInvalidation
	default:
		return auditErrInternal
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principalID string,
	sessionID string,
	country string,
	reason string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := audit.Event{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		PrincipalID: principalID,
		SessionID:   sessionID,
		IP:          clientIPFromContext(ctx),
		UserAgent:   userAgentFromContext(ctx),
		Country:     country,
		Reason:      reason,
		Success:     success,
		Metadata:    metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}
