package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	auditEventRegisterSuccess    = "register_success"
	auditEventRegisterFailure    = "register_failure"
	auditEventRegisterDuplicate  = "register_duplicate"
	auditEventRegisterRolledBack = "register_rolled_back"
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventVerificationSent   = "verification_code_sent"
	auditEventVerificationOK     = "verification_confirmed"
	auditEventVerificationFailed = "verification_rejected"
	auditEventRecoverySent       = "recovery_code_sent"
	auditEventRecoveryChecked    = "recovery_code_checked"
	auditEventRecoveryRejected   = "recovery_code_rejected"
	auditEventPasswordReset      = "password_reset"
	auditEventResendRateLimited  = "resend_rate_limited"
	auditEventAuthRejected       = "auth_rejected"
)

// AuditErrorCode is the stable error label carried by an AuditEvent. Sinks
// key off these strings, so they never change once published.
type AuditErrorCode string

const (
	auditErrMissingField       AuditErrorCode = "missing_field"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrNotFound           AuditErrorCode = "not_found"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnverified         AuditErrorCode = "email_unverified"
	auditErrAlreadyVerified    AuditErrorCode = "already_verified"
	auditErrCodePending        AuditErrorCode = "code_pending"
	auditErrCodeInvalid        AuditErrorCode = "code_invalid"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrDispatchFailed     AuditErrorCode = "dispatch_failed"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	email string,
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

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMissingField):
		return auditErrMissingField
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrAccountNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrEmailNotVerified):
		return auditErrUnverified
	case errors.Is(err, ErrAlreadyVerified):
		return auditErrAlreadyVerified
	case errors.Is(err, ErrCodeAlreadySent):
		return auditErrCodePending
	case errors.Is(err, ErrCodeInvalid):
		return auditErrCodeInvalid
	case errors.Is(err, ErrResendRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrCodeDispatchFailed),
		errors.Is(err, ErrMailerNotConfigured):
		return auditErrDispatchFailed
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	default:
		return auditErrInternal
	}
}
