package authcore

import (
	"context"
	"errors"
	"time"
)

// RequestPasswordRecovery issues a fresh recovery code for the account and
// emails it. Recovery does not require a verified email: a user locked out
// before verifying can still regain access. Pending-code and forced-resend
// semantics match RequestVerificationCode.
func (e *Engine) RequestPasswordRecovery(ctx context.Context, email string, forceResend bool) error {
	return e.requestCode(ctx, email, CodeRecovery, forceResend)
}

// VerifyRecoveryCode checks a recovery code without consuming it, so a
// client can validate the code in one step and submit the new password with
// the same code in the next.
func (e *Engine) VerifyRecoveryCode(ctx context.Context, email, code string) error {
	if e.store == nil {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || code == "" {
		return ErrMissingField
	}

	account, err := e.store.GetAccountByEmail(ctx, email)
	if err != nil {
		return err
	}

	if !matchCode(account, CodeRecovery, code, time.Now()) {
		e.metricInc(MetricCodeRejected)
		e.emitAudit(ctx, auditEventRecoveryRejected, false, account.ID, email, ErrCodeInvalid, nil)
		return ErrCodeInvalid
	}

	e.emitAudit(ctx, auditEventRecoveryChecked, true, account.ID, email, nil, nil)
	return nil
}

// ResetPassword consumes the recovery code and replaces the credential in
// one atomic update, so the same code can never authorize two resets.
func (e *Engine) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if e.store == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || code == "" || newPassword == "" {
		return ErrMissingField
	}

	account, err := e.store.GetAccountByEmail(ctx, email)
	if err != nil {
		return err
	}

	// Cheap pre-check before paying for the hash. The authoritative check
	// runs again inside the atomic update.
	now := time.Now()
	if !matchCode(account, CodeRecovery, code, now) {
		e.metricInc(MetricCodeRejected)
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventRecoveryRejected, false, account.ID, email, ErrCodeInvalid, nil)
		return ErrCodeInvalid
	}

	hash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordReset, false, account.ID, email, ErrPasswordPolicy, nil)
		return ErrPasswordPolicy
	}

	if _, err := e.store.UpdateAccount(ctx, account.ID, func(a *Account) error {
		if !consumeCode(a, CodeRecovery, code, now) {
			return ErrCodeInvalid
		}
		a.PasswordHash = hash
		return nil
	}); err != nil {
		if errors.Is(err, ErrCodeInvalid) {
			e.metricInc(MetricCodeRejected)
			e.metricInc(MetricPasswordResetFailure)
			e.emitAudit(ctx, auditEventRecoveryRejected, false, account.ID, email, ErrCodeInvalid, nil)
		}
		return err
	}

	e.metricInc(MetricCodeConsumed)
	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordReset, true, account.ID, email, nil, nil)
	return nil
}
