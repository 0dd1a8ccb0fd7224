package authcore

import (
	"context"
	"errors"
	"time"
)

// RequestVerificationCode issues a fresh verification code for an
// unverified account and emails it.
//
// With forceResend false the call fails with ErrCodeAlreadySent while an
// unexpired code is pending. With forceResend true the pending code is
// replaced, subject to the resend limiter; a denied resend returns a
// *RateLimitedError carrying the remaining wait.
func (e *Engine) RequestVerificationCode(ctx context.Context, email string, forceResend bool) error {
	return e.requestCode(ctx, email, CodeVerification, forceResend)
}

// VerifyEmailCode confirms the account's email with a pending verification
// code. The code is consumed on success and survives failed attempts; a
// wrong guess never costs the real owner their code.
func (e *Engine) VerifyEmailCode(ctx context.Context, email, code string) (*PublicAccount, error) {
	if e.store == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || code == "" {
		return nil, ErrMissingField
	}

	account, err := e.store.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updated, err := e.store.UpdateAccount(ctx, account.ID, func(a *Account) error {
		if a.EmailVerified && a.VerificationCode == nil {
			return ErrAlreadyVerified
		}
		if !consumeCode(a, CodeVerification, code, now) {
			return ErrCodeInvalid
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCodeInvalid) || errors.Is(err, ErrAlreadyVerified) {
			e.metricInc(MetricCodeRejected)
			e.emitAudit(ctx, auditEventVerificationFailed, false, account.ID, email, err, nil)
		}
		return nil, err
	}

	e.metricInc(MetricCodeConsumed)
	e.emitAudit(ctx, auditEventVerificationOK, true, account.ID, email, nil, nil)

	pub := updated.Public()
	return &pub, nil
}
