package authcore

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/projectary/authcore/internal"
)

// resendKey scopes limiter entries per code kind, so a verification resend
// never burns the recovery window for the same address.
func resendKey(kind CodeKind, email string) string {
	return kind.String() + ":" + email
}

// requestCode is the shared issue-and-dispatch path behind
// RequestVerificationCode and RequestPasswordRecovery.
//
// Non-forced requests are refused while an unexpired code is pending.
// Forced requests skip that guard but go through the resend limiter, and
// always overwrite the stored code, invalidating the previous one. The
// limiter is recorded only after the mail actually went out; a failed
// dispatch leaves the identity free to retry immediately.
func (e *Engine) requestCode(ctx context.Context, email string, kind CodeKind, force bool) error {
	if e.store == nil || e.resendLimiter == nil {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingField
	}
	if e.mailer == nil {
		return ErrMailerNotConfigured
	}

	account, err := e.store.GetAccountByEmail(ctx, email)
	if err != nil {
		return err
	}
	if kind == CodeVerification && account.EmailVerified {
		return ErrAlreadyVerified
	}

	sentEvent := auditEventVerificationSent
	send := e.mailer.SendVerificationCode
	if kind == CodeRecovery {
		sentEvent = auditEventRecoverySent
		send = e.mailer.SendRecoveryCode
	}

	now := time.Now()
	if force {
		wait, err := e.resendLimiter.Check(ctx, resendKey(kind, email), now)
		if err != nil {
			return err
		}
		if wait > 0 {
			e.metricInc(MetricCodeRateLimited)
			e.emitAudit(ctx, auditEventResendRateLimited, false, account.ID, email, ErrResendRateLimited, func() map[string]string {
				return map[string]string{
					"kind": kind.String(),
				}
			})
			return &RateLimitedError{RetryAfter: wait}
		}
	} else if hasLiveCode(account, kind, now) {
		e.metricInc(MetricCodeAlreadyPending)
		e.emitAudit(ctx, sentEvent, false, account.ID, email, ErrCodeAlreadySent, nil)
		return ErrCodeAlreadySent
	}

	code, err := internal.NewCode()
	if err != nil {
		return err
	}
	expires := now.Add(e.config.Code.TTL)

	if _, err := e.store.UpdateAccount(ctx, account.ID, func(a *Account) error {
		if kind == CodeVerification && a.EmailVerified {
			return ErrAlreadyVerified
		}
		if !force && hasLiveCode(a, kind, now) {
			return ErrCodeAlreadySent
		}
		issueCode(a, kind, code, expires)
		return nil
	}); err != nil {
		return err
	}

	if err := send(ctx, email, code); err != nil {
		e.emitAudit(ctx, sentEvent, false, account.ID, email, ErrCodeDispatchFailed, nil)
		return errors.Join(ErrCodeDispatchFailed, err)
	}

	if err := e.resendLimiter.Record(ctx, resendKey(kind, email), now); err != nil {
		log.Print("authcore: resend limiter record failed")
	}

	e.metricInc(MetricCodeRequest)
	e.emitAudit(ctx, sentEvent, true, account.ID, email, nil, func() map[string]string {
		return map[string]string{
			"kind":   kind.String(),
			"forced": strconv.FormatBool(force),
		}
	})

	return nil
}
