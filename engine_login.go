package authcore

import (
	"context"
	"errors"
)

// Login checks the credential pair and returns a session token. Unknown
// email and wrong password are indistinguishable to the caller; only a
// correct pair on an unverified account gets the distinct
// ErrEmailNotVerified, after the credentials proved the caller owns them.
func (e *Engine) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	if e.store == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrMissingField, nil)
		return nil, ErrMissingField
	}

	account, err := e.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentials, func() map[string]string {
				return map[string]string{
					"reason": "account_not_found",
				}
			})
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := e.passwordHash.Verify(password, account.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, email, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
		return nil, ErrInvalidCredentials
	}
	password = ""

	if !account.EmailVerified {
		e.metricInc(MetricLoginUnverified)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, email, ErrEmailNotVerified, func() map[string]string {
			return map[string]string{
				"reason": "email_unverified",
			}
		})
		return nil, ErrEmailNotVerified
	}

	token, err := e.issueToken(account)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, email, err, nil)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, account.ID, email, nil, nil)

	return &AuthPayload{Token: token, Account: account.Public()}, nil
}
