package authcore

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/projectary/authcore/internal"
)

// Register creates an account, stores a fresh verification code, emails it,
// and returns a session token. The account starts unverified; Login refuses
// it until the code is confirmed.
//
// When the verification email cannot be sent the whole registration is
// undone: the created account is deleted again and the caller gets
// ErrCodeDispatchFailed. Registering is atomic from the outside — either
// the account exists and the code went out, or neither happened.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*AuthPayload, error) {
	if e.store == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, ErrMissingField, nil)
		return nil, ErrMissingField
	}
	if e.mailer == nil {
		return nil, ErrMailerNotConfigured
	}

	hash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, ErrPasswordPolicy, nil)
		return nil, ErrPasswordPolicy
	}

	account, err := e.store.CreateAccount(ctx, CreateAccountInput{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         e.config.Account.DefaultRole,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", email, ErrAccountExists, nil)
			return nil, ErrAccountExists
		}
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, err, nil)
		return nil, err
	}

	code, err := internal.NewCode()
	if err != nil {
		e.rollbackRegistration(ctx, account, err)
		return nil, err
	}

	now := time.Now()
	expires := now.Add(e.config.Code.TTL)
	if _, err := e.store.UpdateAccount(ctx, account.ID, func(a *Account) error {
		issueCode(a, CodeVerification, code, expires)
		return nil
	}); err != nil {
		e.rollbackRegistration(ctx, account, err)
		return nil, err
	}

	if err := e.mailer.SendVerificationCode(ctx, email, code); err != nil {
		e.rollbackRegistration(ctx, account, err)
		return nil, errors.Join(ErrCodeDispatchFailed, err)
	}

	// Limiter record is best-effort: a failed record must not undo a
	// registration whose email already went out.
	if err := e.resendLimiter.Record(ctx, resendKey(CodeVerification, email), now); err != nil {
		log.Print("authcore: resend limiter record failed after registration")
	}
	e.metricInc(MetricCodeRequest)
	e.emitAudit(ctx, auditEventVerificationSent, true, account.ID, email, nil, nil)

	token, err := e.issueToken(account)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, account.ID, email, err, nil)
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, account.ID, email, nil, nil)

	return &AuthPayload{Token: token, Account: account.Public()}, nil
}

// rollbackRegistration is the compensating delete for a registration that
// failed after the account row was created. A failed delete leaves an
// orphaned unverified account; it can never log in, so it is logged and
// tolerated rather than escalated.
func (e *Engine) rollbackRegistration(ctx context.Context, account *Account, cause error) {
	if err := e.store.DeleteAccount(ctx, account.ID); err != nil {
		log.Print("authcore: registration rollback delete failed")
	}
	e.metricInc(MetricRegisterRolledBack)
	e.emitAudit(ctx, auditEventRegisterRolledBack, false, account.ID, account.Email, cause, nil)
}
