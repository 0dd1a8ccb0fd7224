package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/projectary/authcore/jwt"
	"github.com/projectary/authcore/password"
)

// Engine is the credential core: registration, login, one-time codes for
// email verification and password recovery, and session token checks. All
// methods are safe for concurrent use.
type Engine struct {
	config        Config
	store         Store
	mailer        Mailer
	resendLimiter ResendLimiter
	audit         *auditDispatcher
	metrics       *Metrics
	passwordHash  *password.Argon2
	jwtManager    *jwt.Manager
}

// Close drains the audit dispatcher. Call it when the process shuts down;
// the engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

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

// issueToken signs a session token for the account. A signing failure means
// a broken key, so callers surface it as-is.
func (e *Engine) issueToken(account *Account) (string, error) {
	token, err := e.jwtManager.Issue(account.ID, account.Email, string(account.Role))
	if err != nil {
		return "", err
	}
	e.metricInc(MetricTokenIssued)
	return token, nil
}

// Authenticate validates a session token and resolves it to the live
// account. A valid signature over a deleted account is still unauthorized:
// tokens outlive rollbacks and deletions, accounts do not.
func (e *Engine) Authenticate(ctx context.Context, tokenStr string) (*PublicAccount, error) {
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}()
	}

	claims, err := e.jwtManager.Parse(tokenStr)
	if err != nil {
		e.metricInc(MetricAuthRejected)
		e.emitAudit(ctx, auditEventAuthRejected, false, "", "", ErrUnauthorized, func() map[string]string {
			return map[string]string{
				"reason": "token_invalid",
			}
		})
		return nil, ErrUnauthorized
	}

	account, err := e.store.GetAccountByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricAuthRejected)
			e.emitAudit(ctx, auditEventAuthRejected, false, claims.UID, claims.Email, ErrUnauthorized, func() map[string]string {
				return map[string]string{
					"reason": "account_gone",
				}
			})
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	pub := account.Public()
	return &pub, nil
}
