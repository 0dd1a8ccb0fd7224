package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingField is returned when a required request field is empty.
	ErrMissingField = errors.New("missing required field")
	// ErrAccountExists is returned by Register when the email is taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is returned when no account matches the email.
	// Store implementations return it from their lookup methods.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// the engine never reveals which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified is returned by Login for a valid credential pair
	// whose email has not been verified yet.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrAlreadyVerified rejects verification requests for verified accounts.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrCodeAlreadySent rejects a non-forced code request while an
	// unexpired code is still pending for the account.
	ErrCodeAlreadySent = errors.New("a code is already pending for this account")
	// ErrCodeInvalid is returned when a presented code does not match the
	// stored one or the stored one has expired.
	ErrCodeInvalid = errors.New("invalid or expired code")
	// ErrResendRateLimited is the kind wrapped by RateLimitedError.
	ErrResendRateLimited = errors.New("resend rate limited")
	// ErrMailerNotConfigured is returned before any persistence when a flow
	// that must send email runs on an engine built without a mailer.
	ErrMailerNotConfigured = errors.New("mailer not configured")
	// ErrCodeDispatchFailed is returned when the mailer rejects a send.
	ErrCodeDispatchFailed = errors.New("code dispatch failed")
	// ErrPasswordPolicy is returned when a password fails the hash policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrUnauthorized is returned for a missing, malformed, or expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEngineNotReady guards flows on a partially initialized engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrDuplicateEmail is the sentinel Store implementations return from
	// CreateAccount when the email is already registered.
	ErrDuplicateEmail = errors.New("store: duplicate email")
)

// RateLimitedError reports a denied forced resend. It wraps
// [ErrResendRateLimited] so errors.Is matching still works.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("resend rate limited, retry after %ds", e.RetryAfterSeconds())
}

func (e *RateLimitedError) Unwrap() error {
	return ErrResendRateLimited
}

// RetryAfterSeconds is the remaining wait rounded up to whole seconds,
// suitable for a Retry-After response header.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}
