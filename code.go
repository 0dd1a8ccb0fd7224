package authcore

import (
	"crypto/subtle"
	"time"
)

// CodeKind selects which one-time code field pair of an [Account] a
// lifecycle operation acts on. Verification and recovery codes follow the
// same rules but live independent lives.
type CodeKind int

const (
	// CodeVerification is the email-verification code pair.
	CodeVerification CodeKind = iota
	// CodeRecovery is the password-recovery code pair.
	CodeRecovery
)

func (k CodeKind) String() string {
	switch k {
	case CodeVerification:
		return "verification"
	case CodeRecovery:
		return "recovery"
	default:
		return "unknown"
	}
}

func storedCode(a *Account, kind CodeKind) (*string, *time.Time) {
	if kind == CodeRecovery {
		return a.RecoveryCode, a.RecoveryExpires
	}
	return a.VerificationCode, a.VerificationExpires
}

// issueCode overwrites the field pair with a fresh code, implicitly
// invalidating any previous one. A fresh verification code always resets the
// verified flag: re-verification invalidates prior verification.
func issueCode(a *Account, kind CodeKind, code string, expires time.Time) {
	switch kind {
	case CodeRecovery:
		a.RecoveryCode = &code
		a.RecoveryExpires = &expires
	default:
		a.VerificationCode = &code
		a.VerificationExpires = &expires
		a.EmailVerified = false
	}
}

func clearCode(a *Account, kind CodeKind) {
	switch kind {
	case CodeRecovery:
		a.RecoveryCode = nil
		a.RecoveryExpires = nil
	default:
		a.VerificationCode = nil
		a.VerificationExpires = nil
	}
}

// hasLiveCode reports whether an unexpired code is pending for the pair.
// Expiry is strict: a code is live only while now is before the stored
// instant.
func hasLiveCode(a *Account, kind CodeKind, now time.Time) bool {
	code, expires := storedCode(a, kind)
	return code != nil && expires != nil && now.Before(*expires)
}

// matchCode reports whether presented equals the live code for the pair.
// It does not mutate the account; failed attempts never consume the code.
func matchCode(a *Account, kind CodeKind, presented string, now time.Time) bool {
	code, expires := storedCode(a, kind)
	if code == nil || expires == nil || presented == "" {
		return false
	}
	if !now.Before(*expires) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*code), []byte(presented)) == 1
}

// consumeCode validates presented against the pair and, on success, clears
// it so the code can never be used twice. The verification pair additionally
// flips the verified flag on success.
func consumeCode(a *Account, kind CodeKind, presented string, now time.Time) bool {
	if !matchCode(a, kind, presented, now) {
		return false
	}
	clearCode(a, kind)
	if kind == CodeVerification {
		a.EmailVerified = true
	}
	return true
}
