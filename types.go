package authcore

import (
	"context"
	"strings"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	// RoleUser is the default role assigned at registration.
	RoleUser Role = "user"
	// RoleAdmin is an exported constant for privileged accounts.
	RoleAdmin Role = "admin"
)

// Account is the persistent record owned by the [Store] collaborator.
//
// A code field and its paired expiry are always both set or both nil, and a
// verified account never carries a verification code. The engine maintains
// those invariants through [Store.UpdateAccount]; stores only persist what
// they are handed.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role

	EmailVerified       bool
	VerificationCode    *string
	VerificationExpires *time.Time

	RecoveryCode    *string
	RecoveryExpires *time.Time
}

// PublicAccount is the redacted view returned to callers. It never carries
// the credential hash or any pending code.
type PublicAccount struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
}

// Public returns the redacted view of the account.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		Role:          a.Role,
		EmailVerified: a.EmailVerified,
	}
}

// CreateAccountInput is the input for [Store.CreateAccount]. The password
// arrives already hashed; stores never see a plaintext credential.
type CreateAccountInput struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
}

// Store is the persistence collaborator the caller must implement.
//
// Lookup methods return [ErrAccountNotFound] when no record matches and
// CreateAccount returns [ErrDuplicateEmail] on an email collision; any other
// error is treated as an infrastructure failure and propagated.
//
// UpdateAccount is the atomic read-modify-write primitive: the store loads
// the current record, runs apply against it, and persists the result only
// when apply returns nil — all under whatever concurrency control the
// backend offers (a conditional update, a row lock, a mutex). When apply
// returns an error nothing is persisted and the error is returned verbatim.
// The engine relies on this so that two concurrent consumptions of the same
// one-time code cannot both succeed.
type Store interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountByID(ctx context.Context, id string) (*Account, error)
	DeleteAccount(ctx context.Context, id string) error
	UpdateAccount(ctx context.Context, id string, apply func(*Account) error) (*Account, error)
}

// Mailer is the outbound delivery collaborator. Implementations must respect
// ctx cancellation; the engine imposes no timeout of its own.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendRecoveryCode(ctx context.Context, email, code string) error
}

// AuthPayload is returned by Register and Login.
type AuthPayload struct {
	Token   string        `json:"token"`
	Account PublicAccount `json:"account"`
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// normalizeEmail lowercases and trims the identity. Account emails are
// case-insensitive and unique per the store contract.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
