package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/projectary/authcore"
)

// Store keeps accounts in memory, keyed by id with an email index. All
// methods return copies; callers never share memory with the store.
type Store struct {
	mu      sync.Mutex
	byID    map[string]*authcore.Account
	byEmail map[string]string
}

func New() *Store {
	return &Store{
		byID:    make(map[string]*authcore.Account),
		byEmail: make(map[string]string),
	}
}

func (s *Store) CreateAccount(_ context.Context, input authcore.CreateAccountInput) (*authcore.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[input.Email]; taken {
		return nil, authcore.ErrDuplicateEmail
	}

	account := &authcore.Account{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}
	s.byID[account.ID] = account
	s.byEmail[account.Email] = account.ID

	return copyAccount(account), nil
}

func (s *Store) GetAccountByEmail(_ context.Context, email string) (*authcore.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, authcore.ErrAccountNotFound
	}
	return copyAccount(s.byID[id]), nil
}

func (s *Store) GetAccountByID(_ context.Context, id string) (*authcore.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrAccountNotFound
	}
	return copyAccount(account), nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return authcore.ErrAccountNotFound
	}
	delete(s.byEmail, account.Email)
	delete(s.byID, id)
	return nil
}

// UpdateAccount runs apply against a copy under the store lock and persists
// it only when apply returns nil, which makes the read-modify-write atomic
// with respect to every other method.
func (s *Store) UpdateAccount(_ context.Context, id string, apply func(*authcore.Account) error) (*authcore.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrAccountNotFound
	}

	next := copyAccount(current)
	if err := apply(next); err != nil {
		return nil, err
	}

	s.byID[id] = next
	return copyAccount(next), nil
}

func copyAccount(a *authcore.Account) *authcore.Account {
	c := *a
	if a.VerificationCode != nil {
		v := *a.VerificationCode
		c.VerificationCode = &v
	}
	if a.VerificationExpires != nil {
		v := *a.VerificationExpires
		c.VerificationExpires = &v
	}
	if a.RecoveryCode != nil {
		v := *a.RecoveryCode
		c.RecoveryCode = &v
	}
	if a.RecoveryExpires != nil {
		v := *a.RecoveryExpires
		c.RecoveryExpires = &v
	}
	return &c
}
