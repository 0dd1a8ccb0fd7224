package authcore

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// mockStore is an in-memory Store with injectable failures and call
// counters.
type mockStore struct {
	mu      sync.Mutex
	byID    map[string]*Account
	byEmail map[string]string
	nextID  int

	failCreate error
	failUpdate error
	failDelete error

	creates int
	deletes int
	updates int
}

func newMockStore() *mockStore {
	return &mockStore{
		byID:    make(map[string]*Account),
		byEmail: make(map[string]string),
	}
}

func (s *mockStore) CreateAccount(_ context.Context, input CreateAccountInput) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates++
	if s.failCreate != nil {
		return nil, s.failCreate
	}
	if _, taken := s.byEmail[input.Email]; taken {
		return nil, ErrDuplicateEmail
	}

	s.nextID++
	account := &Account{
		ID:           "acct-" + strconv.Itoa(s.nextID),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}
	s.byID[account.ID] = account
	s.byEmail[account.Email] = account.ID
	return copyTestAccount(account), nil
}

func (s *mockStore) GetAccountByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyTestAccount(s.byID[id]), nil
}

func (s *mockStore) GetAccountByID(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyTestAccount(account), nil
}

func (s *mockStore) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes++
	if s.failDelete != nil {
		return s.failDelete
	}
	account, ok := s.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	delete(s.byEmail, account.Email)
	delete(s.byID, id)
	return nil
}

func (s *mockStore) UpdateAccount(_ context.Context, id string, apply func(*Account) error) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates++
	if s.failUpdate != nil {
		return nil, s.failUpdate
	}
	current, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	next := copyTestAccount(current)
	if err := apply(next); err != nil {
		return nil, err
	}
	s.byID[id] = next
	return copyTestAccount(next), nil
}

// account returns the stored record by email for assertions.
func (s *mockStore) account(t *testing.T, email string) *Account {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		t.Fatalf("no account stored for %q", email)
	}
	return copyTestAccount(s.byID[id])
}

func (s *mockStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func copyTestAccount(a *Account) *Account {
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

// mockMailer records dispatched codes and can be told to fail.
type mockMailer struct {
	mu sync.Mutex

	verificationCalls int
	recoveryCalls     int
	lastVerification  string
	lastRecovery      string

	failVerification error
	failRecovery     error
}

func (m *mockMailer) SendVerificationCode(_ context.Context, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.verificationCalls++
	if m.failVerification != nil {
		return m.failVerification
	}
	m.lastVerification = code
	return nil
}

func (m *mockMailer) SendRecoveryCode(_ context.Context, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recoveryCalls++
	if m.failRecovery != nil {
		return m.failRecovery
	}
	m.lastRecovery = code
	return nil
}

func (m *mockMailer) verification() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastVerification
}

func (m *mockMailer) recovery() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRecovery
}

// testConfig keeps Argon2id at the cheapest valid cost so tests stay fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEngine(t *testing.T, store Store, mailer Mailer) *Engine {
	t.Helper()
	return newTestEngineWithConfig(t, store, mailer, testConfig())
}

func newTestEngineWithConfig(t *testing.T, store Store, mailer Mailer, cfg Config) *Engine {
	t.Helper()

	builder := New().
		WithConfig(cfg).
		WithStore(store).
		WithSigningKey([]byte("test-signing-key"))
	if mailer != nil {
		builder = builder.WithMailer(mailer)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// registerVerified registers an account and walks it through verification.
func registerVerified(t *testing.T, engine *Engine, store *mockStore, mailer *mockMailer, email, pass string) *AuthPayload {
	t.Helper()

	ctx := context.Background()
	payload, err := engine.Register(ctx, RegisterRequest{Name: "Test User", Email: email, Password: pass})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := engine.VerifyEmailCode(ctx, email, mailer.verification()); err != nil {
		t.Fatalf("VerifyEmailCode failed: %v", err)
	}
	return payload
}

// expireCode rewrites the stored expiry so the pending code is already
// stale.
func expireCode(t *testing.T, store *mockStore, email string, kind CodeKind) {
	t.Helper()

	store.mu.Lock()
	defer store.mu.Unlock()

	id, ok := store.byEmail[email]
	if !ok {
		t.Fatalf("no account stored for %q", email)
	}
	past := time.Now().Add(-time.Minute)
	if kind == CodeRecovery {
		store.byID[id].RecoveryExpires = &past
	} else {
		store.byID[id].VerificationExpires = &past
	}
}
