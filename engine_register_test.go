package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterSuccess(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	mailer := &mockMailer{}
	engine := newTestEngine(t, store, mailer)

	payload, err := engine.Register(ctx, RegisterRequest{
		Name:     "Alice",
		Email:    "Alice@Example.com ",
		Password: "secret12",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if payload.Token == "" {
		t.Fatal("expected a session token")
	}
	if payload.Account.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", payload.Account.Email)
	}
	if payload.Account.Role != RoleUser {
		t.Fatalf("expected default role, got %q", payload.Account.Role)
	}
	if payload.Account.EmailVerified {
		t.Fatal("fresh account must be unverified")
	}

	if mailer.verificationCalls != 1 {
		t.Fatalf("expected 1 verification mail, got %d", mailer.verificationCalls)
	}
	if len(mailer.verification()) != 6 {
		t.Fatalf("expected 6-digit code, got %q", mailer.verification())
	}

	stored := store.account(t, "alice@example.com")
	if stored.VerificationCode == nil || *stored.VerificationCode != mailer.verification() {
		t.Fatal("stored code must match the dispatched one")
	}
	if stored.VerificationExpires == nil {
		t.Fatal("expected an expiry alongside the code")
	}
	if stored.PasswordHash == "secret12" {
		t.Fatal("password must not be stored in plaintext")
	}
}

func TestRegisterMissingFields(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, newMockStore(), &mockMailer{})

	cases := []RegisterRequest{
		{Email: "a@x.com", Password: "secret12"},
		{Name: "Alice", Password: "secret12"},
		{Name: "Alice", Email: "a@x.com"},
	}
	for _, req := range cases {
		if _, err := engine.Register(ctx, req); !errors.Is(err, ErrMissingField) {
			t.Fatalf("Register(%+v) = %v, want ErrMissingField", req, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	engine := newTestEngine(t, store, &mockMailer{})

	req := RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "secret12"}
	if _, err := engine.Register(ctx, req); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, err := engine.Register(ctx, req); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("second Register = %v, want ErrAccountExists", err)
	}
	if store.count() != 1 {
		t.Fatalf("expected a single account, got %d", store.count())
	}
}

func TestRegisterShortPassword(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	engine := newTestEngine(t, store, &mockMailer{})

	_, err := engine.Register(ctx, RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "short"})
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("Register = %v, want ErrPasswordPolicy", err)
	}
	if store.count() != 0 {
		t.Fatal("rejected registration must not create an account")
	}
}

func TestRegisterWithoutMailer(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	engine := newTestEngine(t, store, nil)

	_, err := engine.Register(ctx, RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "secret12"})
	if !errors.Is(err, ErrMailerNotConfigured) {
		t.Fatalf("Register = %v, want ErrMailerNotConfigured", err)
	}
	if store.count() != 0 {
		t.Fatal("mailer check must run before any persistence")
	}
}

func TestRegisterRollsBackOnDispatchFailure(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	mailer := &mockMailer{failVerification: errors.New("smtp down")}
	engine := newTestEngine(t, store, mailer)

	_, err := engine.Register(ctx, RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "secret12"})
	if !errors.Is(err, ErrCodeDispatchFailed) {
		t.Fatalf("Register = %v, want ErrCodeDispatchFailed", err)
	}

	if store.count() != 0 {
		t.Fatal("failed dispatch must roll the account back")
	}
	if store.deletes != 1 {
		t.Fatalf("expected 1 compensating delete, got %d", store.deletes)
	}

	// The rolled-back account is indistinguishable from one that never
	// existed.
	if _, err := engine.Login(ctx, "a@x.com", "secret12"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login after rollback = %v, want ErrInvalidCredentials", err)
	}

	// The email is free again.
	mailer.mu.Lock()
	mailer.failVerification = nil
	mailer.mu.Unlock()
	if _, err := engine.Register(ctx, RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "secret12"}); err != nil {
		t.Fatalf("re-Register after rollback failed: %v", err)
	}
}

func TestRegisterMetrics(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	engine := newTestEngine(t, store, &mockMailer{})

	req := RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "secret12"}
	if _, err := engine.Register(ctx, req); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, _ = engine.Register(ctx, req)

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricRegisterSuccess] != 1 {
		t.Fatalf("register success counter = %d, want 1", snap.Counters[MetricRegisterSuccess])
	}
	if snap.Counters[MetricRegisterDuplicate] != 1 {
		t.Fatalf("register duplicate counter = %d, want 1", snap.Counters[MetricRegisterDuplicate])
	}
	if snap.Counters[MetricTokenIssued] != 1 {
		t.Fatalf("token issued counter = %d, want 1", snap.Counters[MetricTokenIssued])
	}
}
