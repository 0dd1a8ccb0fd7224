package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/projectary/authcore"
)

func createTestAccount(t *testing.T, store *Store, email string) *authcore.Account {
	t.Helper()

	account, err := store.CreateAccount(context.Background(), authcore.CreateAccountInput{
		Name:         "Alice",
		Email:        email,
		PasswordHash: "$argon2id$...",
		Role:         authcore.RoleUser,
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return account
}

func TestCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	store := New()
	account := createTestAccount(t, store, "a@x.com")

	if account.ID == "" {
		t.Fatal("expected generated id")
	}

	byEmail, err := store.GetAccountByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail failed: %v", err)
	}
	if byEmail.ID != account.ID {
		t.Fatalf("lookup mismatch: %q vs %q", byEmail.ID, account.ID)
	}

	byID, err := store.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID failed: %v", err)
	}
	if byID.Email != "a@x.com" {
		t.Fatalf("email = %q, want a@x.com", byID.Email)
	}
}

func TestDuplicateEmail(t *testing.T) {
	store := New()
	createTestAccount(t, store, "a@x.com")

	_, err := store.CreateAccount(context.Background(), authcore.CreateAccountInput{
		Name:         "Bob",
		Email:        "a@x.com",
		PasswordHash: "hash",
		Role:         authcore.RoleUser,
	})
	if !errors.Is(err, authcore.ErrDuplicateEmail) {
		t.Fatalf("CreateAccount = %v, want ErrDuplicateEmail", err)
	}
}

func TestLookupMisses(t *testing.T) {
	ctx := context.Background()
	store := New()

	if _, err := store.GetAccountByEmail(ctx, "nobody@x.com"); !errors.Is(err, authcore.ErrAccountNotFound) {
		t.Fatalf("GetAccountByEmail = %v, want ErrAccountNotFound", err)
	}
	if _, err := store.GetAccountByID(ctx, "missing"); !errors.Is(err, authcore.ErrAccountNotFound) {
		t.Fatalf("GetAccountByID = %v, want ErrAccountNotFound", err)
	}
	if err := store.DeleteAccount(ctx, "missing"); !errors.Is(err, authcore.ErrAccountNotFound) {
		t.Fatalf("DeleteAccount = %v, want ErrAccountNotFound", err)
	}
}

func TestDeleteFreesEmail(t *testing.T) {
	ctx := context.Background()
	store := New()
	account := createTestAccount(t, store, "a@x.com")

	if err := store.DeleteAccount(ctx, account.ID); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if _, err := store.GetAccountByEmail(ctx, "a@x.com"); !errors.Is(err, authcore.ErrAccountNotFound) {
		t.Fatalf("GetAccountByEmail = %v, want ErrAccountNotFound", err)
	}
	createTestAccount(t, store, "a@x.com")
}

func TestUpdateAccountAppliesAtomically(t *testing.T) {
	ctx := context.Background()
	store := New()
	account := createTestAccount(t, store, "a@x.com")

	updated, err := store.UpdateAccount(ctx, account.ID, func(a *authcore.Account) error {
		a.EmailVerified = true
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}
	if !updated.EmailVerified {
		t.Fatal("expected applied change in return value")
	}

	stored, err := store.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID failed: %v", err)
	}
	if !stored.EmailVerified {
		t.Fatal("expected applied change persisted")
	}
}

func TestUpdateAccountAbortsOnError(t *testing.T) {
	ctx := context.Background()
	store := New()
	account := createTestAccount(t, store, "a@x.com")

	boom := errors.New("abort")
	_, err := store.UpdateAccount(ctx, account.ID, func(a *authcore.Account) error {
		a.EmailVerified = true
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("UpdateAccount = %v, want the apply error", err)
	}

	stored, err := store.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID failed: %v", err)
	}
	if stored.EmailVerified {
		t.Fatal("aborted update must not persist")
	}
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := New()
	account := createTestAccount(t, store, "a@x.com")

	got, err := store.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID failed: %v", err)
	}
	got.Name = "Mallory"

	again, err := store.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID failed: %v", err)
	}
	if again.Name != "Alice" {
		t.Fatal("mutating a returned account must not affect the store")
	}
}
