package operator

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	store, err := New(db)
	if err != nil {
		t.Fatalf("failed to migrate operator store: %v", err)
	}
	return store
}

func TestStore_CreateAndAuthenticate(t *testing.T) {
	store := newStore(t)
	op, err := store.Create("alice", "correct-horse")
	if err != nil {
		t.Fatalf("failed to create operator: %v", err)
	}
	if op.PasswordHash == "correct-horse" || op.PasswordHash == "" {
		t.Errorf("expected password to be hashed, got %q", op.PasswordHash)
	}

	authed, err := store.Authenticate("alice", "correct-horse")
	if err != nil {
		t.Fatalf("expected authentication to succeed: %v", err)
	}
	if authed.ID != op.ID {
		t.Errorf("expected authenticated operator to match created one")
	}
}

func TestStore_AuthenticateWrongPassword(t *testing.T) {
	store := newStore(t)
	if _, err := store.Create("bob", "right-password"); err != nil {
		t.Fatalf("failed to create operator: %v", err)
	}
	if _, err := store.Authenticate("bob", "wrong-password"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestStore_AuthenticateUnknownUser(t *testing.T) {
	store := newStore(t)
	if _, err := store.Authenticate("nobody", "whatever"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestStore_Count(t *testing.T) {
	store := newStore(t)
	n, err := store.Count()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected zero operators initially, got %d", n)
	}
	if _, err := store.Create("alice", "pw"); err != nil {
		t.Fatalf("failed to create operator: %v", err)
	}
	n, err = store.Count()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected one operator after create, got %d", n)
	}
}

func TestStore_DuplicateUsernameRejected(t *testing.T) {
	store := newStore(t)
	if _, err := store.Create("alice", "pw1"); err != nil {
		t.Fatalf("failed to create first operator: %v", err)
	}
	if _, err := store.Create("alice", "pw2"); err == nil {
		t.Errorf("expected duplicate username to be rejected")
	}
}
