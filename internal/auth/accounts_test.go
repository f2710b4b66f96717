package auth

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/sladkarije/internal/db"
	"github.com/erazemk/sladkarije/internal/model"
	"github.com/erazemk/sladkarije/internal/store"
)

func newTestAccounts(t *testing.T) (*Accounts, *Tokens) {
	t.Helper()
	tokens := newTestTokens(t)
	users := store.NewUsers(db.NewTestDB(t))
	return NewAccounts(users, tokens, bcrypt.MinCost), tokens
}

func TestRegisterCustomer(t *testing.T) {
	accounts, tokens := newTestAccounts(t)
	ctx := context.Background()

	sess, err := accounts.Register(ctx, "alice", "alice@example.com", "password1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.Account.Role != model.RoleCustomer {
		t.Errorf("expected role customer, got %q", sess.Account.Role)
	}
	if sess.Account.PasswordHash == "password1" {
		t.Error("password stored in plain text")
	}

	id, err := tokens.Verify(sess.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Username != "alice" || id.Role != model.RoleCustomer {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestRegisterManager(t *testing.T) {
	accounts, _ := newTestAccounts(t)

	sess, err := accounts.RegisterManager(context.Background(), "boss", "boss@example.com", "password1")
	if err != nil {
		t.Fatalf("RegisterManager: %v", err)
	}
	if sess.Account.Role != model.RoleManager {
		t.Errorf("expected role manager, got %q", sess.Account.Role)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	accounts, _ := newTestAccounts(t)
	ctx := context.Background()

	accounts.Register(ctx, "alice", "alice@example.com", "password1")

	_, err := accounts.Register(ctx, "alice", "new@example.com", "password1")
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate username, got %v", err)
	}

	_, err = accounts.RegisterManager(ctx, "alice2", "alice@example.com", "password1")
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	accounts, _ := newTestAccounts(t)
	ctx := context.Background()

	tests := []struct {
		username, email, password string
	}{
		{"al", "al@example.com", "password1"},
		{"alice", "not-an-email", "password1"},
		{"alice", "Alice <alice@example.com>", "password1"},
		{"alice", "alice@example.com", "short"},
	}
	for _, tt := range tests {
		_, err := accounts.Register(ctx, tt.username, tt.email, tt.password)
		if !errors.Is(err, model.ErrInvalidArgument) {
			t.Errorf("Register(%q, %q, %q): expected ErrInvalidArgument, got %v", tt.username, tt.email, tt.password, err)
		}
	}
}

func TestLogin(t *testing.T) {
	accounts, tokens := newTestAccounts(t)
	ctx := context.Background()

	accounts.RegisterManager(ctx, "boss", "boss@example.com", "password1")

	sess, err := accounts.Login(ctx, "boss", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, err := tokens.Verify(sess.Token)
	if err != nil || id.Role != model.RoleManager {
		t.Errorf("unexpected identity %+v, err %v", id, err)
	}

	_, err = accounts.Login(ctx, "boss", "wrong-password")
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	_, err = accounts.Login(ctx, "nobody", "password1")
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLoginUnknownUserStillComparesHash(t *testing.T) {
	accounts, _ := newTestAccounts(t)
	ctx := context.Background()

	accounts.Register(ctx, "alice", "alice@example.com", "password1")

	if cost, err := bcrypt.Cost(accounts.dummyHash); err != nil || cost != bcrypt.MinCost {
		t.Fatalf("dummy hash cost = %d, %v; want %d", cost, err, bcrypt.MinCost)
	}

	var compared [][]byte
	accounts.compare = func(hash, password []byte) error {
		compared = append(compared, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, err := accounts.Login(ctx, "nobody", "password1")
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	_, err = accounts.Login(ctx, "alice", "wrong-password")
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if len(compared) != 2 {
		t.Fatalf("expected a hash comparison on both paths, got %d", len(compared))
	}
	if !bytes.Equal(compared[0], accounts.dummyHash) {
		t.Error("unknown user should be checked against the dummy hash")
	}
}
