package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/sladkarije/internal/db"
	"github.com/erazemk/sladkarije/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	users := NewUsers(db.NewTestDB(t))
	ctx := context.Background()

	user, err := users.Create(ctx, "testuser", "test@example.com", "hash123", model.RoleCustomer)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", user.Username)
	}
	if user.Role != model.RoleCustomer {
		t.Errorf("expected role 'customer', got %q", user.Role)
	}

	got, err := users.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != "test@example.com" {
		t.Errorf("expected email 'test@example.com', got %q", got.Email)
	}
	if got.PasswordHash != "hash123" {
		t.Errorf("expected password hash 'hash123', got %q", got.PasswordHash)
	}
}

func TestGetUserByUsernameAndEmail(t *testing.T) {
	users := NewUsers(db.NewTestDB(t))
	ctx := context.Background()

	users.Create(ctx, "alice", "alice@example.com", "hash", model.RoleManager)

	user, err := users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if user == nil || user.Role != model.RoleManager {
		t.Fatalf("expected manager alice, got %+v", user)
	}

	user, err = users.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("expected alice by email, got %+v", user)
	}

	missing, err := users.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestCreateUserDuplicates(t *testing.T) {
	users := NewUsers(db.NewTestDB(t))
	ctx := context.Background()

	if _, err := users.Create(ctx, "alice", "alice@example.com", "hash", model.RoleCustomer); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := users.Create(ctx, "alice", "other@example.com", "hash", model.RoleCustomer)
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate username, got %v", err)
	}

	_, err = users.Create(ctx, "alice2", "alice@example.com", "hash", model.RoleCustomer)
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestCountByRole(t *testing.T) {
	users := NewUsers(db.NewTestDB(t))
	ctx := context.Background()

	users.Create(ctx, "a", "a@example.com", "hash", model.RoleCustomer)
	users.Create(ctx, "b", "b@example.com", "hash", model.RoleManager)
	users.Create(ctx, "c", "c@example.com", "hash", model.RoleCustomer)

	n, err := users.CountByRole(ctx, model.RoleCustomer)
	if err != nil {
		t.Fatalf("CountByRole: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 customers, got %d", n)
	}
}
