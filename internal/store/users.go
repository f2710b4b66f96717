package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/sladkarije/internal/model"
)

const userColumns = `id, username, email, password_hash, role, created_at`

// Users is the SQLite credential store.
type Users struct {
	db *sqlx.DB
}

// NewUsers wraps db for account access.
func NewUsers(db *sql.DB) *Users {
	return &Users{db: sqlx.NewDb(db, "sqlite")}
}

// Create inserts a new account. A taken username or email yields
// model.ErrConflict.
func (s *Users) Create(ctx context.Context, username, email, passwordHash, role string) (*model.Account, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, role,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: username or email already registered", model.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return s.Get(ctx, id)
}

// Get returns an account by ID, or nil if it does not exist.
func (s *Users) Get(ctx context.Context, id int64) (*model.Account, error) {
	return s.getBy(ctx, "id", id)
}

// GetByUsername returns an account by username, or nil if it does not exist.
func (s *Users) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return s.getBy(ctx, "username", username)
}

// GetByEmail returns an account by email, or nil if it does not exist.
func (s *Users) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.getBy(ctx, "email", email)
}

// column is always one of the constants above, never user input.
func (s *Users) getBy(ctx context.Context, column string, value any) (*model.Account, error) {
	var u model.Account
	err := s.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by %s: %w", column, err)
	}
	return &u, nil
}

// CountByRole returns how many accounts hold role.
func (s *Users) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = ?`, role); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
