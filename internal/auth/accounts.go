package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/sladkarije/internal/model"
)

// CredentialStore holds account records.
type CredentialStore interface {
	Create(ctx context.Context, username, email, passwordHash, role string) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
}

// Session is the result of a successful login or registration.
type Session struct {
	Token   string
	Account *model.Account
}

// Accounts registers and logs in users.
type Accounts struct {
	store  CredentialStore
	tokens *Tokens
	cost   int

	// dummyHash is checked against for unknown users so that a login costs
	// the same whether or not the username exists.
	dummyHash []byte
	compare   func(hash, password []byte) error
}

// NewAccounts returns an account service. cost is the bcrypt cost; zero
// means bcrypt.DefaultCost.
func NewAccounts(store CredentialStore, tokens *Tokens, cost int) *Accounts {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	// The error is only possible for an out-of-range cost, which
	// GenerateFromPassword also rejects at registration.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("sladkarije-no-such-user"), cost)
	return &Accounts{
		store:     store,
		tokens:    tokens,
		cost:      cost,
		dummyHash: dummy,
		compare:   bcrypt.CompareHashAndPassword,
	}
}

// Register creates a customer account and logs it in.
func (a *Accounts) Register(ctx context.Context, username, email, password string) (*Session, error) {
	return a.register(ctx, username, email, password, model.RoleCustomer)
}

// RegisterManager creates a manager account and logs it in.
func (a *Accounts) RegisterManager(ctx context.Context, username, email, password string) (*Session, error) {
	return a.register(ctx, username, email, password, model.RoleManager)
}

func (a *Accounts) register(ctx context.Context, username, email, password, role string) (*Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if l := len(username); l < 3 || l > 50 {
		return nil, fmt.Errorf("%w: username must be 3 to 50 characters", model.ErrInvalidArgument)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email address", model.ErrInvalidArgument)
	}
	if err := model.ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := a.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: username already exists", model.ErrConflict)
	}
	existing, err = a.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already exists", model.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	// The store's unique indexes still catch a racing registration.
	account, err := a.store.Create(ctx, username, email, string(hash), role)
	if err != nil {
		return nil, err
	}

	token, err := a.tokens.Issue(account.Username, account.Role)
	if err != nil {
		return nil, err
	}

	slog.Info("account registered", "user", account.Username, "role", account.Role)
	return &Session{Token: token, Account: account}, nil
}

// Login checks credentials and issues a token. Unknown users and wrong
// passwords both yield model.ErrInvalidCredentials.
func (a *Accounts) Login(ctx context.Context, username, password string) (*Session, error) {
	account, err := a.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if account == nil {
		a.compare(a.dummyHash, []byte(password))
		slog.Warn("login failed", "username", username, "reason", "unknown user")
		return nil, model.ErrInvalidCredentials
	}

	if err := a.compare([]byte(account.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login failed", "username", username, "reason", "wrong password")
		return nil, model.ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(account.Username, account.Role)
	if err != nil {
		return nil, err
	}
	slog.Info("user logged in", "user", account.Username, "role", account.Role)
	return &Session{Token: token, Account: account}, nil
}
