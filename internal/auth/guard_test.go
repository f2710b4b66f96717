package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/sladkarije/internal/model"
)

func denialReason(t *testing.T, err error) DenyReason {
	t.Helper()
	var d *Denial
	require.True(t, errors.As(err, &d), "expected *Denial, got %v", err)
	return d.Reason
}

func TestGuardPublicAdmitsAnyone(t *testing.T) {
	guard := NewGuard(newTestTokens(t))

	_, err := guard.Authorize("", Public)
	assert.NoError(t, err)

	_, err = guard.Authorize("garbage", Public)
	assert.NoError(t, err)
}

func TestGuardAuthenticated(t *testing.T) {
	tokens := newTestTokens(t)
	guard := NewGuard(tokens)

	_, err := guard.Authorize("", Authenticated)
	assert.Equal(t, DenyNoToken, denialReason(t, err))
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = guard.Authorize("not-a-token", Authenticated)
	assert.Equal(t, DenyInvalidToken, denialReason(t, err))
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	token, err := tokens.Issue("bob", model.RoleCustomer)
	require.NoError(t, err)
	id, err := guard.Authorize(token, Authenticated)
	require.NoError(t, err)
	assert.Equal(t, Identity{Username: "bob", Role: model.RoleCustomer}, id)
}

func TestGuardManager(t *testing.T) {
	tokens := newTestTokens(t)
	guard := NewGuard(tokens)

	customer, _ := tokens.Issue("bob", model.RoleCustomer)
	_, err := guard.Authorize(customer, Manager)
	assert.Equal(t, DenyInsufficientRole, denialReason(t, err))
	assert.ErrorIs(t, err, model.ErrForbidden)

	manager, _ := tokens.Issue("carol", model.RoleManager)
	id, err := guard.Authorize(manager, Manager)
	require.NoError(t, err)
	assert.Equal(t, "carol", id.Username)

	_, err = guard.Authorize("", Manager)
	assert.Equal(t, DenyNoToken, denialReason(t, err))
}

func TestGuardExpiredToken(t *testing.T) {
	tokens := newTestTokens(t, WithTTL(0))
	guard := NewGuard(tokens)

	token, _ := tokens.Issue("carol", model.RoleManager)
	_, err := guard.Authorize(token, Manager)
	assert.Equal(t, DenyInvalidToken, denialReason(t, err))
}

func TestGuardUnknownRequirementFailsClosed(t *testing.T) {
	tokens := newTestTokens(t)
	guard := NewGuard(tokens)

	token, _ := tokens.Issue("carol", model.RoleManager)
	_, err := guard.Authorize(token, Requirement(42))
	assert.ErrorIs(t, err, model.ErrForbidden)
}
