package auth

import (
	"fmt"

	"github.com/erazemk/sladkarije/internal/model"
)

// Requirement is the access level an operation demands.
type Requirement int

// Access levels.
const (
	Public Requirement = iota
	Authenticated
	Manager
)

func (r Requirement) String() string {
	switch r {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Manager:
		return "manager"
	default:
		return fmt.Sprintf("requirement(%d)", int(r))
	}
}

// DenyReason says which check rejected a call.
type DenyReason string

// Deny reasons.
const (
	DenyNoToken          DenyReason = "no_token"
	DenyInvalidToken     DenyReason = "invalid_token"
	DenyInsufficientRole DenyReason = "insufficient_role"
)

// Denial is returned by Authorize when a call is not admitted. It unwraps to
// model.ErrUnauthorized for missing or invalid tokens and to
// model.ErrForbidden for a role that is too low.
type Denial struct {
	Reason DenyReason
}

func (d *Denial) Error() string {
	return fmt.Sprintf("access denied: %s", d.Reason)
}

func (d *Denial) Unwrap() error {
	if d.Reason == DenyInsufficientRole {
		return model.ErrForbidden
	}
	return model.ErrUnauthorized
}

// Guard admits or denies operations given a bearer token.
type Guard struct {
	tokens *Tokens
}

// NewGuard returns a guard verifying tokens with tokens.
func NewGuard(tokens *Tokens) *Guard {
	return &Guard{tokens: tokens}
}

// Authorize decides whether the holder of token may perform an operation that
// requires req. An empty token means no token was presented. Public
// operations are admitted with a zero Identity.
func (g *Guard) Authorize(token string, req Requirement) (Identity, error) {
	if req == Public {
		return Identity{}, nil
	}

	if token == "" {
		return Identity{}, &Denial{Reason: DenyNoToken}
	}

	id, err := g.tokens.Verify(token)
	if err != nil {
		return Identity{}, &Denial{Reason: DenyInvalidToken}
	}

	switch req {
	case Authenticated:
		return id, nil
	case Manager:
		if id.Role != model.RoleManager {
			return Identity{}, &Denial{Reason: DenyInsufficientRole}
		}
		return id, nil
	default:
		// Unknown requirements fail closed.
		return Identity{}, &Denial{Reason: DenyInsufficientRole}
	}
}
