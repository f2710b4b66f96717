package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/sladkarije/internal/auth"
	"github.com/erazemk/sladkarije/internal/model"
	"github.com/erazemk/sladkarije/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Accounts           *auth.Accounts
	Users              *store.Users
	AllowManagerSignup bool
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type authResponse struct {
	Token    string `json:"token,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func sessionResponse(s *auth.Session) authResponse {
	return authResponse{
		Token:    s.Token,
		Username: s.Account.Username,
		Email:    s.Account.Email,
		Role:     s.Account.Role,
	}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.Accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, sessionResponse(s))
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.Accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, sessionResponse(s))
}

// RegisterManager handles POST /api/auth/register-manager.
func (h *AuthHandler) RegisterManager(w http.ResponseWriter, r *http.Request) {
	if !h.AllowManagerSignup {
		slog.Warn("manager sign-up attempted while disabled", "remote", r.RemoteAddr)
		writeError(w, r, fmt.Errorf("%w: manager sign-up is disabled", model.ErrForbidden))
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.Accounts.RegisterManager(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, sessionResponse(s))
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, r, model.ErrUnauthorized)
		return
	}

	account, err := h.Users.GetByUsername(r.Context(), id.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if account == nil {
		writeError(w, r, fmt.Errorf("%w: account %s", model.ErrNotFound, id.Username))
		return
	}

	// The token carries the role it was issued with.
	jsonResponse(w, http.StatusOK, authResponse{
		Username: account.Username,
		Email:    account.Email,
		Role:     id.Role,
	})
}
