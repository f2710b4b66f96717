package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erazemk/sladkarije/internal/auth"
	"github.com/erazemk/sladkarije/internal/model"
)

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"Bearer abc":         "abc",
		"bearer abc":         "abc",
		"Basic dXNlcjpwdw==": "",
		"Bearer":             "",
	}
	for header, want := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := bearerToken(r); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestAuthorizeStoresIdentity(t *testing.T) {
	tokens, _ := auth.NewTokens(testTokenSecret)
	token, _ := tokens.Issue("alice", model.RoleCustomer)

	var seen auth.Identity
	var ok bool
	h := Authorize(auth.NewGuard(tokens), auth.Authenticated)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, ok = IdentityFrom(r.Context())
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !ok || seen.Username != "alice" || seen.Role != model.RoleCustomer {
		t.Errorf("unexpected identity %+v (ok=%v)", seen, ok)
	}
}

func TestAuthorizeDenials(t *testing.T) {
	tokens, _ := auth.NewTokens(testTokenSecret)
	customer, _ := tokens.Issue("alice", model.RoleCustomer)
	guard := auth.NewGuard(tokens)

	tests := []struct {
		name  string
		token string
		req   auth.Requirement
		want  int
	}{
		{"no token", "", auth.Authenticated, http.StatusUnauthorized},
		{"bad token", "junk", auth.Manager, http.StatusUnauthorized},
		{"customer on manager route", customer, auth.Manager, http.StatusForbidden},
		{"public ignores bad token", "junk", auth.Public, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := Authorize(guard, tt.req)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			r := httptest.NewRequest("POST", "/", nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
			if called != (tt.want == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
		})
	}
}
