package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/erazemk/sladkarije/internal/auth"
	"github.com/erazemk/sladkarije/internal/idempotency"
	"github.com/erazemk/sladkarije/internal/ledger"
	"github.com/erazemk/sladkarije/internal/store"
)

// Config holds the services the router dispatches to.
type Config struct {
	Ledger   *ledger.Ledger
	Accounts *auth.Accounts
	Guard    *auth.Guard
	Items    *store.Items
	Users    *store.Users

	// Idempotency enables the Idempotency-Key header on stock endpoints.
	Idempotency *idempotency.Store

	AllowManagerSignup bool
	// AuthRateLimit is per client IP per minute; zero disables it.
	AuthRateLimit int
	// TrustProxy takes the client address from X-Real-IP/X-Forwarded-For.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy  bool
	Development bool
}

type route struct {
	pattern string
	access  auth.Requirement
	handler http.HandlerFunc
	limited bool
}

// NewRouter creates the API router with all endpoints registered. Every
// route declares the access it requires and is admitted by the guard before
// its handler runs.
func NewRouter(cfg Config) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Accounts: cfg.Accounts, Users: cfg.Users, AllowManagerSignup: cfg.AllowManagerSignup}
	itemsHandler := &ItemsHandler{Ledger: cfg.Ledger, Items: cfg.Items}
	stockHandler := &StockHandler{Ledger: cfg.Ledger, Idempotency: cfg.Idempotency}

	routes := []route{
		// Auth.
		{"POST /api/auth/login", auth.Public, authHandler.Login, true},
		{"POST /api/auth/register", auth.Public, authHandler.Register, true},
		{"POST /api/auth/register-manager", auth.Public, authHandler.RegisterManager, true},
		{"GET /api/auth/me", auth.Authenticated, authHandler.Me, false},

		// Items: read (public), write (manager).
		{"GET /api/items", auth.Public, itemsHandler.List, false},
		{"GET /api/items/search", auth.Public, itemsHandler.Search, false},
		{"GET /api/items/{id}", auth.Public, itemsHandler.Get, false},
		{"POST /api/items", auth.Manager, itemsHandler.Create, false},
		{"PUT /api/items/{id}", auth.Manager, itemsHandler.Update, false},
		{"DELETE /api/items/{id}", auth.Manager, itemsHandler.Delete, false},
		{"PUT /api/items/{id}/image", auth.Manager, itemsHandler.UploadImage, false},
		{"GET /api/items/{id}/image", auth.Public, itemsHandler.GetImage, false},
		{"GET /api/items/{id}/history", auth.Manager, itemsHandler.History, false},

		// Stock.
		{"POST /api/items/{id}/purchase", auth.Authenticated, stockHandler.Purchase, false},
		{"POST /api/items/{id}/restock", auth.Manager, stockHandler.Restock, false},
	}

	limit := RateLimit(cfg.AuthRateLimit)
	for _, rt := range routes {
		var h http.Handler = rt.handler
		h = Authorize(cfg.Guard, rt.access)(h)
		if rt.limited {
			h = limit(h)
		}
		mux.Handle(rt.pattern, h)
	}

	mws := []func(http.Handler) http.Handler{middleware.RequestID}
	if cfg.TrustProxy {
		mws = append(mws, middleware.RealIP)
	}
	mws = append(mws,
		LoggingMiddleware,
		middleware.Recoverer,
		SecureHeaders(cfg.Development),
	)
	return chain(mux, mws...)
}
