package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/erazemk/sladkarije/internal/idempotency"
	"github.com/erazemk/sladkarije/internal/ledger"
	"github.com/erazemk/sladkarije/internal/model"
)

// IdempotencyHeader names the request header carrying a client retry key.
const IdempotencyHeader = "Idempotency-Key"

// StockHandler handles purchase and restock endpoints.
type StockHandler struct {
	Ledger *ledger.Ledger
	// Idempotency is optional.
	Idempotency *idempotency.Store
}

type stockRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

// Purchase handles POST /api/items/{id}/purchase.
func (h *StockHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Ledger.Sell)
}

// Restock handles POST /api/items/{id}/restock.
func (h *StockHandler) Restock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Ledger.Restock)
}

type stockFunc func(ctx context.Context, id int64, quantity int, actor string) (*model.Item, error)

func (h *StockHandler) mutate(w http.ResponseWriter, r *http.Request, apply stockFunc) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req stockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	who := actor(r)
	key := r.Header.Get(IdempotencyHeader)
	claimed := false
	if key != "" && h.Idempotency != nil {
		key = idempotency.Key(who, id, key)
		first, err := h.Idempotency.Claim(r.Context(), key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !first {
			slog.Warn("duplicate stock request", "item", id, "actor", who, "request_id", requestID(r))
			writeError(w, r, model.ErrDuplicateRequest)
			return
		}
		claimed = true
	}

	item, err := apply(r.Context(), id, req.Quantity, who)
	if err != nil {
		// Nothing was applied, so the client may retry with the same key.
		if claimed {
			if rerr := h.Idempotency.Release(context.WithoutCancel(r.Context()), key); rerr != nil {
				slog.Error("releasing idempotency key", "key", key, "error", rerr)
			}
		}
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}
