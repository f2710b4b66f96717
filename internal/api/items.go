package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/erazemk/sladkarije/internal/imaging"
	"github.com/erazemk/sladkarije/internal/ledger"
	"github.com/erazemk/sladkarije/internal/model"
	"github.com/erazemk/sladkarije/internal/store"
)

// ItemsHandler handles item CRUD, search, photo and history endpoints.
type ItemsHandler struct {
	Ledger *ledger.Ledger
	Items  *store.Items
}

type itemRequest struct {
	Name          string           `json:"name" validate:"required"`
	Category      string           `json:"category" validate:"required"`
	UnitPrice     *decimal.Decimal `json:"unit_price" validate:"required"`
	StockQuantity *int             `json:"stock_quantity" validate:"required,gte=0"`
}

func (req itemRequest) fields() model.ItemFields {
	return model.ItemFields{
		Name:          req.Name,
		Category:      req.Category,
		UnitPrice:     *req.UnitPrice,
		StockQuantity: *req.StockQuantity,
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid item id", model.ErrInvalidArgument)
	}
	return id, nil
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Ledger.GetAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Search handles GET /api/items/search.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.Ledger.Search(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// parseFilter reads the optional name, category, minPrice and maxPrice
// query parameters. Empty parameters are ignored.
func parseFilter(r *http.Request) (ledger.Filter, error) {
	q := r.URL.Query()
	var f ledger.Filter

	if v := q.Get("name"); v != "" {
		f.Name = &v
	}
	if v := q.Get("category"); v != "" {
		f.Category = &v
	}
	for param, dst := range map[string]**decimal.Decimal{
		"minPrice": &f.MinPrice,
		"maxPrice": &f.MaxPrice,
	} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, fmt.Errorf("%w: %s must be a number", model.ErrInvalidArgument, param)
		}
		*dst = &d
	}
	return f, nil
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.Ledger.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.Ledger.Create(r.Context(), req.fields())
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("item created", "item", item.ID, "name", item.Name, "by", actor(r))
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	item, err := h.Ledger.Update(r.Context(), id, req.fields(), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("item updated", "item", item.ID, "by", actor(r))
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Ledger.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("item deleted", "item", id, "by", actor(r))
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles PUT /api/items/{id}/image. The photo is sent as the
// "image" field of a multipart form.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Leave room for the multipart envelope.
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "photo too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Normalize(file)
	if err != nil {
		if imaging.IsTooLarge(err) {
			jsonError(w, http.StatusRequestEntityTooLarge, "photo too large")
			return
		}
		writeError(w, r, err)
		return
	}

	ok, err := h.Items.SetImage(r.Context(), id, photo.Data, photo.MIME)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, fmt.Errorf("%w: item %d", model.ErrNotFound, id))
		return
	}

	slog.Info("item photo uploaded", "item", id, "bytes", len(photo.Data), "by", actor(r))
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "image uploaded",
		"width":   photo.Width,
		"height":  photo.Height,
	})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, mime, err := h.Items.GetImage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// History handles GET /api/items/{id}/history.
func (h *ItemsHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.Ledger.GetByID(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	history, err := h.Items.ListMovements(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if history == nil {
		history = []model.StockMovement{}
	}
	jsonResponse(w, http.StatusOK, history)
}

func actor(r *http.Request) string {
	id, _ := IdentityFrom(r.Context())
	return id.Username
}
