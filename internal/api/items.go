package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/factorclaim/internal/claim"
	"github.com/erazemk/factorclaim/internal/clock"
	"github.com/erazemk/factorclaim/internal/model"
	"github.com/erazemk/factorclaim/internal/store"
)

// ItemsHandler handles item registry endpoints.
type ItemsHandler struct {
	DB    *sql.DB
	Clock clock.Clock
}

type itemRequest struct {
	ModelName      string  `json:"model_name"`
	ItemType       string  `json:"item_type"`
	Batch          string  `json:"batch"`
	ProductionDate string  `json:"production_date"`
	Wattage        float64 `json:"wattage"`
	Supplier       string  `json:"supplier"`
	Contractor     string  `json:"contractor"`
	Notes          string  `json:"notes"`
}

func (req itemRequest) item() (model.Item, error) {
	item := model.Item{
		ModelName:  strings.TrimSpace(req.ModelName),
		ItemType:   strings.TrimSpace(req.ItemType),
		Batch:      strings.TrimSpace(req.Batch),
		Wattage:    req.Wattage,
		Supplier:   strings.TrimSpace(req.Supplier),
		Contractor: strings.TrimSpace(req.Contractor),
		Notes:      strings.TrimSpace(req.Notes),
	}
	if err := firstError(
		checkLength("model_name", item.ModelName, 1, 100),
		checkLength("item_type", item.ItemType, 1, 50),
		checkLength("batch", item.Batch, 1, 50),
		checkLength("supplier", item.Supplier, 1, 100),
		checkLength("contractor", item.Contractor, 0, 100),
		checkLength("notes", item.Notes, 0, 500),
	); err != nil {
		return item, err
	}
	if item.Wattage <= 0 {
		return item, errors.New("wattage must be positive")
	}

	produced, err := model.ParseTimestamp(strings.TrimSpace(req.ProductionDate))
	if err != nil {
		return item, errors.New("production_date must be an ISO-8601 date or timestamp")
	}
	item.ProductionDate = produced
	return item, nil
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := queryPage(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	items, err := store.ListItems(r.Context(), h.DB, model.ItemFilter{
		ModelName: strings.TrimSpace(q.Get("model_name")),
		ItemType:  strings.TrimSpace(q.Get("item_type")),
		Batch:     strings.TrimSpace(q.Get("batch")),
		Skip:      skip,
		Limit:     limit,
	})
	if err != nil {
		writeError(w, err, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Search handles GET /api/items/search?q=.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		jsonError(w, http.StatusBadRequest, "search term required")
		return
	}

	items, err := store.SearchItems(r.Context(), h.DB, term)
	if err != nil {
		writeError(w, err, "failed to search items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Lookup handles GET /api/items/lookup?batch=.
func (h *ItemsHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("batch"))
	if code == "" {
		jsonError(w, http.StatusBadRequest, "batch code required")
		return
	}

	item, err := store.GetItemByBatch(r.Context(), h.DB, code)
	if err != nil {
		writeError(w, err, "failed to look up item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := req.item()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := store.CreateItem(r.Context(), h.DB, item)
	if err != nil {
		writeError(w, err, "failed to create item")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item created", "user", claims.Name, "item_id", created.ID, "batch", created.Batch)
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := req.item()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, id, item); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, err, "failed to update item")
		return
	}

	updated, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get item")
		return
	}
	claims := GetClaims(r.Context())
	slog.Info("item updated", "user", claims.Name, "item_id", id)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, err, "failed to delete item")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item deleted", "user", claims.Name, "item_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// CheckAge handles GET /api/items/{id}/check-age.
func (h *ItemsHandler) CheckAge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	report, err := claim.CheckAge(r.Context(), h.DB, id, h.Clock.Now())
	if err != nil {
		writeError(w, err, "failed to check item age")
		return
	}
	jsonResponse(w, http.StatusOK, report)
}
