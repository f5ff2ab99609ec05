package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/factorclaim/internal/model"
	"github.com/erazemk/factorclaim/internal/store"
)

// MerchantsHandler handles merchant endpoints.
type MerchantsHandler struct {
	DB *sql.DB
}

type merchantRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Contact  string `json:"contact"`
	Email    string `json:"email"`
	IsActive *bool  `json:"is_active"`
}

func (req merchantRequest) merchant() (model.Merchant, error) {
	m := model.Merchant{
		Name:     strings.TrimSpace(req.Name),
		Address:  strings.TrimSpace(req.Address),
		Contact:  strings.TrimSpace(req.Contact),
		Email:    strings.TrimSpace(req.Email),
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	return m, firstError(
		checkLength("name", m.Name, 1, 100),
		checkLength("address", m.Address, 1, 200),
		checkLength("contact", m.Contact, 10, 15),
		checkEmail("email", m.Email, false),
	)
}

// List handles GET /api/merchants.
func (h *MerchantsHandler) List(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r, "is_active")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "is_active must be true or false")
		return
	}
	skip, limit, err := queryPage(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	merchants, err := store.ListMerchants(r.Context(), h.DB, active, skip, limit)
	if err != nil {
		writeError(w, err, "failed to list merchants")
		return
	}
	if merchants == nil {
		merchants = []model.Merchant{}
	}
	jsonResponse(w, http.StatusOK, merchants)
}

// Search handles GET /api/merchants/search?q=.
func (h *MerchantsHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		jsonError(w, http.StatusBadRequest, "search term required")
		return
	}

	merchants, err := store.SearchMerchants(r.Context(), h.DB, term)
	if err != nil {
		writeError(w, err, "failed to search merchants")
		return
	}
	if merchants == nil {
		merchants = []model.Merchant{}
	}
	jsonResponse(w, http.StatusOK, merchants)
}

// Create handles POST /api/merchants.
func (h *MerchantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req merchantRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := req.merchant()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	merchant, err := store.CreateMerchant(r.Context(), h.DB, m)
	if err != nil {
		writeError(w, err, "failed to create merchant")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("merchant created", "user", claims.Name, "merchant", merchant.Name, "merchant_id", merchant.ID)
	jsonResponse(w, http.StatusCreated, merchant)
}

// Get handles GET /api/merchants/{id}.
func (h *MerchantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	merchant, err := store.GetMerchant(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get merchant")
		return
	}
	if merchant == nil {
		jsonError(w, http.StatusNotFound, "merchant not found")
		return
	}
	jsonResponse(w, http.StatusOK, merchant)
}

// Update handles PUT /api/merchants/{id}.
func (h *MerchantsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	var req merchantRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := req.merchant()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.UpdateMerchant(r.Context(), h.DB, id, m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "merchant not found")
			return
		}
		writeError(w, err, "failed to update merchant")
		return
	}

	merchant, err := store.GetMerchant(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get merchant")
		return
	}
	claims := GetClaims(r.Context())
	slog.Info("merchant updated", "user", claims.Name, "merchant_id", id)
	jsonResponse(w, http.StatusOK, merchant)
}

// Delete handles DELETE /api/merchants/{id}.
func (h *MerchantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid merchant id")
		return
	}

	if err := store.DeleteMerchant(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "merchant not found")
			return
		}
		writeError(w, err, "failed to delete merchant")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("merchant deleted", "user", claims.Name, "merchant_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "merchant deleted"})
}
