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

// RepsHandler handles field representative endpoints.
type RepsHandler struct {
	DB *sql.DB
}

type repRequest struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Email    string `json:"email"`
	IsActive *bool  `json:"is_active"`
}

func (req repRequest) rep() (model.Rep, error) {
	rep := model.Rep{
		Name:     strings.TrimSpace(req.Name),
		Contact:  strings.TrimSpace(req.Contact),
		Email:    strings.TrimSpace(req.Email),
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	return rep, firstError(
		checkLength("name", rep.Name, 1, 100),
		checkLength("contact", rep.Contact, 10, 15),
		checkEmail("email", rep.Email, false),
	)
}

// List handles GET /api/reps.
func (h *RepsHandler) List(w http.ResponseWriter, r *http.Request) {
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

	reps, err := store.ListReps(r.Context(), h.DB, active, skip, limit)
	if err != nil {
		writeError(w, err, "failed to list reps")
		return
	}
	if reps == nil {
		reps = []model.Rep{}
	}
	jsonResponse(w, http.StatusOK, reps)
}

// Create handles POST /api/reps.
func (h *RepsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req repRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rep, err := req.rep()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := store.CreateRep(r.Context(), h.DB, rep)
	if err != nil {
		writeError(w, err, "failed to create rep")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("rep created", "user", claims.Name, "rep", created.Name, "rep_id", created.ID)
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/reps/{id}.
func (h *RepsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid rep id")
		return
	}

	rep, err := store.GetRep(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get rep")
		return
	}
	if rep == nil {
		jsonError(w, http.StatusNotFound, "rep not found")
		return
	}
	jsonResponse(w, http.StatusOK, rep)
}

// Update handles PUT /api/reps/{id}.
func (h *RepsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid rep id")
		return
	}

	var req repRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rep, err := req.rep()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.UpdateRep(r.Context(), h.DB, id, rep); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "rep not found")
			return
		}
		writeError(w, err, "failed to update rep")
		return
	}

	updated, err := store.GetRep(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get rep")
		return
	}
	claims := GetClaims(r.Context())
	slog.Info("rep updated", "user", claims.Name, "rep_id", id)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/reps/{id}.
func (h *RepsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid rep id")
		return
	}

	if err := store.DeleteRep(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "rep not found")
			return
		}
		writeError(w, err, "failed to delete rep")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("rep deleted", "user", claims.Name, "rep_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "rep deleted"})
}
