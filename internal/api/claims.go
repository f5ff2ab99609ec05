package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/factorclaim/internal/claim"
	"github.com/erazemk/factorclaim/internal/imaging"
	"github.com/erazemk/factorclaim/internal/model"
)

// ClaimsHandler handles claim endpoints. Role checks happen in the router;
// handlers pass the authenticated caller into the service.
type ClaimsHandler struct {
	Service *claim.Service
}

type createClaimRequest struct {
	RepID      model.ID          `json:"rep_id"`
	MerchantID model.ID          `json:"merchant_id"`
	Date       string            `json:"date"`
	Items      []model.ClaimLine `json:"items"`
	Notes      string            `json:"notes"`
}

type updateClaimRequest struct {
	Items []model.ClaimLine `json:"items"`
	Notes *string           `json:"notes"`
}

type verifyRequest struct {
	Notes *string `json:"notes"`
}

type biltyRequest struct {
	BiltyNumber string `json:"bilty_number"`
}

type approveRequest struct {
	Notes string `json:"notes"`
}

// List handles GET /api/claims.
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := claimFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.list(w, r, f)
}

// Unverified handles GET /api/claims/unverified.
func (h *ClaimsHandler) Unverified(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := queryPage(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.list(w, r, model.ClaimFilter{Status: model.StatusCreated, Skip: skip, Limit: limit})
}

func (h *ClaimsHandler) list(w http.ResponseWriter, r *http.Request, f model.ClaimFilter) {
	claims, err := h.Service.List(r.Context(), f)
	if err != nil {
		writeError(w, err, "failed to list claims")
		return
	}
	jsonResponse(w, http.StatusOK, claims)
}

func claimFilter(r *http.Request) (model.ClaimFilter, error) {
	var f model.ClaimFilter
	var err error

	if f.RepID, err = queryID(r, "rep_id"); err != nil {
		return f, err
	}
	if f.MerchantID, err = queryID(r, "merchant_id"); err != nil {
		return f, err
	}
	if f.Verified, err = queryBool(r, "verified"); err != nil {
		return f, err
	}
	f.Status = model.ClaimStatus(r.URL.Query().Get("status"))
	f.Skip, f.Limit, err = queryPage(r)
	return f, err
}

// Create handles POST /api/claims.
func (h *ClaimsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := claim.NewClaim{
		RepID:      req.RepID,
		MerchantID: req.MerchantID,
		Items:      req.Items,
		Notes:      req.Notes,
	}
	if d := strings.TrimSpace(req.Date); d != "" {
		date, err := model.ParseTimestamp(d)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "date must be an ISO-8601 date or timestamp")
			return
		}
		in.Date = date
	}

	created, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err, "failed to create claim")
		return
	}

	caller := GetClaims(r.Context())
	slog.Info("claim created", "user", caller.Name, "claim_id", created.ClaimID,
		"rep_id", created.RepID, "merchant_id", created.MerchantID, "lines", len(created.Items))
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/claims/{id}.
func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	c, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to get claim")
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Lookup handles GET /api/claims/lookup?claim_id=.
func (h *ClaimsHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	claimID := strings.TrimSpace(r.URL.Query().Get("claim_id"))
	if claimID == "" {
		jsonError(w, http.StatusBadRequest, "claim_id required")
		return
	}

	c, err := h.Service.GetByClaimID(r.Context(), claimID)
	if err != nil {
		writeError(w, err, "failed to get claim")
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Update handles PUT /api/claims/{id}.
func (h *ClaimsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req updateClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Items == nil && req.Notes == nil {
		jsonError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	c, err := h.Service.Update(r.Context(), id, claim.ClaimUpdate{Items: req.Items, Notes: req.Notes})
	if err != nil {
		writeError(w, err, "failed to update claim")
		return
	}

	caller := GetClaims(r.Context())
	slog.Info("claim updated", "user", caller.Name, "claim_id", c.ClaimID)
	jsonResponse(w, http.StatusOK, c)
}

// Verify handles POST /api/claims/{id}/verify.
func (h *ClaimsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req verifyRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	caller := GetClaims(r.Context())
	c, err := h.Service.Verify(r.Context(), id, caller.UserID, req.Notes)
	if err != nil {
		writeError(w, err, "failed to verify claim")
		return
	}

	slog.Info("claim verified", "user", caller.Name, "claim_id", c.ClaimID)
	jsonResponse(w, http.StatusOK, c)
}

// LogBilty handles POST /api/claims/{id}/bilty.
func (h *ClaimsHandler) LogBilty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req biltyRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.LogBilty(r.Context(), id, req.BiltyNumber)
	if err != nil {
		writeError(w, err, "failed to log bilty")
		return
	}

	caller := GetClaims(r.Context())
	slog.Info("bilty logged", "user", caller.Name, "claim_id", c.ClaimID, "bilty", c.BiltyNumber)
	jsonResponse(w, http.StatusOK, c)
}

// Approve handles POST /api/claims/{id}/approve.
func (h *ClaimsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	var req approveRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	caller := GetClaims(r.Context())
	c, err := h.Service.Approve(r.Context(), id, caller.UserID, req.Notes)
	if err != nil {
		writeError(w, err, "failed to approve claim")
		return
	}

	slog.Info("claim approved", "user", caller.Name, "claim_id", c.ClaimID)
	jsonResponse(w, http.StatusOK, c)
}

// Delete handles DELETE /api/claims/{id}.
func (h *ClaimsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, err, "failed to delete claim")
		return
	}

	caller := GetClaims(r.Context())
	slog.Info("claim deleted", "user", caller.Name, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "claim deleted"})
}

// UploadPhoto handles PUT /api/claims/{id}/photo. The photo is sent as the
// "photo" field of a multipart form.
func (h *ClaimsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	// Leave room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.NormalizePhoto(file)
	if err != nil {
		writeError(w, err, "failed to process photo")
		return
	}

	if err := h.Service.SetPhoto(r.Context(), id, photo.Data, photo.MIME); err != nil {
		writeError(w, err, "failed to save photo")
		return
	}

	caller := GetClaims(r.Context())
	slog.Info("claim photo uploaded", "user", caller.Name, "id", id, "bytes", len(photo.Data))
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "photo uploaded",
		"width":   photo.Width,
		"height":  photo.Height,
	})
}

// GetPhoto handles GET /api/claims/{id}/photo.
func (h *ClaimsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid claim id")
		return
	}

	data, mime, err := h.Service.Photo(r.Context(), id)
	if err != nil {
		writeError(w, err, "failed to get photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
