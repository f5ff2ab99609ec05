package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/factorclaim/internal/authz"
	"github.com/erazemk/factorclaim/internal/claim"
	"github.com/erazemk/factorclaim/internal/imaging"
	"github.com/erazemk/factorclaim/internal/model"
	"github.com/erazemk/factorclaim/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(r *http.Request, target any) error {
	err := decodeJSON(r, target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type validationResponse struct {
	Error    string          `json:"error"`
	Reason   string          `json:"reason"`
	Warnings []model.Warning `json:"warnings,omitempty"`
}

// writeError maps err to a status and JSON body. Errors of an unknown kind
// are logged and reported as 500 with msg; their detail stays in the log.
func writeError(w http.ResponseWriter, err error, msg string) {
	var verr *claim.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusBadRequest, validationResponse{
			Error:    verr.Message,
			Reason:   verr.Reason,
			Warnings: verr.Warnings,
		})
	case errors.Is(err, claim.ErrNotFound), errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, claim.ErrInvalidTransition),
		errors.Is(err, claim.ErrConflict),
		errors.Is(err, store.ErrInUse),
		errors.Is(err, store.ErrDuplicateEmail),
		errors.Is(err, errLastAdmin):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		jsonError(w, http.StatusForbidden, err.Error())
	default:
		slog.Error(msg, "error", err)
		jsonError(w, http.StatusInternalServerError, msg)
	}
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (model.ID, error) {
	return model.ParseID(r.PathValue("id"))
}

// queryID parses an optional id query parameter. Absent means zero.
func queryID(r *http.Request, key string) (model.ID, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return model.ParseID(v)
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, key string) (*bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// queryPage parses skip and limit. A missing limit leaves the store default.
func queryPage(r *http.Request) (skip, limit int, err error) {
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		skip, err = strconv.Atoi(v)
		if err != nil || skip < 0 {
			return 0, 0, errors.New("skip must be a non-negative integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > store.MaxLimit {
			return 0, 0, errors.New("limit must be between 1 and " + strconv.Itoa(store.MaxLimit))
		}
	}
	return skip, limit, nil
}
