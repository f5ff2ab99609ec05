package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/factorclaim/internal/auth"
	"github.com/erazemk/factorclaim/internal/model"
	"github.com/erazemk/factorclaim/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	ContactNo string `json:"contact_no"`
	Password  string `json:"password"`
	Role      string `json:"type"`
}

type updateUserRequest struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	ContactNo *string `json:"contact_no"`
	Role      *string `json:"type"`
	IsActive  *bool   `json:"is_active"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

var errLastAdmin = errors.New("cannot remove the last active admin")

func validateUser(u *model.User) error {
	if !model.ValidRole(u.Role) {
		return errors.New("type must be one of Admin, Rep, Factory")
	}
	return firstError(
		checkLength("name", u.Name, 1, 100),
		checkEmail("email", u.Email, true),
		checkLength("contact_no", u.ContactNo, 0, 15),
	)
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		writeError(w, err, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u := model.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		ContactNo: strings.TrimSpace(req.ContactNo),
		Role:      req.Role,
		IsActive:  true,
	}
	if err := validateUser(&u); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	u.PasswordHash = hash

	user, err := store.CreateUser(r.Context(), h.DB, u)
	if err != nil {
		writeError(w, err, "failed to create user")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user created", "user", claims.Name, "new_user", user.Email, "role", user.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get user")
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}. Absent fields are left unchanged.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get user")
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	wasAdmin := user.Role == model.RoleAdmin && user.IsActive
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.ContactNo != nil {
		user.ContactNo = strings.TrimSpace(*req.ContactNo)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := validateUser(user); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if wasAdmin && (user.Role != model.RoleAdmin || !user.IsActive) {
		if err := h.requireAnotherAdmin(r); err != nil {
			writeError(w, err, "failed to update user")
			return
		}
	}

	if err := store.UpdateUser(r.Context(), h.DB, id, *user); err != nil {
		writeError(w, err, "failed to update user")
		return
	}

	updated, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get user")
		return
	}
	claims := GetClaims(r.Context())
	slog.Info("user updated", "user", claims.Name, "target_user", updated.Email,
		"role", updated.Role, "active", updated.IsActive)
	jsonResponse(w, http.StatusOK, updated)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, id, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, err, "failed to reset password")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user password reset", "user", claims.Name, "target_user", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err, "failed to get user")
		return
	}
	if target == nil || target.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	if target.Role == model.RoleAdmin && target.IsActive {
		if err := h.requireAnotherAdmin(r); err != nil {
			writeError(w, err, "failed to delete user")
			return
		}
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, err, "failed to delete user")
		return
	}

	slog.Info("user deleted", "user", claims.Name, "deleted_user", target.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// requireAnotherAdmin fails when demoting or removing one admin would
// leave none.
func (h *UsersHandler) requireAnotherAdmin(r *http.Request) error {
	n, err := store.CountAdmins(r.Context(), h.DB)
	if err != nil {
		return err
	}
	if n <= 1 {
		return errLastAdmin
	}
	return nil
}
