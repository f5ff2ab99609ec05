package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/factorclaim/internal/auth"
	"github.com/erazemk/factorclaim/internal/authz"
	"github.com/erazemk/factorclaim/internal/claim"
	"github.com/erazemk/factorclaim/internal/clock"
	"github.com/erazemk/factorclaim/internal/metrics"
)

// Deps are the collaborators the API is built from.
type Deps struct {
	DB      *sql.DB
	Issuer  *auth.Issuer
	Gate    *authz.Gate
	Claims  *claim.Service
	Clock   clock.Clock // item age checks; defaults to the system clock
	Metrics *metrics.Metrics // nil disables /metrics
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, Issuer: d.Issuer}
	usersHandler := &UsersHandler{DB: d.DB}
	repsHandler := &RepsHandler{DB: d.DB}
	merchantsHandler := &MerchantsHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{DB: d.DB, Clock: d.Clock}
	claimsHandler := &ClaimsHandler{Service: d.Claims}

	authMW := AuthMiddleware(d.Issuer, d.DB)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMW(h)
	}
	allow := func(obj, act string, h http.HandlerFunc) http.Handler {
		return authMW(Authorize(d.Gate, obj, act)(h))
	}

	// Public.
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Any authenticated user.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/auth/me", authed(authHandler.Me))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Users.
	mux.Handle("GET /api/users", allow(authz.ObjectUser, authz.ActionRead, usersHandler.List))
	mux.Handle("POST /api/users", allow(authz.ObjectUser, authz.ActionCreate, usersHandler.Create))
	mux.Handle("GET /api/users/{id}", allow(authz.ObjectUser, authz.ActionRead, usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", allow(authz.ObjectUser, authz.ActionUpdate, usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", allow(authz.ObjectUser, authz.ActionUpdate, usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", allow(authz.ObjectUser, authz.ActionDelete, usersHandler.Delete))

	// Reps.
	mux.Handle("GET /api/reps", allow(authz.ObjectRep, authz.ActionRead, repsHandler.List))
	mux.Handle("POST /api/reps", allow(authz.ObjectRep, authz.ActionCreate, repsHandler.Create))
	mux.Handle("GET /api/reps/{id}", allow(authz.ObjectRep, authz.ActionRead, repsHandler.Get))
	mux.Handle("PUT /api/reps/{id}", allow(authz.ObjectRep, authz.ActionUpdate, repsHandler.Update))
	mux.Handle("DELETE /api/reps/{id}", allow(authz.ObjectRep, authz.ActionDelete, repsHandler.Delete))

	// Merchants.
	mux.Handle("GET /api/merchants", allow(authz.ObjectMerchant, authz.ActionRead, merchantsHandler.List))
	mux.Handle("GET /api/merchants/search", allow(authz.ObjectMerchant, authz.ActionRead, merchantsHandler.Search))
	mux.Handle("POST /api/merchants", allow(authz.ObjectMerchant, authz.ActionCreate, merchantsHandler.Create))
	mux.Handle("GET /api/merchants/{id}", allow(authz.ObjectMerchant, authz.ActionRead, merchantsHandler.Get))
	mux.Handle("PUT /api/merchants/{id}", allow(authz.ObjectMerchant, authz.ActionUpdate, merchantsHandler.Update))
	mux.Handle("DELETE /api/merchants/{id}", allow(authz.ObjectMerchant, authz.ActionDelete, merchantsHandler.Delete))

	// Items.
	mux.Handle("GET /api/items", allow(authz.ObjectItem, authz.ActionRead, itemsHandler.List))
	mux.Handle("GET /api/items/search", allow(authz.ObjectItem, authz.ActionRead, itemsHandler.Search))
	mux.Handle("GET /api/items/lookup", allow(authz.ObjectItem, authz.ActionRead, itemsHandler.Lookup))
	mux.Handle("POST /api/items", allow(authz.ObjectItem, authz.ActionCreate, itemsHandler.Create))
	mux.Handle("GET /api/items/{id}", allow(authz.ObjectItem, authz.ActionRead, itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", allow(authz.ObjectItem, authz.ActionUpdate, itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", allow(authz.ObjectItem, authz.ActionDelete, itemsHandler.Delete))
	mux.Handle("GET /api/items/{id}/check-age", allow(authz.ObjectItem, authz.ActionRead, itemsHandler.CheckAge))

	// Claims.
	mux.Handle("GET /api/claims", allow(authz.ObjectClaim, authz.ActionRead, claimsHandler.List))
	mux.Handle("POST /api/claims", allow(authz.ObjectClaim, authz.ActionCreate, claimsHandler.Create))
	mux.Handle("GET /api/claims/unverified", allow(authz.ObjectClaim, authz.ActionReview, claimsHandler.Unverified))
	mux.Handle("GET /api/claims/lookup", allow(authz.ObjectClaim, authz.ActionRead, claimsHandler.Lookup))
	mux.Handle("GET /api/claims/{id}", allow(authz.ObjectClaim, authz.ActionRead, claimsHandler.Get))
	mux.Handle("PUT /api/claims/{id}", allow(authz.ObjectClaim, authz.ActionUpdate, claimsHandler.Update))
	mux.Handle("DELETE /api/claims/{id}", allow(authz.ObjectClaim, authz.ActionDelete, claimsHandler.Delete))
	mux.Handle("POST /api/claims/{id}/verify", allow(authz.ObjectClaim, authz.ActionVerify, claimsHandler.Verify))
	mux.Handle("POST /api/claims/{id}/bilty", allow(authz.ObjectClaim, authz.ActionLogBilty, claimsHandler.LogBilty))
	mux.Handle("POST /api/claims/{id}/approve", allow(authz.ObjectClaim, authz.ActionApprove, claimsHandler.Approve))
	mux.Handle("PUT /api/claims/{id}/photo", allow(authz.ObjectClaim, authz.ActionPhoto, claimsHandler.UploadPhoto))
	mux.Handle("GET /api/claims/{id}/photo", allow(authz.ObjectClaim, authz.ActionRead, claimsHandler.GetPhoto))

	return mux
}
