package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/erazemk/factorclaim/internal/auth"
	"github.com/erazemk/factorclaim/internal/authz"
	"github.com/erazemk/factorclaim/internal/claim"
	"github.com/erazemk/factorclaim/internal/clock"
	"github.com/erazemk/factorclaim/internal/db"
	"github.com/erazemk/factorclaim/internal/metrics"
	"github.com/erazemk/factorclaim/internal/model"
	"github.com/erazemk/factorclaim/internal/store"
)

const (
	testJWTSecret = "test-secret"
	testPassword  = "password"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type testServer struct {
	*httptest.Server
	db     *sql.DB
	issuer *auth.Issuer

	admin, rep, factory string // tokens
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	database := db.NewTestDB(t)
	gate, err := authz.NewGate()
	if err != nil {
		t.Fatalf("creating gate: %v", err)
	}
	fake := clock.NewFake(testNow)
	m := metrics.New(prometheus.NewRegistry())
	issuer := auth.NewIssuer(testJWTSecret, time.Hour)

	router := NewRouter(Deps{
		DB:      database,
		Issuer:  issuer,
		Gate:    gate,
		Claims:  claim.NewService(database, claim.WithClock(fake), claim.WithMetrics(m)),
		Clock:   fake,
		Metrics: m,
	})
	server := httptest.NewServer(LoggingMiddleware(m)(router))
	t.Cleanup(server.Close)

	s := &testServer{Server: server, db: database, issuer: issuer}
	s.admin = s.tokenFor(t, s.createUser(t, model.RoleAdmin, "admin@example.com"))
	s.rep = s.tokenFor(t, s.createUser(t, model.RoleRep, "rep@example.com"))
	s.factory = s.tokenFor(t, s.createUser(t, model.RoleFactory, "factory@example.com"))
	return s
}

func (s *testServer) createUser(t *testing.T, role, email string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatal(err)
	}
	user, err := store.CreateUser(context.Background(), s.db, model.User{
		Name: role + " user", Email: email, PasswordHash: hash, Role: role, IsActive: true,
	})
	if err != nil {
		t.Fatalf("creating %s user: %v", role, err)
	}
	return user
}

func (s *testServer) tokenFor(t *testing.T, user *model.User) string {
	t.Helper()
	token, _, err := s.issuer.Issue(user, time.Now())
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s",
			resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

// seedParties creates a rep, a merchant and an item produced daysOld days
// before testNow, through the API.
func (s *testServer) seedParties(t *testing.T, daysOld int) (rep, merchant, item model.ID) {
	t.Helper()

	resp := s.do(t, "POST", "/api/reps", s.admin, map[string]any{
		"name": "Ali", "contact": "03001234567",
	})
	expectStatus(t, resp, http.StatusCreated)
	rep = decodeBody[model.Rep](t, resp).ID

	resp = s.do(t, "POST", "/api/merchants", s.rep, map[string]any{
		"name": "Bright Lights", "address": "Mall Road", "contact": "03007654321",
	})
	expectStatus(t, resp, http.StatusCreated)
	merchant = decodeBody[model.Merchant](t, resp).ID

	resp = s.do(t, "POST", "/api/items", s.admin, map[string]any{
		"model_name":      "LED-9W",
		"item_type":       "bulb",
		"batch":           "B-100",
		"production_date": testNow.Add(-time.Duration(daysOld) * 24 * time.Hour).Format(time.RFC3339),
		"wattage":         9,
		"supplier":        "Acme",
	})
	expectStatus(t, resp, http.StatusCreated)
	item = decodeBody[model.Item](t, resp).ID

	return rep, merchant, item
}

func claimBody(rep, merchant, item model.ID, forceAdd bool) map[string]any {
	return map[string]any{
		"rep_id":      rep,
		"merchant_id": merchant,
		"items": []map[string]any{
			{"item_id": item, "quantity": 3, "force_add": forceAdd},
		},
	}
}

func TestLoginEndpoint(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "ADMIN@example.com", "password": testPassword,
	})
	expectStatus(t, resp, http.StatusOK)
	login := decodeBody[loginResponse](t, resp)
	if login.Token == "" {
		t.Fatal("empty token from login")
	}
	if !login.ExpiresAt.After(time.Now()) {
		t.Errorf("expires_at %v is not in the future", login.ExpiresAt)
	}
	if login.User == nil || login.User.Role != model.RoleAdmin {
		t.Errorf("unexpected user in login response: %+v", login.User)
	}

	resp = s.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "wrong",
	})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = s.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": testPassword,
	})
	expectStatus(t, resp, http.StatusUnauthorized)

	inactive := s.createUser(t, model.RoleRep, "idle@example.com")
	inactive.IsActive = false
	if err := store.UpdateUser(context.Background(), s.db, inactive.ID, *inactive); err != nil {
		t.Fatal(err)
	}
	resp = s.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "idle@example.com", "password": testPassword,
	})
	expectStatus(t, resp, http.StatusForbidden)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := setupTestServer(t)

	expectStatus(t, s.do(t, "GET", "/api/auth/me", s.rep, nil), http.StatusOK)
	expectStatus(t, s.do(t, "POST", "/api/auth/logout", s.rep, nil), http.StatusOK)
	expectStatus(t, s.do(t, "GET", "/api/auth/me", s.rep, nil), http.StatusUnauthorized)

	// Other sessions are unaffected.
	expectStatus(t, s.do(t, "GET", "/api/auth/me", s.admin, nil), http.StatusOK)
}

func TestChangePassword(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, "PUT", "/api/auth/password", s.rep, map[string]string{
		"current_password": "wrong", "new_password": "secret123",
	})
	expectStatus(t, resp, http.StatusUnauthorized)

	resp = s.do(t, "PUT", "/api/auth/password", s.rep, map[string]string{
		"current_password": testPassword, "new_password": "123",
	})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = s.do(t, "PUT", "/api/auth/password", s.rep, map[string]string{
		"current_password": testPassword, "new_password": "secret123",
	})
	expectStatus(t, resp, http.StatusOK)

	resp = s.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "rep@example.com", "password": "secret123",
	})
	expectStatus(t, resp, http.StatusOK)
}

func TestUnauthenticatedAccess(t *testing.T) {
	s := setupTestServer(t)

	expectStatus(t, s.do(t, "GET", "/api/items", "", nil), http.StatusUnauthorized)
	expectStatus(t, s.do(t, "GET", "/api/claims", "garbage", nil), http.StatusUnauthorized)
	expectStatus(t, s.do(t, "GET", "/health", "", nil), http.StatusOK)
}

func TestDisabledUserTokenRejected(t *testing.T) {
	s := setupTestServer(t)

	user := s.createUser(t, model.RoleRep, "leaver@example.com")
	token := s.tokenFor(t, user)
	expectStatus(t, s.do(t, "GET", "/api/claims", token, nil), http.StatusOK)

	expectStatus(t, s.do(t, "DELETE", "/api/users/"+user.ID.String(), s.admin, nil), http.StatusOK)
	expectStatus(t, s.do(t, "GET", "/api/claims", token, nil), http.StatusUnauthorized)
}

func TestRoleBasedAccess(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"rep cannot create items", "POST", "/api/items", s.rep, http.StatusForbidden},
		{"rep cannot list users", "GET", "/api/users", s.rep, http.StatusForbidden},
		{"factory cannot create claims", "POST", "/api/claims", s.factory, http.StatusForbidden},
		{"factory cannot create merchants", "POST", "/api/merchants", s.factory, http.StatusForbidden},
		{"rep cannot list unverified", "GET", "/api/claims/unverified", s.rep, http.StatusForbidden},
		{"rep cannot create reps", "POST", "/api/reps", s.rep, http.StatusForbidden},
		{"factory reads items", "GET", "/api/items", s.factory, http.StatusOK},
		{"factory lists unverified", "GET", "/api/claims/unverified", s.factory, http.StatusOK},
		{"rep reads reps", "GET", "/api/reps", s.rep, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, s.do(t, tt.method, tt.path, tt.token, map[string]any{}), tt.want)
		})
	}
}

func TestClaimWorkflow(t *testing.T) {
	s := setupTestServer(t)
	rep, merchant, item := s.seedParties(t, 30)

	resp := s.do(t, "POST", "/api/claims", s.rep, claimBody(rep, merchant, item, false))
	expectStatus(t, resp, http.StatusCreated)
	created := decodeBody[model.Claim](t, resp)
	if created.ClaimID != "CLM-20250601-0001" {
		t.Errorf("expected CLM-20250601-0001, got %s", created.ClaimID)
	}
	if created.Verified || created.Status != model.StatusCreated {
		t.Errorf("new claim should be unverified, got status %s", created.Status)
	}
	path := "/api/claims/" + created.ID.String()

	resp = s.do(t, "GET", "/api/claims/lookup?claim_id="+created.ClaimID, s.factory, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[model.Claim](t, resp); got.ID != created.ID {
		t.Errorf("lookup returned claim %s, want %s", got.ID, created.ID)
	}

	resp = s.do(t, "GET", "/api/claims/unverified", s.factory, nil)
	expectStatus(t, resp, http.StatusOK)
	if pending := decodeBody[[]model.Claim](t, resp); len(pending) != 1 {
		t.Errorf("expected 1 unverified claim, got %d", len(pending))
	}

	// Out of order: bilty before verification.
	expectStatus(t, s.do(t, "POST", path+"/bilty", s.rep, map[string]string{"bilty_number": "BL-1"}),
		http.StatusConflict)

	resp = s.do(t, "POST", path+"/verify", s.factory, map[string]string{"notes": "checked"})
	expectStatus(t, resp, http.StatusOK)
	verified := decodeBody[model.Claim](t, resp)
	if !verified.Verified || verified.VerifiedBy == nil || verified.Notes != "checked" {
		t.Errorf("unexpected verified claim: %+v", verified)
	}

	expectStatus(t, s.do(t, "POST", path+"/verify", s.factory, nil), http.StatusConflict)
	expectStatus(t, s.do(t, "PUT", path, s.rep, map[string]string{"notes": "late edit"}), http.StatusConflict)

	resp = s.do(t, "POST", path+"/bilty", s.rep, map[string]string{"bilty_number": " BL-42 "})
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[model.Claim](t, resp); got.BiltyNumber != "BL-42" || got.Status != model.StatusBiltyLogged {
		t.Errorf("unexpected claim after bilty: %+v", got)
	}

	resp = s.do(t, "POST", path+"/approve", s.factory, map[string]string{"notes": "ok"})
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[model.Claim](t, resp); got.Status != model.StatusApproved || got.ApprovedBy == nil {
		t.Errorf("unexpected claim after approve: %+v", got)
	}

	expectStatus(t, s.do(t, "DELETE", path, s.rep, nil), http.StatusConflict)

	resp = s.do(t, "GET", "/api/claims?verified=true&rep_id="+rep.String(), s.rep, nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decodeBody[[]model.Claim](t, resp); len(list) != 1 {
		t.Errorf("expected 1 verified claim for rep, got %d", len(list))
	}
}

func TestRepCannotVerify(t *testing.T) {
	s := setupTestServer(t)
	rep, merchant, item := s.seedParties(t, 30)

	resp := s.do(t, "POST", "/api/claims", s.rep, claimBody(rep, merchant, item, false))
	expectStatus(t, resp, http.StatusCreated)
	path := "/api/claims/" + decodeBody[model.Claim](t, resp).ID.String()

	expectStatus(t, s.do(t, "POST", path+"/verify", s.rep, nil), http.StatusForbidden)
	expectStatus(t, s.do(t, "POST", path+"/approve", s.rep, nil), http.StatusForbidden)

	resp = s.do(t, "GET", path, s.rep, nil)
	expectStatus(t, resp, http.StatusOK)
	got := decodeBody[model.Claim](t, resp)
	if got.Verified || got.Status != model.StatusCreated || got.VerifiedBy != nil {
		t.Errorf("claim changed by forbidden call: %+v", got)
	}
}

func TestCreateClaimWithOldItem(t *testing.T) {
	s := setupTestServer(t)
	rep, merchant, item := s.seedParties(t, 500)

	resp := s.do(t, "POST", "/api/claims", s.rep, claimBody(rep, merchant, item, false))
	expectStatus(t, resp, http.StatusBadRequest)
	rejected := decodeBody[validationResponse](t, resp)
	if rejected.Reason != claim.ReasonItemsTooOld {
		t.Errorf("expected reason %s, got %s", claim.ReasonItemsTooOld, rejected.Reason)
	}
	if len(rejected.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(rejected.Warnings))
	}
	if w := rejected.Warnings[0]; w.ItemID != item || w.AgeMonths != 16 {
		t.Errorf("unexpected warning: %+v", w)
	}

	resp = s.do(t, "GET", "/api/claims", s.rep, nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decodeBody[[]model.Claim](t, resp); len(list) != 0 {
		t.Fatalf("rejected claim was persisted: %+v", list)
	}

	resp = s.do(t, "POST", "/api/claims", s.rep, claimBody(rep, merchant, item, true))
	expectStatus(t, resp, http.StatusCreated)
	created := decodeBody[model.Claim](t, resp)
	if created.ClaimID != "CLM-20250601-0001" || created.Verified {
		t.Errorf("unexpected claim: %s verified=%v", created.ClaimID, created.Verified)
	}
}

func TestCreateClaimValidation(t *testing.T) {
	s := setupTestServer(t)
	rep, merchant, item := s.seedParties(t, 30)

	body := claimBody(rep, merchant, item, false)
	body["items"] = []map[string]any{}
	expectStatus(t, s.do(t, "POST", "/api/claims", s.rep, body), http.StatusBadRequest)

	body = claimBody(rep, merchant, item, false)
	body["items"] = []map[string]any{{"item_id": item, "quantity": 0}}
	expectStatus(t, s.do(t, "POST", "/api/claims", s.rep, body), http.StatusBadRequest)

	body = claimBody(rep, merchant, item, false)
	body["date"] = "not a date"
	expectStatus(t, s.do(t, "POST", "/api/claims", s.rep, body), http.StatusBadRequest)

	expectStatus(t, s.do(t, "POST", "/api/claims", s.rep, claimBody(rep+100, merchant, item, false)),
		http.StatusNotFound)
	expectStatus(t, s.do(t, "POST", "/api/claims", s.rep, claimBody(rep, merchant+100, item, false)),
		http.StatusNotFound)
}

func TestClaimNotFound(t *testing.T) {
	s := setupTestServer(t)

	expectStatus(t, s.do(t, "GET", "/api/claims/999", s.rep, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, "DELETE", "/api/claims/999", s.rep, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, "POST", "/api/claims/999/verify", s.factory, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, "GET", "/api/claims/lookup?claim_id=CLM-20250601-0009", s.rep, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, "GET", "/api/claims/abc", s.rep, nil), http.StatusBadRequest)
}

func TestDeleteClaim(t *testing.T) {
	s := setupTestServer(t)
	rep, merchant, item := s.seedParties(t, 30)

	resp := s.do(t, "POST", "/api/claims", s.rep, claimBody(rep, merchant, item, false))
	expectStatus(t, resp, http.StatusCreated)
	path := "/api/claims/" + decodeBody[model.Claim](t, resp).ID.String()

	expectStatus(t, s.do(t, "DELETE", path, s.factory, nil), http.StatusForbidden)
	expectStatus(t, s.do(t, "DELETE", path, s.rep, nil), http.StatusOK)
	expectStatus(t, s.do(t, "GET", path, s.rep, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, "DELETE", path, s.rep, nil), http.StatusNotFound)
}

func TestUpdateClaim(t *testing.T) {
	s := setupTestServer(t)
	rep, merchant, item := s.seedParties(t, 30)

	resp := s.do(t, "POST", "/api/claims", s.rep, claimBody(rep, merchant, item, false))
	expectStatus(t, resp, http.StatusCreated)
	path := "/api/claims/" + decodeBody[model.Claim](t, resp).ID.String()

	expectStatus(t, s.do(t, "PUT", path, s.rep, map[string]any{}), http.StatusBadRequest)

	resp = s.do(t, "PUT", path, s.rep, map[string]any{
		"items": []map[string]any{{"item_id": item, "quantity": 7, "notes": "cracked"}},
		"notes": "two boxes",
	})
	expectStatus(t, resp, http.StatusOK)
	got := decodeBody[model.Claim](t, resp)
	if got.Notes != "two boxes" || len(got.Items) != 1 || got.Items[0].Quantity != 7 {
		t.Errorf("unexpected claim after update: %+v", got)
	}
}

func TestCheckAgeEndpoint(t *testing.T) {
	s := setupTestServer(t)
	_, _, item := s.seedParties(t, 500)

	resp := s.do(t, "GET", "/api/items/"+item.String()+"/check-age", s.rep, nil)
	expectStatus(t, resp, http.StatusOK)
	report := decodeBody[model.AgeReport](t, resp)
	if !report.IsOld || !report.RequiresConfirmation || report.AgeMonths != 16 {
		t.Errorf("unexpected age report: %+v", report)
	}

	expectStatus(t, s.do(t, "GET", "/api/items/999/check-age", s.rep, nil), http.StatusNotFound)
	expectStatus(t, s.do(t, "GET", "/api/items/x/check-age", s.rep, nil), http.StatusBadRequest)
}

func TestItemsAPI(t *testing.T) {
	s := setupTestServer(t)
	_, _, item := s.seedParties(t, 30)

	resp := s.do(t, "GET", "/api/items/lookup?batch=b-100", s.factory, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[model.Item](t, resp); got.ID != item {
		t.Errorf("lookup returned item %s, want %s", got.ID, item)
	}
	expectStatus(t, s.do(t, "GET", "/api/items/lookup?batch=nope", s.factory, nil), http.StatusNotFound)

	resp = s.do(t, "GET", "/api/items/search?q=acme", s.rep, nil)
	expectStatus(t, resp, http.StatusOK)
	if found := decodeBody[[]model.Item](t, resp); len(found) != 1 {
		t.Errorf("expected 1 search hit, got %d", len(found))
	}

	resp = s.do(t, "POST", "/api/items", s.admin, map[string]any{
		"model_name": "LED-12W", "item_type": "bulb", "batch": "B-200",
		"production_date": "2025-01-01", "wattage": 0, "supplier": "Acme",
	})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = s.do(t, "POST", "/api/items", s.admin, map[string]any{
		"model_name": "LED-12W", "item_type": "bulb", "batch": "B-200",
		"production_date": "someday", "wattage": 12, "supplier": "Acme",
	})
	expectStatus(t, resp, http.StatusBadRequest)

	expectStatus(t, s.do(t, "GET", "/api/items?limit=0", s.rep, nil), http.StatusBadRequest)
	expectStatus(t, s.do(t, "GET", "/api/items?skip=-1", s.rep, nil), http.StatusBadRequest)
}

func TestMerchantInUse(t *testing.T) {
	s := setupTestServer(t)
	rep, merchant, item := s.seedParties(t, 30)

	expectStatus(t, s.do(t, "POST", "/api/claims", s.rep, claimBody(rep, merchant, item, false)),
		http.StatusCreated)

	expectStatus(t, s.do(t, "DELETE", "/api/merchants/"+merchant.String(), s.rep, nil), http.StatusConflict)
	expectStatus(t, s.do(t, "DELETE", "/api/reps/"+rep.String(), s.admin, nil), http.StatusConflict)

	resp := s.do(t, "POST", "/api/merchants", s.rep, map[string]any{
		"name": "Short", "address": "Somewhere", "contact": "123",
	})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestUserManagement(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, "POST", "/api/users", s.admin, map[string]any{
		"name": "Sara", "email": "sara@example.com", "password": "secret123", "type": model.RoleFactory,
	})
	expectStatus(t, resp, http.StatusCreated)
	sara := decodeBody[model.User](t, resp)
	if sara.Role != model.RoleFactory || !sara.IsActive {
		t.Errorf("unexpected user: %+v", sara)
	}

	resp = s.do(t, "POST", "/api/users", s.admin, map[string]any{
		"name": "Sara 2", "email": "SARA@example.com", "password": "secret123", "type": model.RoleRep,
	})
	expectStatus(t, resp, http.StatusConflict)

	resp = s.do(t, "POST", "/api/users", s.admin, map[string]any{
		"name": "Bad", "email": "bad@example.com", "password": "secret123", "type": "Manager",
	})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = s.do(t, "PUT", "/api/users/"+sara.ID.String(), s.admin, map[string]any{"type": model.RoleRep})
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[model.User](t, resp); got.Role != model.RoleRep || got.Name != "Sara" {
		t.Errorf("unexpected user after update: %+v", got)
	}

	admin, err := store.GetUserByEmail(context.Background(), s.db, "admin@example.com")
	if err != nil || admin == nil {
		t.Fatalf("loading admin: %v", err)
	}
	adminPath := "/api/users/" + admin.ID.String()
	expectStatus(t, s.do(t, "DELETE", adminPath, s.admin, nil), http.StatusBadRequest)
	expectStatus(t, s.do(t, "PUT", adminPath, s.admin, map[string]any{"type": model.RoleRep}), http.StatusConflict)

	expectStatus(t, s.do(t, "PUT", "/api/users/"+sara.ID.String()+"/password", s.admin,
		map[string]string{"password": "another1"}), http.StatusOK)
	expectStatus(t, s.do(t, "DELETE", "/api/users/"+sara.ID.String(), s.admin, nil), http.StatusOK)
	expectStatus(t, s.do(t, "GET", "/api/users/"+sara.ID.String(), s.admin, nil), http.StatusNotFound)
}

func TestClaimPhoto(t *testing.T) {
	s := setupTestServer(t)
	rep, merchant, item := s.seedParties(t, 30)

	resp := s.do(t, "POST", "/api/claims", s.rep, claimBody(rep, merchant, item, false))
	expectStatus(t, resp, http.StatusCreated)
	path := "/api/claims/" + decodeBody[model.Claim](t, resp).ID.String() + "/photo"

	expectStatus(t, s.do(t, "GET", path, s.rep, nil), http.StatusNotFound)

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("photo", "defect.png")
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(part, img); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req, _ := http.NewRequest("PUT", s.URL+path, &body)
	req.Header.Set("Authorization", "Bearer "+s.rep)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	upload, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	upload.Body.Close()
	if upload.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for upload, got %d", upload.StatusCode)
	}

	resp = s.do(t, "GET", path, s.factory, nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", ct)
	}
}

func TestRequestIDAndMetrics(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, "GET", "/health", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	req, _ := http.NewRequest("GET", s.URL+"/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	echoed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	echoed.Body.Close()
	if got := echoed.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}

	resp = s.do(t, "GET", "/metrics", "", nil)
	expectStatus(t, resp, http.StatusOK)
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `route="GET /health"`) {
		t.Errorf("expected /health to be recorded by route pattern, got:\n%s", data)
	}
}
