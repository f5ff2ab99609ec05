package auth

import (
	"testing"
	"time"

	"github.com/erazemk/factorclaim/internal/model"
)

func testUser() *model.User {
	return &model.User{ID: 1, Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
}

func TestIssueAndValidateToken(t *testing.T) {
	issuer := NewIssuer("test-secret-key", time.Hour)

	token, issued, err := issuer.Issue(testUser(), time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" || issued.ID == "" {
		t.Fatal("expected token with a JTI")
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Name != "Admin" {
		t.Errorf("expected name 'Admin', got %q", claims.Name)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("expected role 'Admin', got %q", claims.Role)
	}
	if claims.ID != issued.ID {
		t.Errorf("expected JTI %q, got %q", issued.ID, claims.ID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _, _ := NewIssuer("secret1", 0).Issue(testUser(), time.Now())

	if _, err := NewIssuer("secret2", 0).Validate(token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := NewIssuer("secret", 0).Validate("not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, _, _ := issuer.Issue(testUser(), time.Now().Add(-2*time.Hour))

	if _, err := issuer.Validate(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestValidateTokenUnknownRole(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	u := testUser()
	u.Role = "superuser"
	token, _, _ := issuer.Issue(u, time.Now())

	if _, err := issuer.Validate(token); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestTokenExpiry(t *testing.T) {
	issuer := NewIssuer("test", 0)
	now := time.Now()
	_, claims, _ := issuer.Issue(testUser(), now)

	diff := now.Add(DefaultTokenTTL).Sub(claims.ExpiresAt.Time)
	if diff < -time.Second || diff > time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}

func TestPasswords(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Error("expected short password to be rejected")
	}

	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "secret123") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "secret124") {
		t.Error("expected wrong password not to match")
	}
}
