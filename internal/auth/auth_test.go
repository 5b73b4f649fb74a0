package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"
)

func testAdmin() *models.Admin {
	return &models.Admin{
		Id:          "admin-1",
		Email:       "root@example.com",
		Role:        models.AdminRoleSuperAdmin,
		Permissions: models.DefaultPermissions(models.AdminRoleSuperAdmin),
	}
}

func setupTokenManager(t *testing.T) *TokenManager {
	t.Helper()

	tokens, err := NewTokenManager(models.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, Issuer: "wallet-ledger"})
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	return tokens
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	if _, err := NewTokenManager(models.AuthConfig{}); err == nil {
		t.Error("Expected error for empty secret")
	}
}

func TestIssueAndVerify(t *testing.T) {
	tokens := setupTokenManager(t)

	token, err := tokens.Issue(testAdmin())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	principal, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if principal.AdminId != "admin-1" || principal.Role != models.AdminRoleSuperAdmin {
		t.Errorf("Unexpected principal %+v", principal)
	}
	if !principal.Permissions.ManageAdmins {
		t.Error("Expected permissions to be carried in the token")
	}
}

func TestVerify_Rejects(t *testing.T) {
	tokens := setupTokenManager(t)
	token, err := tokens.Issue(testAdmin())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	other, _ := NewTokenManager(models.AuthConfig{JWTSecret: "other-secret", Issuer: "wallet-ledger"})
	expired := setupTokenManager(t)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	tests := []struct {
		name    string
		manager *TokenManager
		token   string
	}{
		{"garbage", tokens, "not-a-token"},
		{"wrong secret", other, token},
		{"expired", expired, token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.manager.Verify(tt.token); !errors.Is(err, store.ErrUnauthorized) {
				t.Errorf("Expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestPasswords(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Error("Expected error for short password")
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("Expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("Expected wrong password to be rejected")
	}
}

func TestMiddleware(t *testing.T) {
	tokens := setupTokenManager(t)
	token, _ := tokens.Issue(testAdmin())

	writeError := func(w http.ResponseWriter, status int, message string) {
		http.Error(w, message, status)
	}
	var seen *models.Principal
	handler := Middleware(tokens, writeError)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = models.GetPrincipal(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen == nil || seen.AdminId != "admin-1" {
		t.Errorf("Expected principal in context, got code=%d principal=%+v", rec.Code, seen)
	}
}

func TestRequireRole(t *testing.T) {
	writeError := func(w http.ResponseWriter, status int, message string) {
		http.Error(w, message, status)
	}
	handler := RequireRole(writeError, models.AdminRoleSuperAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(models.WithPrincipal(req.Context(), &models.Principal{AdminId: "a", Role: models.AdminRoleAdmin}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for admin role, got %d", rec.Code)
	}
}
