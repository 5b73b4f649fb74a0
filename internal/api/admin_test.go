package api

import (
	"context"
	"testing"
	"time"

	"wallet-ledger-go/internal/auth"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"
)

func setupAdminService(t *testing.T) (*AdminService, *auth.TokenManager, func()) {
	t.Helper()

	db, cleanup := setupTestDb(t)
	tokens, err := auth.NewTokenManager(models.AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	return NewAdminService(db, tokens), tokens, cleanup
}

func TestAdminSignIn(t *testing.T) {
	svc, tokens, cleanup := setupAdminService(t)
	defer cleanup()
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, models.CreateAdminRequest{
		Email:     "ops@example.com",
		Password:  "s3cret-pass",
		FirstName: "Ops",
		Role:      models.AdminRoleSuperAdmin,
	})
	if err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}
	if admin.PasswordHash == "s3cret-pass" {
		t.Fatal("Password stored in clear text")
	}

	result, err := svc.SignIn(ctx, models.SignInRequest{Email: "ops@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if result.Admin.LastLogin == nil {
		t.Error("Expected last login to be recorded")
	}
	principal, err := tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("Issued token does not verify: %v", err)
	}
	if principal.AdminId != admin.Id || !principal.IsSuperAdmin() {
		t.Errorf("Unexpected principal %+v", principal)
	}

	_, err = svc.SignIn(ctx, models.SignInRequest{Email: "ops@example.com", Password: "wrong-pass"})
	expectKind(t, err, store.ErrUnauthorized)

	_, err = svc.SignIn(ctx, models.SignInRequest{Email: "ghost@example.com", Password: "s3cret-pass"})
	expectKind(t, err, store.ErrUnauthorized)
}

func TestAdminStatus(t *testing.T) {
	svc, _, cleanup := setupAdminService(t)
	defer cleanup()
	ctx := context.Background()

	root, err := svc.CreateAdmin(ctx, models.CreateAdminRequest{Email: "root@example.com", Password: "rootpass1", FirstName: "Root", Role: models.AdminRoleSuperAdmin})
	if err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}
	staff, err := svc.CreateAdmin(ctx, models.CreateAdminRequest{Email: "staff@example.com", Password: "staffpass", FirstName: "Staff"})
	if err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}
	if staff.Role != models.AdminRoleAdmin || staff.Permissions.ManageAdmins {
		t.Errorf("Expected default admin role without admin management, got %+v", staff)
	}

	_, err = svc.CreateAdmin(ctx, models.CreateAdminRequest{Email: "staff@example.com", Password: "staffpass", FirstName: "Dup"})
	expectKind(t, err, store.ErrConflict)

	rootCtx := models.WithPrincipal(ctx, &models.Principal{AdminId: root.Id, Role: root.Role})
	_, err = svc.UpdateAdminStatus(rootCtx, root.Id, models.StatusUpdateRequest{Status: models.AdminStatusSuspended})
	expectKind(t, err, store.ErrValidation)

	if _, err := svc.UpdateAdminStatus(rootCtx, staff.Id, models.StatusUpdateRequest{Status: models.AdminStatusSuspended}); err != nil {
		t.Fatalf("UpdateAdminStatus failed: %v", err)
	}
	_, err = svc.SignIn(ctx, models.SignInRequest{Email: "staff@example.com", Password: "staffpass"})
	expectKind(t, err, store.ErrForbidden)

	profile, err := svc.Profile(rootCtx)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.Email != "root@example.com" {
		t.Errorf("Unexpected profile %+v", profile)
	}

	admins, err := svc.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins failed: %v", err)
	}
	if len(admins) != 2 {
		t.Errorf("Expected 2 admins, got %d", len(admins))
	}
}
