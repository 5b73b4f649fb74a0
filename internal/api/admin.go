package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"wallet-ledger-go/internal/auth"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

// AdminService manages administrative identities and sign-in
type AdminService struct {
	store  store.AdminStore
	tokens *auth.TokenManager
}

func NewAdminService(admins store.AdminStore, tokens *auth.TokenManager) *AdminService {
	return &AdminService{store: admins, tokens: tokens}
}

// SignIn verifies credentials, records the login and issues a bearer token
func (s *AdminService) SignIn(ctx context.Context, req models.SignInRequest) (*models.SignInResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, validationError("Email and password are required")
	}

	admin, err := s.store.GetAdminByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(store.ErrUnauthorized, MsgInvalidCredentials)
		}
		return nil, classify(err, MsgAdminNotFound)
	}
	if !auth.CheckPassword(admin.PasswordHash, req.Password) {
		zap.L().Warn("Admin sign-in rejected", zap.String("email", admin.Email))
		return nil, newError(store.ErrUnauthorized, MsgInvalidCredentials)
	}
	if admin.Status != models.AdminStatusActive {
		return nil, newError(store.ErrForbidden, MsgAccountInactive)
	}

	at := time.Now().UTC()
	if err := s.store.RecordAdminLogin(ctx, admin.Id, at); err != nil {
		zap.L().Warn("Failed to record admin login", zap.String("admin_id", admin.Id), zap.Error(err))
	} else {
		admin.LastLogin = &at
	}

	token, err := s.tokens.Issue(admin)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Admin signed in", zap.String("admin_id", admin.Id), zap.String("role", admin.Role))
	return &models.SignInResult{Token: token, Admin: admin}, nil
}

// CreateAdmin registers a new administrator with the default permissions
// of its role
func (s *AdminService) CreateAdmin(ctx context.Context, req models.CreateAdminRequest) (*models.Admin, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.FirstName) == "" {
		return nil, validationError(MsgFieldsRequired)
	}
	if req.Role == "" {
		req.Role = models.AdminRoleAdmin
	}
	if req.Role != models.AdminRoleAdmin && req.Role != models.AdminRoleSuperAdmin {
		return nil, validationError("Invalid role")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, validationError(err.Error())
	}

	admin, err := s.store.CreateAdmin(ctx, models.Admin{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       models.AdminStatusActive,
		Permissions:  models.DefaultPermissions(req.Role),
	})
	if err != nil {
		return nil, classify(err, MsgAdminNotFound)
	}
	return admin, nil
}

// Profile returns the admin behind the request principal
func (s *AdminService) Profile(ctx context.Context) (*models.Admin, error) {
	principal := models.GetPrincipal(ctx)
	if principal == nil {
		return nil, newError(store.ErrUnauthorized, "Access denied. No token provided")
	}

	admin, err := s.store.GetAdminById(ctx, principal.AdminId)
	if err != nil {
		return nil, classify(err, MsgAdminNotFound)
	}
	return admin, nil
}

func (s *AdminService) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return nil, classify(err, MsgAdminNotFound)
	}
	return admins, nil
}

// UpdateAdminStatus activates, suspends or deactivates another admin
func (s *AdminService) UpdateAdminStatus(ctx context.Context, adminId string, req models.StatusUpdateRequest) (*models.Admin, error) {
	switch req.Status {
	case models.AdminStatusActive, models.AdminStatusSuspended, models.AdminStatusInactive:
	default:
		return nil, validationError(MsgInvalidStatus)
	}
	if principal := models.GetPrincipal(ctx); principal != nil && principal.AdminId == adminId {
		return nil, validationError("Cannot change your own status")
	}

	admin, err := s.store.UpdateAdminStatus(ctx, adminId, req.Status)
	if err != nil {
		return nil, classify(err, MsgAdminNotFound)
	}

	zap.L().Info("Admin status changed",
		zap.String("admin_id", adminId),
		zap.String("status", req.Status),
		zap.String("reason", req.Reason))
	return admin, nil
}
