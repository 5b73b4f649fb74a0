package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/jackc/pgx/v5"
)

func (s *Service) CreateAdmin(ctx context.Context, admin models.Admin) (*models.Admin, error) {
	permissions, err := json.Marshal(admin.Permissions)
	if err != nil {
		return nil, fmt.Errorf("unable to encode permissions: %w", err)
	}

	admin.Id = newId()
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	if admin.Status == "" {
		admin.Status = models.AdminStatusActive
	}

	_, err = s.pool.Exec(ctx, queryInsertAdmin, admin.Id, admin.Email, admin.FirstName, admin.LastName,
		admin.PasswordHash, admin.Role, admin.Status, string(permissions), now())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: admin with email %s", store.ErrConflict, admin.Email)
		}
		return nil, fmt.Errorf("unable to insert admin: %w", err)
	}
	return s.GetAdminById(ctx, admin.Id)
}

func (s *Service) GetAdminById(ctx context.Context, adminId string) (*models.Admin, error) {
	return s.getAdmin(ctx, queryGetAdminById, adminId)
}

func (s *Service) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return s.getAdmin(ctx, queryGetAdminByEmail, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) getAdmin(ctx context.Context, query, key string) (*models.Admin, error) {
	admin, err := scanAdmin(s.pool.QueryRow(ctx, query, key))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: admin %s", store.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query admin: %w", err)
	}
	return admin, nil
}

func (s *Service) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	rows, err := s.pool.Query(ctx, queryListAdmins)
	if err != nil {
		return nil, fmt.Errorf("unable to query admins: %w", err)
	}
	defer rows.Close()

	admins := []models.Admin{}
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan admin row: %w", err)
		}
		admins = append(admins, *admin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin rows: %w", err)
	}
	return admins, nil
}

func (s *Service) UpdateAdminStatus(ctx context.Context, adminId, status string) (*models.Admin, error) {
	tag, err := s.pool.Exec(ctx, queryUpdateAdminStatus, status, now(), adminId)
	if err != nil {
		return nil, fmt.Errorf("unable to update admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: admin %s", store.ErrNotFound, adminId)
	}
	return s.GetAdminById(ctx, adminId)
}

func (s *Service) RecordAdminLogin(ctx context.Context, adminId string, at time.Time) error {
	if _, err := s.pool.Exec(ctx, queryRecordAdminLogin, at.UTC(), adminId); err != nil {
		return fmt.Errorf("unable to record admin login: %w", err)
	}
	return nil
}

func scanAdmin(row pgx.Row) (*models.Admin, error) {
	var admin models.Admin
	var permissions []byte
	err := row.Scan(&admin.Id, &admin.Email, &admin.FirstName, &admin.LastName, &admin.PasswordHash,
		&admin.Role, &admin.Status, &permissions, &admin.LastLogin, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(permissions, &admin.Permissions); err != nil {
		return nil, fmt.Errorf("unable to decode permissions: %w", err)
	}
	return &admin, nil
}
