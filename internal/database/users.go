/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) CreateAccount(ctx context.Context, params models.CreateAccountRequest) (*models.Account, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	zap.L().Info("Creating account", zap.String("user_name", params.UserName), zap.String("email", email))

	accountId := newId()
	ts := now()
	_, err := s.db.ExecContext(ctx, queryInsertAccount, accountId, params.UserName, email, params.FirstName, params.LastName, ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: account with user name %s or email %s", store.ErrConflict, params.UserName, email)
		}
		zap.L().Error("Failed to insert account", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to insert account: %w", err)
	}

	zap.L().Info("Account created successfully", zap.String("id", accountId), zap.String("user_name", params.UserName))
	return s.GetAccountById(ctx, accountId)
}

func (s *Service) GetAccountById(ctx context.Context, accountId string) (*models.Account, error) {
	return s.getAccount(ctx, queryGetAccountById, accountId)
}

func (s *Service) GetAccountByUserName(ctx context.Context, userName string) (*models.Account, error) {
	return s.getAccount(ctx, queryGetAccountByUserName, userName)
}

func (s *Service) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getAccount(ctx, queryGetAccountByEmail, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) getAccount(ctx context.Context, query, key string) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s", store.ErrNotFound, key)
		}
		zap.L().Error("Failed to query account", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("unable to query account: %w", err)
	}
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context, query models.AccountQuery) ([]models.Account, int, error) {
	page, limit := store.NormalizeQuery(query.Page, query.Limit)
	pattern := "%" + query.Search + "%"

	var total int
	err := s.db.QueryRowContext(ctx, queryCountAccounts, query.Search, pattern, pattern, pattern, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("unable to count accounts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryListAccounts, query.Search, pattern, pattern, pattern, pattern, limit, (page-1)*limit)
	if err != nil {
		zap.L().Error("Failed to query accounts", zap.Error(err))
		return nil, 0, fmt.Errorf("unable to query accounts: %w", err)
	}
	defer closeRows(rows)

	accounts := make([]models.Account, 0, limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("unable to scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during account row iteration", zap.Error(err))
		return nil, 0, fmt.Errorf("error iterating account rows: %w", err)
	}

	return accounts, total, nil
}

func (s *Service) SetAccountActive(ctx context.Context, accountId string, active bool) (*models.Account, error) {
	result, err := s.db.ExecContext(ctx, querySetAccountActive, active, now(), accountId)
	if err != nil {
		return nil, fmt.Errorf("unable to update account: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: account %s", store.ErrNotFound, accountId)
	}

	zap.L().Info("Account state changed", zap.String("account_id", accountId), zap.Bool("active", active))
	return s.GetAccountById(ctx, accountId)
}
