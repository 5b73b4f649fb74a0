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
package api

import (
	"context"
	"net/mail"
	"strings"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

// CreateAccount registers a wallet holder with a zero balance
func (s *LedgerService) CreateAccount(ctx context.Context, req models.CreateAccountRequest) (*models.Account, error) {
	req.UserName = strings.TrimSpace(req.UserName)
	req.Email = strings.TrimSpace(req.Email)
	if req.UserName == "" || req.Email == "" {
		return nil, validationError(MsgFieldsRequired)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, validationError("Invalid email address")
	}

	account, err := s.store.CreateAccount(ctx, req)
	if err != nil {
		zap.L().Warn("Failed to create account", zap.String("user_name", req.UserName), zap.Error(err))
		return nil, classify(err, MsgUserNotFound)
	}
	return account, nil
}

// GetAccount returns an account and its current balance
func (s *LedgerService) GetAccount(ctx context.Context, accountId string) (*models.Account, error) {
	if accountId == "" {
		return nil, validationError("User id is required")
	}

	account, err := s.store.GetAccountById(ctx, accountId)
	if err != nil {
		return nil, classify(err, MsgUserNotFound)
	}
	return account, nil
}

func (s *LedgerService) GetAccountByUserName(ctx context.Context, userName string) (*models.Account, error) {
	account, err := s.store.GetAccountByUserName(ctx, userName)
	if err != nil {
		return nil, classify(err, MsgUserNotFound)
	}
	return account, nil
}

// ListAccounts returns a page of accounts matching query.Search
func (s *LedgerService) ListAccounts(ctx context.Context, query models.AccountQuery) (*models.AccountPage, error) {
	query.Page, query.Limit = store.NormalizeQuery(query.Page, query.Limit)

	accounts, total, err := s.store.ListAccounts(ctx, query)
	if err != nil {
		zap.L().Error("Failed to list accounts", zap.Error(err))
		return nil, classify(err, MsgUserNotFound)
	}

	return &models.AccountPage{
		Users:      accounts,
		Pagination: models.NewPagination(query.Page, query.Limit, total),
	}, nil
}

// SetAccountActive activates or soft-deletes an account. Inactive accounts
// cannot take part in money movements.
func (s *LedgerService) SetAccountActive(ctx context.Context, accountId string, active bool) (*models.Account, error) {
	account, err := s.store.SetAccountActive(ctx, accountId, active)
	if err != nil {
		return nil, classify(err, MsgUserNotFound)
	}
	return account, nil
}

// ReconcileAccount recomputes a balance from the ledger and compares it with
// the stored value
func (s *LedgerService) ReconcileAccount(ctx context.Context, accountId string) (*models.Reconciliation, error) {
	result, err := s.store.ReconcileAccount(ctx, accountId)
	if err != nil {
		return nil, classify(err, MsgUserNotFound)
	}
	return result, nil
}
