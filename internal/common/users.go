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

package common

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

const accountPageSize = 100

// InitializeAccounts retrieves accounts based on an optional filter.
// A filter containing "@" is matched against email, anything else against
// the user name. An empty filter returns every account.
func InitializeAccounts(ctx context.Context, ledgerStore store.LedgerStore, filter string, logger *zap.Logger) ([]models.Account, error) {
	filter = strings.TrimSpace(filter)
	if filter != "" {
		logger.Info("Looking up account", zap.String("filter", filter))

		var account *models.Account
		var err error
		if strings.Contains(filter, "@") {
			account, err = ledgerStore.GetAccountByEmail(ctx, filter)
		} else {
			account, err = ledgerStore.GetAccountByUserName(ctx, filter)
		}
		if err != nil {
			return nil, fmt.Errorf("account not found: %w", err)
		}
		return []models.Account{*account}, nil
	}

	var accounts []models.Account
	for page := 1; ; page++ {
		batch, total, err := ledgerStore.ListAccounts(ctx, models.AccountQuery{Page: page, Limit: accountPageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to get accounts: %w", err)
		}
		accounts = append(accounts, batch...)
		if len(batch) == 0 || len(accounts) >= total {
			break
		}
	}

	logger.Info("Retrieved accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}
