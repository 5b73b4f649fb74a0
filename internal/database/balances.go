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
	"fmt"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconcileAccount verifies that the stored balance matches the sum of all
// successful transactions touching the account
func (s *Service) ReconcileAccount(ctx context.Context, accountId string) (*models.Reconciliation, error) {
	zap.L().Info("Reconciling balance", zap.String("account_id", accountId))

	account, err := s.GetAccountById(ctx, accountId)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, queryReconcileTransactions, accountId, accountId)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate balance from transactions: %w", err)
	}
	defer closeRows(rows)

	computed := decimal.Zero
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		computed = computed.Add(store.AccountDelta(*tx, accountId))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	result := &models.Reconciliation{
		AccountId: accountId,
		Balance:   account.Balance,
		Computed:  computed,
		Matches:   account.Balance.Equal(computed),
	}

	if !result.Matches {
		zap.L().Error("Balance reconciliation failed",
			zap.String("account_id", accountId),
			zap.String("current_balance", account.Balance.String()),
			zap.String("calculated_balance", computed.String()),
			zap.String("difference", account.Balance.Sub(computed).String()))
	} else {
		zap.L().Info("Balance reconciliation successful",
			zap.String("account_id", accountId),
			zap.String("balance", account.Balance.String()))
	}
	return result, nil
}

// GetDashboardStats aggregates account and transaction counts. Amounts are
// summed in Go because SQLite arithmetic on TEXT decimals is floating point.
func (s *Service) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		ByType:       map[string]models.TypeStats{},
		TotalBalance: decimal.Zero,
	}

	if err := s.db.QueryRowContext(ctx, queryCountAccountsByState).Scan(&stats.TotalUsers, &stats.ActiveUsers); err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}
	if err := s.countTransactionsByStatus(ctx, stats); err != nil {
		return nil, err
	}
	if err := s.sumSuccessfulVolume(ctx, stats); err != nil {
		return nil, err
	}
	if err := s.sumBalances(ctx, stats); err != nil {
		return nil, err
	}

	recent, err := s.queryTransactions(ctx, queryRecentTransactions, 5)
	if err != nil {
		return nil, err
	}
	stats.RecentActivity = recent

	return stats, nil
}

func (s *Service) countTransactionsByStatus(ctx context.Context, stats *models.DashboardStats) error {
	rows, err := s.db.QueryContext(ctx, queryCountTransactionsByStatus)
	if err != nil {
		return fmt.Errorf("failed to count transactions: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return fmt.Errorf("failed to scan transaction count: %w", err)
		}
		stats.TotalTransactions += count
		switch status {
		case models.TransactionStatusPending:
			stats.PendingCount = count
		case models.TransactionStatusFailed:
			stats.FailedCount = count
		}
	}
	return rows.Err()
}

func (s *Service) sumSuccessfulVolume(ctx context.Context, stats *models.DashboardStats) error {
	rows, err := s.db.QueryContext(ctx, querySuccessfulAmounts)
	if err != nil {
		return fmt.Errorf("failed to sum transaction volume: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var txType string
		var amount decimal.Decimal
		if err := rows.Scan(&txType, &amount); err != nil {
			return fmt.Errorf("failed to scan transaction amount: %w", err)
		}
		entry := stats.ByType[txType]
		entry.Count++
		entry.Volume = entry.Volume.Add(amount)
		stats.ByType[txType] = entry
	}
	return rows.Err()
}

func (s *Service) sumBalances(ctx context.Context, stats *models.DashboardStats) error {
	rows, err := s.db.QueryContext(ctx, queryGetAllBalances)
	if err != nil {
		return fmt.Errorf("failed to sum balances: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var balance decimal.Decimal
		if err := rows.Scan(&balance); err != nil {
			return fmt.Errorf("failed to scan balance: %w", err)
		}
		stats.TotalBalance = stats.TotalBalance.Add(balance)
	}
	return rows.Err()
}
