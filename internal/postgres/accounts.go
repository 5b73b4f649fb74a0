package postgres

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) CreateAccount(ctx context.Context, params models.CreateAccountRequest) (*models.Account, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	zap.L().Info("Creating account", zap.String("user_name", params.UserName), zap.String("email", email))

	accountId := newId()
	_, err := s.pool.Exec(ctx, queryInsertAccount, accountId, params.UserName, email, params.FirstName, params.LastName, now())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: account with user name %s or email %s", store.ErrConflict, params.UserName, email)
		}
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
	account, err := scanAccount(s.pool.QueryRow(ctx, query, key))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: account %s", store.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query account: %w", err)
	}
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context, query models.AccountQuery) ([]models.Account, int, error) {
	page, limit := store.NormalizeQuery(query.Page, query.Limit)
	pattern := "%" + query.Search + "%"

	var total int
	if err := s.pool.QueryRow(ctx, queryCountAccounts, query.Search, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("unable to count accounts: %w", err)
	}

	rows, err := s.pool.Query(ctx, queryListAccounts, query.Search, pattern, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("unable to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0, limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("unable to scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, total, nil
}

func (s *Service) SetAccountActive(ctx context.Context, accountId string, active bool) (*models.Account, error) {
	tag, err := s.pool.Exec(ctx, querySetAccountActive, active, now(), accountId)
	if err != nil {
		return nil, fmt.Errorf("unable to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: account %s", store.ErrNotFound, accountId)
	}

	zap.L().Info("Account state changed", zap.String("account_id", accountId), zap.Bool("active", active))
	return s.GetAccountById(ctx, accountId)
}

// ReconcileAccount recomputes the balance from successful transactions
func (s *Service) ReconcileAccount(ctx context.Context, accountId string) (*models.Reconciliation, error) {
	account, err := s.GetAccountById(ctx, accountId)
	if err != nil {
		return nil, err
	}

	transactions, err := s.queryTransactions(ctx, queryReconcileTransactions, accountId)
	if err != nil {
		return nil, err
	}

	computed := decimal.Zero
	for _, tx := range transactions {
		computed = computed.Add(store.AccountDelta(tx, accountId))
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
			zap.String("calculated_balance", computed.String()))
	}
	return result, nil
}

func (s *Service) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{ByType: map[string]models.TypeStats{}}

	if err := s.pool.QueryRow(ctx, queryCountAccountsByState).Scan(&stats.TotalUsers, &stats.ActiveUsers); err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	rows, err := s.pool.Query(ctx, queryCountTransactionsByStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transaction count: %w", err)
		}
		stats.TotalTransactions += count
		switch status {
		case models.TransactionStatusPending:
			stats.PendingCount = count
		case models.TransactionStatusFailed:
			stats.FailedCount = count
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction counts: %w", err)
	}

	rows, err = s.pool.Query(ctx, querySuccessfulVolumeByType)
	if err != nil {
		return nil, fmt.Errorf("failed to sum transaction volume: %w", err)
	}
	for rows.Next() {
		var txType string
		var entry models.TypeStats
		if err := rows.Scan(&txType, &entry.Count, &entry.Volume); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transaction volume: %w", err)
		}
		stats.ByType[txType] = entry
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction volume: %w", err)
	}

	if err := s.pool.QueryRow(ctx, queryTotalBalance).Scan(&stats.TotalBalance); err != nil {
		return nil, fmt.Errorf("failed to sum balances: %w", err)
	}

	stats.RecentActivity, err = s.queryTransactions(ctx, queryRecentTransactions, 5)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
