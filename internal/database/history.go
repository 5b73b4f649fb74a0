package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *Service) GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error) {
	transaction, err := scanTransaction(s.db.QueryRowContext(ctx, queryGetTransactionById, transactionId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", store.ErrNotFound, transactionId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return transaction, nil
}

// GetAccountTransactions returns a page of transactions where the account is
// sender or receiver, newest first
func (s *Service) GetAccountTransactions(ctx context.Context, accountId string, query models.TransactionQuery) ([]models.Transaction, int, error) {
	page, limit := store.NormalizeQuery(query.Page, query.Limit)

	zap.L().Debug("Getting transaction history",
		zap.String("account_id", accountId),
		zap.String("type", query.Type),
		zap.Int("page", page),
		zap.Int("limit", limit))

	var total int
	err := s.db.QueryRowContext(ctx, queryCountAccountTransactions, accountId, accountId, query.Type, query.Type).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transaction history: %w", err)
	}

	transactions, err := s.queryTransactions(ctx, queryGetAccountTransactions,
		accountId, accountId, query.Type, query.Type, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func (s *Service) ListTransactions(ctx context.Context, query models.TransactionQuery) ([]models.Transaction, int, error) {
	page, limit := store.NormalizeQuery(query.Page, query.Limit)

	var total int
	err := s.db.QueryRowContext(ctx, queryCountTransactions, query.Type, query.Type, query.Status, query.Status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	transactions, err := s.queryTransactions(ctx, queryListTransactions,
		query.Type, query.Type, query.Status, query.Status, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// UpdateTransactionStatus is the administrative status-correction path. It
// never touches balances.
func (s *Service) UpdateTransactionStatus(ctx context.Context, transactionId, status string) (*models.Transaction, error) {
	result, err := s.db.ExecContext(ctx, queryUpdateTransactionStatus, status, now(), transactionId)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: transaction %s", store.ErrNotFound, transactionId)
	}

	zap.L().Info("Transaction status corrected",
		zap.String("transaction_id", transactionId),
		zap.String("status", status))
	return s.GetTransaction(ctx, transactionId)
}

func (s *Service) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer closeRows(rows)

	transactions := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}
