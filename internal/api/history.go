package api

import (
	"context"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

// GetUserTransactions returns a page of transactions where the account is
// sender or receiver, newest first
func (s *LedgerService) GetUserTransactions(ctx context.Context, userId string, query models.TransactionQuery) (*models.TransactionPage, error) {
	if userId == "" {
		return nil, validationError("User id is required")
	}
	if query.Type != "" && !store.IsValidTransactionType(query.Type) {
		return nil, validationError(MsgInvalidTransactionType)
	}
	query.Page, query.Limit = store.NormalizeQuery(query.Page, query.Limit)

	if _, err := s.store.GetAccountById(ctx, userId); err != nil {
		return nil, classify(err, MsgUserNotFound)
	}

	transactions, total, err := s.store.GetAccountTransactions(ctx, userId, query)
	if err != nil {
		zap.L().Error("Failed to get transaction history", zap.String("user_id", userId), zap.Error(err))
		return nil, classify(err, MsgUserNotFound)
	}

	return &models.TransactionPage{
		Transactions: transactions,
		Pagination:   models.NewPagination(query.Page, query.Limit, total),
	}, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error) {
	transaction, err := s.store.GetTransaction(ctx, transactionId)
	if err != nil {
		return nil, classify(err, MsgTransactionNotFound)
	}
	return transaction, nil
}

// ListTransactions returns a page of all transactions filtered by type and status
func (s *LedgerService) ListTransactions(ctx context.Context, query models.TransactionQuery) (*models.TransactionPage, error) {
	if query.Type != "" && !store.IsValidTransactionType(query.Type) {
		return nil, validationError(MsgInvalidTransactionType)
	}
	if query.Status != "" && !store.IsValidTransactionStatus(query.Status) {
		return nil, validationError(MsgInvalidStatus)
	}
	query.Page, query.Limit = store.NormalizeQuery(query.Page, query.Limit)

	transactions, total, err := s.store.ListTransactions(ctx, query)
	if err != nil {
		zap.L().Error("Failed to list transactions", zap.Error(err))
		return nil, classify(err, MsgTransactionNotFound)
	}

	return &models.TransactionPage{
		Transactions: transactions,
		Pagination:   models.NewPagination(query.Page, query.Limit, total),
	}, nil
}

// UpdateTransactionStatus corrects the status of a recorded transaction.
// Balances are never touched by a status change.
func (s *LedgerService) UpdateTransactionStatus(ctx context.Context, transactionId string, req models.StatusUpdateRequest) (*models.Transaction, error) {
	if !store.IsValidTransactionStatus(req.Status) {
		return nil, validationError(MsgInvalidStatus)
	}

	transaction, err := s.store.UpdateTransactionStatus(ctx, transactionId, req.Status)
	if err != nil {
		return nil, classify(err, MsgTransactionNotFound)
	}

	principal := models.GetPrincipal(ctx)
	adminId := ""
	if principal != nil {
		adminId = principal.AdminId
	}
	zap.L().Warn("Transaction status corrected",
		zap.String("transaction_id", transactionId),
		zap.String("status", req.Status),
		zap.String("reason", req.Reason),
		zap.String("admin_id", adminId))

	return transaction, nil
}

func (s *LedgerService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.store.GetDashboardStats(ctx)
	if err != nil {
		zap.L().Error("Failed to build dashboard stats", zap.Error(err))
		return nil, classify(err, MsgInternal)
	}
	return stats, nil
}
