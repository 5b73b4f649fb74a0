package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type unitOfWork struct {
	tx pgx.Tx
}

// WithinUnitOfWork runs fn inside a READ COMMITTED transaction. Balance
// updates take row locks, so concurrent movements on one account queue
// behind each other until commit.
func (s *Service) WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			zap.L().Warn("Failed to roll back transaction", zap.Error(err))
		}
	}()

	if err := fn(ctx, &unitOfWork{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapLockError(err))
	}
	return nil
}

func (u *unitOfWork) AccountByUserName(ctx context.Context, userName string) (*models.Account, error) {
	account, err := scanAccount(u.tx.QueryRow(ctx, queryGetActiveAccountByUserName, userName))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: account %s", store.ErrNotFound, userName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by user name: %w", err)
	}
	return account, nil
}

func (u *unitOfWork) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := scanAccount(u.tx.QueryRow(ctx, queryGetActiveAccountByEmail, strings.ToLower(strings.TrimSpace(email))))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: account with email %s", store.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

func (u *unitOfWork) AdjustBalance(ctx context.Context, accountId string, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	var after decimal.Decimal
	err := u.tx.QueryRow(ctx, queryAdjustBalance, delta, now(), accountId).Scan(&after)
	if isNoRows(err) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: account %s", store.ErrNotFound, accountId)
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to update balance: %w", mapLockError(err))
	}

	before := after.Sub(delta)
	zap.L().Debug("Balance adjusted",
		zap.String("account_id", accountId),
		zap.String("delta", delta.String()),
		zap.String("old_balance", before.String()),
		zap.String("new_balance", after.String()))

	return before, after, nil
}

func (u *unitOfWork) InsertTransaction(ctx context.Context, params store.InsertTransactionParams) (*models.Transaction, error) {
	createdAt := now()
	transaction := &models.Transaction{
		Id:                    ulid.Make().String(),
		Type:                  params.Type,
		SenderId:              params.SenderId,
		ReceiverId:            params.ReceiverId,
		Amount:                params.Amount,
		Description:           params.Description,
		BalanceBefore:         params.BalanceBefore,
		BalanceAfter:          params.BalanceAfter,
		ReceiverBalanceBefore: params.ReceiverBalanceBefore,
		ReceiverBalanceAfter:  params.ReceiverBalanceAfter,
		Status:                params.Status,
		PaymentReference:      params.PaymentReference,
		ProviderReference:     params.ProviderReference,
		Details:               params.Details,
		CreatedAt:             createdAt,
		UpdatedAt:             createdAt,
	}

	_, err := u.tx.Exec(ctx, queryInsertTransaction,
		transaction.Id, transaction.Type, transaction.SenderId, nullString(transaction.ReceiverId),
		transaction.Amount, transaction.Description, transaction.BalanceBefore, transaction.BalanceAfter,
		transaction.ReceiverBalanceBefore, transaction.ReceiverBalanceAfter,
		transaction.Status, nullString(transaction.PaymentReference), nullString(transaction.ProviderReference),
		nullJSON(transaction.Details), createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: payment_reference %s already exists", store.ErrDuplicateTransaction, params.PaymentReference)
		}
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return transaction, nil
}

func (u *unitOfWork) TransactionByReference(ctx context.Context, paymentReference string) (*models.Transaction, error) {
	transaction, err := scanTransaction(u.tx.QueryRow(ctx, queryGetTransactionByReference, paymentReference))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: transaction with reference %s", store.ErrNotFound, paymentReference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate transaction: %w", err)
	}
	return transaction, nil
}

func (u *unitOfWork) EnqueueOutbox(ctx context.Context, params store.OutboxParams) error {
	_, err := u.tx.Exec(ctx, queryInsertOutbox, ulid.Make().String(), params.Kind, params.TransactionId, params.Payload, now())
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}
	return nil
}

func (s *Service) GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error) {
	transaction, err := scanTransaction(s.pool.QueryRow(ctx, queryGetTransactionById, transactionId))
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: transaction %s", store.ErrNotFound, transactionId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return transaction, nil
}

func (s *Service) GetAccountTransactions(ctx context.Context, accountId string, query models.TransactionQuery) ([]models.Transaction, int, error) {
	page, limit := store.NormalizeQuery(query.Page, query.Limit)

	var total int
	if err := s.pool.QueryRow(ctx, queryCountAccountTransactions, accountId, query.Type).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transaction history: %w", err)
	}

	transactions, err := s.queryTransactions(ctx, queryGetAccountTransactions, accountId, query.Type, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func (s *Service) ListTransactions(ctx context.Context, query models.TransactionQuery) ([]models.Transaction, int, error) {
	page, limit := store.NormalizeQuery(query.Page, query.Limit)

	var total int
	if err := s.pool.QueryRow(ctx, queryCountTransactions, query.Type, query.Status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	transactions, err := s.queryTransactions(ctx, queryListTransactions, query.Type, query.Status, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// UpdateTransactionStatus never touches balances.
func (s *Service) UpdateTransactionStatus(ctx context.Context, transactionId, status string) (*models.Transaction, error) {
	tag, err := s.pool.Exec(ctx, queryUpdateTransactionStatus, status, now(), transactionId)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: transaction %s", store.ErrNotFound, transactionId)
	}

	zap.L().Info("Transaction status corrected",
		zap.String("transaction_id", transactionId),
		zap.String("status", status))
	return s.GetTransaction(ctx, transactionId)
}

func (s *Service) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

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
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(&account.Id, &account.UserName, &account.Email, &account.FirstName, &account.LastName,
		&account.Balance, &account.Version, &account.Active, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	var receiverId, paymentRef, providerRef *string
	var receiverBefore, receiverAfter decimal.NullDecimal
	var details []byte

	err := row.Scan(&tx.Id, &tx.Type, &tx.SenderId, &receiverId, &tx.Amount, &tx.Description,
		&tx.BalanceBefore, &tx.BalanceAfter, &receiverBefore, &receiverAfter, &tx.Status,
		&paymentRef, &providerRef, &details, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}

	tx.ReceiverId = deref(receiverId)
	tx.PaymentReference = deref(paymentRef)
	tx.ProviderReference = deref(providerRef)
	if len(details) > 0 {
		tx.Details = details
	}
	if receiverBefore.Valid {
		tx.ReceiverBalanceBefore = &receiverBefore.Decimal
	}
	if receiverAfter.Valid {
		tx.ReceiverBalanceAfter = &receiverAfter.Decimal
	}
	return &tx, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
