package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// unitOfWork binds every mutation to one SQLite transaction
type unitOfWork struct {
	tx *sql.Tx
}

// WithinUnitOfWork runs fn inside a single IMMEDIATE transaction and commits
// only if fn returns nil.
func (s *Service) WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to roll back transaction", zap.Error(err))
		}
	}()

	if err := fn(ctx, &unitOfWork{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (u *unitOfWork) AccountByUserName(ctx context.Context, userName string) (*models.Account, error) {
	account, err := scanAccount(u.tx.QueryRowContext(ctx, queryGetActiveAccountByUserName, userName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", store.ErrNotFound, userName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by user name: %w", err)
	}
	return account, nil
}

func (u *unitOfWork) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := scanAccount(u.tx.QueryRowContext(ctx, queryGetActiveAccountByEmail, strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account with email %s", store.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

// AdjustBalance applies delta with an optimistic version check
func (u *unitOfWork) AdjustBalance(ctx context.Context, accountId string, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	var before decimal.Decimal
	var version int64

	err := u.tx.QueryRowContext(ctx, queryGetAccountBalance, accountId).Scan(&before, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: account %s", store.ErrNotFound, accountId)
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to get current balance: %w", err)
	}

	after := before.Add(delta)

	result, err := u.tx.ExecContext(ctx, queryUpdateAccountBalance, after.String(), now(), accountId, version)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

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

	_, err := u.tx.ExecContext(ctx, queryInsertTransaction,
		transaction.Id, transaction.Type, transaction.SenderId, nullString(transaction.ReceiverId),
		transaction.Amount.String(), transaction.Description,
		transaction.BalanceBefore.String(), transaction.BalanceAfter.String(),
		nullDecimal(transaction.ReceiverBalanceBefore), nullDecimal(transaction.ReceiverBalanceAfter),
		transaction.Status, nullString(transaction.PaymentReference), nullString(transaction.ProviderReference),
		nullBytes(transaction.Details), createdAt, createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: payment_reference %s already exists", store.ErrDuplicateTransaction, params.PaymentReference)
		}
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return transaction, nil
}

func (u *unitOfWork) TransactionByReference(ctx context.Context, paymentReference string) (*models.Transaction, error) {
	transaction, err := scanTransaction(u.tx.QueryRowContext(ctx, queryGetTransactionByReference, paymentReference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction with reference %s", store.ErrNotFound, paymentReference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate transaction: %w", err)
	}
	return transaction, nil
}

func (u *unitOfWork) EnqueueOutbox(ctx context.Context, params store.OutboxParams) error {
	ts := now().UnixMilli()
	_, err := u.tx.ExecContext(ctx, queryInsertOutbox,
		ulid.Make().String(), params.Kind, params.TransactionId, string(params.Payload), ts, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}
	return nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	err := row.Scan(&account.Id, &account.UserName, &account.Email, &account.FirstName, &account.LastName,
		&account.Balance, &account.Version, &account.Active, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var receiverId, paymentRef, providerRef, details sql.NullString
	var receiverBefore, receiverAfter decimal.NullDecimal

	err := row.Scan(&tx.Id, &tx.Type, &tx.SenderId, &receiverId, &tx.Amount, &tx.Description,
		&tx.BalanceBefore, &tx.BalanceAfter, &receiverBefore, &receiverAfter, &tx.Status,
		&paymentRef, &providerRef, &details, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}

	tx.ReceiverId = receiverId.String
	tx.PaymentReference = paymentRef.String
	tx.ProviderReference = providerRef.String
	if details.Valid && details.String != "" {
		tx.Details = []byte(details.String)
	}
	if receiverBefore.Valid {
		tx.ReceiverBalanceBefore = &receiverBefore.Decimal
	}
	if receiverAfter.Valid {
		tx.ReceiverBalanceAfter = &receiverAfter.Decimal
	}
	return &tx, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) sql.NullString {
	return sql.NullString{String: string(b), Valid: len(b) > 0}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
