package api

import (
	"context"
	"strings"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

// Withdraw debits an account. The balance check uses the balance read inside
// the unit of work and the adjusted balance is re-verified before commit.
func (s *LedgerService) Withdraw(ctx context.Context, req models.WithdrawRequest) (*models.MovementResult, error) {
	start := time.Now()

	userName := strings.TrimSpace(req.UserName)
	if userName == "" || strings.TrimSpace(req.Description) == "" || !req.Amount.IsPositive() {
		err := validationError(MsgFieldsRequired)
		s.observe(models.TransactionTypeWithdrawal, err, start)
		return nil, err
	}
	if req.Amount.LessThan(s.movement.MinWithdrawal) {
		err := validationError("Minimum withdrawal amount is " + s.movement.MinWithdrawal.String())
		s.observe(models.TransactionTypeWithdrawal, err, start)
		return nil, err
	}

	zap.L().Info("Processing withdrawal",
		zap.String("user_name", userName),
		zap.String("amount", req.Amount.String()))

	var transaction *models.Transaction
	err := s.execute(ctx, models.TransactionTypeWithdrawal, func(ctx context.Context, uow store.UnitOfWork) error {
		account, err := findAccount(ctx, uow.AccountByUserName, userName, MsgUserNotFound)
		if err != nil {
			return err
		}
		if account.Balance.LessThan(req.Amount) {
			return newError(store.ErrInsufficientFunds, MsgInsufficientFunds)
		}

		before, after, err := uow.AdjustBalance(ctx, account.Id, req.Amount.Neg())
		if err != nil {
			return err
		}
		if after.IsNegative() {
			return newError(store.ErrInsufficientFunds, MsgInsufficientFunds)
		}

		transaction, err = uow.InsertTransaction(ctx, store.InsertTransactionParams{
			Type:          models.TransactionTypeWithdrawal,
			SenderId:      account.Id,
			Amount:        req.Amount,
			Description:   req.Description,
			BalanceBefore: before,
			BalanceAfter:  after,
			Status:        models.TransactionStatusSuccessful,
		})
		if err != nil {
			return err
		}

		return enqueueEffects(ctx, uow, transaction, party{account: account, balance: after})
	})
	if err != nil {
		err = classify(err, MsgUserNotFound)
		s.observe(models.TransactionTypeWithdrawal, err, start)
		logMovementFailure("Withdrawal failed", userName, req.Amount.String(), err)
		return nil, err
	}

	s.observe(models.TransactionTypeWithdrawal, nil, start)
	s.committed()

	zap.L().Info("Withdrawal processed successfully",
		zap.String("transaction_id", transaction.Id),
		zap.String("user_name", userName),
		zap.String("amount", req.Amount.String()),
		zap.String("new_balance", transaction.BalanceAfter.String()))

	return &models.MovementResult{Message: MsgWithdrawalSuccessful, Transaction: transaction}, nil
}
