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
	"errors"
	"strings"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

// Deposit credits an account and records a deposit transaction
func (s *LedgerService) Deposit(ctx context.Context, req models.DepositRequest) (*models.MovementResult, error) {
	start := time.Now()

	// Validate input
	userName := strings.TrimSpace(req.UserName)
	if userName == "" || strings.TrimSpace(req.Description) == "" || !req.Amount.IsPositive() {
		err := validationError(MsgFieldsRequired)
		s.observe(models.TransactionTypeDeposit, err, start)
		return nil, err
	}

	zap.L().Info("Processing deposit",
		zap.String("user_name", userName),
		zap.String("amount", req.Amount.String()))

	var transaction *models.Transaction
	err := s.execute(ctx, models.TransactionTypeDeposit, func(ctx context.Context, uow store.UnitOfWork) error {
		account, err := findAccount(ctx, uow.AccountByUserName, userName, MsgUserNotFound)
		if err != nil {
			return err
		}

		before, after, err := uow.AdjustBalance(ctx, account.Id, req.Amount)
		if err != nil {
			return err
		}

		transaction, err = uow.InsertTransaction(ctx, store.InsertTransactionParams{
			Type:          models.TransactionTypeDeposit,
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
		s.observe(models.TransactionTypeDeposit, err, start)
		logMovementFailure("Deposit failed", userName, req.Amount.String(), err)
		return nil, err
	}

	s.observe(models.TransactionTypeDeposit, nil, start)
	s.committed()

	zap.L().Info("Deposit processed successfully",
		zap.String("transaction_id", transaction.Id),
		zap.String("user_name", userName),
		zap.String("amount", req.Amount.String()),
		zap.String("new_balance", transaction.BalanceAfter.String()))

	return &models.MovementResult{Message: MsgDepositSuccessful, Transaction: transaction}, nil
}

// findAccount resolves an account inside a unit of work and maps a miss to
// a NotFound error carrying message
func findAccount(ctx context.Context, lookup func(context.Context, string) (*models.Account, error), key, message string) (*models.Account, error) {
	account, err := lookup(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(store.ErrNotFound, message)
		}
		return nil, err
	}
	return account, nil
}

func logMovementFailure(msg, userName, amount string, err error) {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		zap.L().Info(msg,
			zap.String("user_name", userName),
			zap.String("amount", amount),
			zap.String("reason", engineErr.Message))
		return
	}
	zap.L().Error(msg,
		zap.String("user_name", userName),
		zap.String("amount", amount),
		zap.Error(err))
}
