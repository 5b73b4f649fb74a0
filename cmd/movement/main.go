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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"wallet-ledger-go/internal/api"
	"wallet-ledger-go/internal/common"
	"wallet-ledger-go/internal/config"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type movementRequest struct {
	kind        string
	user        string
	to          string
	amount      decimal.Decimal
	description string
}

func parseAndValidateFlags() (*movementRequest, error) {
	typeFlag := flag.String("type", "", "Movement type: deposit, withdrawal or transfer (required)")
	userFlag := flag.String("user", "", "User name of the account to credit or debit (required)")
	toFlag := flag.String("to", "", "Receiving user name (required for transfer)")
	amountFlag := flag.String("amount", "", "Amount (required)")
	descriptionFlag := flag.String("description", "", "Description (required)")
	flag.Parse()

	if *typeFlag == "" || *userFlag == "" || *amountFlag == "" || *descriptionFlag == "" {
		return nil, fmt.Errorf("flags are required: --type, --user, --amount, --description")
	}

	kind := strings.ToLower(*typeFlag)
	if !store.IsValidTransactionType(kind) {
		return nil, fmt.Errorf("invalid movement type: %s", *typeFlag)
	}
	if kind == models.TransactionTypeTransfer && *toFlag == "" {
		return nil, fmt.Errorf("--to is required for transfers")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return &movementRequest{
		kind:        kind,
		user:        *userFlag,
		to:          *toFlag,
		amount:      amount,
		description: *descriptionFlag,
	}, nil
}

func execute(ctx context.Context, ledger *api.LedgerService, req *movementRequest) (*models.MovementResult, error) {
	switch req.kind {
	case models.TransactionTypeDeposit:
		return ledger.Deposit(ctx, models.DepositRequest{UserName: req.user, Amount: req.amount, Description: req.description})
	case models.TransactionTypeWithdrawal:
		return ledger.Withdraw(ctx, models.WithdrawRequest{UserName: req.user, Amount: req.amount, Description: req.description})
	default:
		return ledger.Transfer(ctx, models.TransferRequest{
			SenderUserName:   req.user,
			ReceiverUserName: req.to,
			Amount:           req.amount,
			Description:      req.description,
		})
	}
}

func printResult(result *models.MovementResult) {
	tx := result.Transaction

	fmt.Println()
	common.PrintHeader(strings.ToUpper(result.Message), common.DefaultWidth)
	common.PrintField("Transaction ID", tx.Id)
	common.PrintField("Type", tx.Type)
	common.PrintField("Amount", common.FormatAmount(tx.Amount))
	common.PrintField("Balance", common.FormatAmount(tx.BalanceBefore)+" -> "+common.FormatAmount(tx.BalanceAfter))
	if tx.ReceiverBalanceAfter != nil && tx.ReceiverBalanceBefore != nil {
		common.PrintField("Receiver", common.FormatAmount(*tx.ReceiverBalanceBefore)+" -> "+common.FormatAmount(*tx.ReceiverBalanceAfter))
	}
	common.PrintField("Status", tx.Status)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid arguments", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	backend, err := common.InitializeStore(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize ledger store", zap.Error(err))
	}
	defer backend.Close()

	// Notifications and events are queued in the outbox and delivered by
	// the server's listener.
	ledger := api.NewLedgerService(backend, cfg.Movement, cfg.Webhook)

	zap.L().Info("Executing movement",
		zap.String("type", req.kind),
		zap.String("user", req.user),
		zap.String("amount", req.amount.String()))

	result, err := execute(ctx, ledger, req)
	if err != nil {
		var engineErr *api.Error
		if errors.As(err, &engineErr) {
			fmt.Printf("\n✗ %s\n\n", engineErr.Message)
			zap.L().Fatal("Movement rejected", zap.Error(err))
		}
		zap.L().Fatal("Movement failed", zap.Error(err))
	}

	printResult(result)
	zap.L().Info("Movement completed", zap.String("transaction_id", result.Transaction.Id))
}
