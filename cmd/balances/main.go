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
	"flag"
	"fmt"

	"wallet-ledger-go/internal/common"
	"wallet-ledger-go/internal/config"
	"wallet-ledger-go/internal/formance"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceStats struct {
	totalAccounts int
	mismatches    int
	mirrorDrift   int
	totalBalance  decimal.Decimal
}

func accountState(account models.Account) string {
	if account.Active {
		return "active"
	}
	return "inactive"
}

func printAccount(account models.Account, reconciliation *models.Reconciliation, mirrored *decimal.Decimal) {
	fmt.Printf("\n┌─ Account: %s (%s) [%s]\n", account.UserName, account.Email, accountState(account))
	fmt.Printf("│  ID: %s\n", account.Id)
	common.PrintBoxSeparator(78)

	last := mirrored == nil
	fmt.Printf("%s %-12s: %20s\n", common.BoxPrefix(false), "Balance", common.FormatAmount(account.Balance))

	status := "OK"
	if !reconciliation.Matches {
		status = "MISMATCH (" + common.FormatAmount(account.Balance.Sub(reconciliation.Computed)) + ")"
	}
	fmt.Printf("%s %-12s: %20s %s\n", common.BoxPrefix(last), "Computed", common.FormatAmount(reconciliation.Computed), status)

	if mirrored != nil {
		status = "OK"
		if !mirrored.Equal(account.Balance) {
			status = "DRIFT"
		}
		fmt.Printf("%s %-12s: %20s %s\n", common.BoxPrefix(true), "Formance", common.FormatAmount(*mirrored), status)
	}
}

func processAccounts(ctx context.Context, accounts []models.Account, ledgerStore store.LedgerStore, mirror *formance.Service, logger *zap.Logger) balanceStats {
	stats := balanceStats{totalBalance: decimal.Zero}

	for _, account := range accounts {
		stats.totalAccounts++
		stats.totalBalance = stats.totalBalance.Add(account.Balance)

		reconciliation, err := ledgerStore.ReconcileAccount(ctx, account.Id)
		if err != nil {
			logger.Error("Failed to reconcile account",
				zap.String("account_id", account.Id),
				zap.String("user_name", account.UserName),
				zap.Error(err))
			continue
		}
		if !reconciliation.Matches {
			stats.mismatches++
		}

		var mirrored *decimal.Decimal
		if mirror != nil {
			balance, err := mirror.AccountBalance(ctx, account.Id)
			if err != nil {
				logger.Warn("Failed to read Formance balance",
					zap.String("account_id", account.Id),
					zap.Error(err))
			} else {
				mirrored = &balance
				if !balance.Equal(account.Balance) {
					stats.mirrorDrift++
				}
			}
		}

		printAccount(account, reconciliation, mirrored)
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	filterFlag := flag.String("user", "", "Filter by user name or email (optional)")
	formanceFlag := flag.Bool("formance", false, "Compare balances against the Formance mirror")
	flag.Parse()

	logger.Info("Starting balance reconciliation")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	backend, err := common.InitializeStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize ledger store", zap.Error(err))
	}
	defer backend.Close()

	var mirror *formance.Service
	if *formanceFlag {
		mirror, err = formance.NewService(ctx, cfg.Formance)
		if err != nil {
			logger.Fatal("Failed to initialize Formance client", zap.Error(err))
		}
		defer mirror.Close()
	}

	accounts, err := common.InitializeAccounts(ctx, backend, *filterFlag, logger)
	if err != nil {
		logger.Fatal("Failed to load accounts", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT BALANCE REPORT", common.DefaultWidth)

	stats := processAccounts(ctx, accounts, backend, mirror, logger)

	summary := fmt.Sprintf("SUMMARY: %d accounts, total balance %s, %d reconciliation mismatches",
		stats.totalAccounts, common.FormatAmount(stats.totalBalance), stats.mismatches)
	if mirror != nil {
		summary += fmt.Sprintf(", %d differ from Formance", stats.mirrorDrift)
	}
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance reconciliation completed",
		zap.Int("accounts", stats.totalAccounts),
		zap.Int("mismatches", stats.mismatches),
		zap.Int("mirror_drift", stats.mirrorDrift))
}
