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

	"go.uber.org/zap"
)

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

// splitName turns "Ada King Lovelace" into ("Ada", "King Lovelace")
func splitName(fullName string) (string, string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func createAccount(ctx context.Context, ledger *api.LedgerService, userName, fullName, email string) {
	firstName, lastName := splitName(fullName)

	zap.L().Info("Creating account",
		zap.String("user_name", userName),
		zap.String("email", email))

	account, err := ledger.CreateAccount(ctx, models.CreateAccountRequest{
		UserName:  userName,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			zap.L().Fatal("Account already exists with this user name or email",
				zap.String("user_name", userName),
				zap.String("email", email))
		}
		zap.L().Fatal("Failed to create account", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	common.PrintField("ID", account.Id)
	common.PrintField("User name", account.UserName)
	common.PrintField("Name", account.FullName())
	common.PrintField("Email", account.Email)
	common.PrintField("Balance", common.FormatAmount(account.Balance))
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Account created successfully", zap.String("id", account.Id))
}

func createAdmin(ctx context.Context, admins *api.AdminService, fullName, email, password, role string) {
	firstName, lastName := splitName(fullName)

	zap.L().Info("Creating admin",
		zap.String("email", email),
		zap.String("role", role))

	admin, err := admins.CreateAdmin(ctx, models.CreateAdminRequest{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			zap.L().Fatal("Admin already exists with this email", zap.String("email", email))
		}
		zap.L().Fatal("Failed to create admin", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("ADMIN CREATED", common.DefaultWidth)
	common.PrintField("ID", admin.Id)
	common.PrintField("Name", strings.TrimSpace(admin.FirstName+" "+admin.LastName))
	common.PrintField("Email", admin.Email)
	common.PrintField("Role", admin.Role)
	common.PrintField("Permissions", fmt.Sprintf("%+v", admin.Permissions))
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Admin created successfully", zap.String("id", admin.Id))
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	userNameFlag := flag.String("username", "", "Wallet user name (required for accounts)")
	nameFlag := flag.String("name", "", "Full name (required)")
	emailFlag := flag.String("email", "", "Email address (required)")
	adminFlag := flag.Bool("admin", false, "Create an administrator instead of a wallet account")
	roleFlag := flag.String("role", models.AdminRoleAdmin, "Admin role: admin or super-admin")
	passwordFlag := flag.String("password", "", "Admin password, at least 8 characters (required with --admin)")
	flag.Parse()

	if *nameFlag == "" || *emailFlag == "" {
		zap.L().Fatal("Both flags are required: --name and --email")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if *adminFlag && *passwordFlag == "" {
		zap.L().Fatal("--password is required with --admin")
	}
	if !*adminFlag && *userNameFlag == "" {
		zap.L().Fatal("--username is required for wallet accounts")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	// Only the store is needed; nothing is delivered from here
	backend, err := common.InitializeStore(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize ledger store", zap.Error(err))
	}
	defer backend.Close()

	if *adminFlag {
		createAdmin(ctx, api.NewAdminService(backend, nil), *nameFlag, *emailFlag, *passwordFlag, *roleFlag)
		return
	}
	createAccount(ctx, api.NewLedgerService(backend, cfg.Movement, cfg.Webhook), *userNameFlag, *nameFlag, *emailFlag)
}
