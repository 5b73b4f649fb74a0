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

package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DepositRequest is the body of POST /deposit
type DepositRequest struct {
	UserName    string          `json:"userName"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// WithdrawRequest is the body of POST /withdraw
type WithdrawRequest struct {
	UserName    string          `json:"userName"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// TransferRequest is the body of POST /transfer
type TransferRequest struct {
	SenderUserName   string          `json:"senderUserName"`
	ReceiverUserName string          `json:"receiverUserName"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description"`
}

// MovementResult is returned by every successful money movement
type MovementResult struct {
	Message     string       `json:"message"`
	Transaction *Transaction `json:"transaction"`
}

// WebhookCustomer identifies the payer of an external payment
type WebhookCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// WebhookData is the provider's description of a payment
type WebhookData struct {
	Id        json.Number     `json:"id,omitempty"`
	TxRef     string          `json:"tx_ref"`
	FlwRef    string          `json:"flw_ref,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency,omitempty"`
	Narration string          `json:"narration,omitempty"`
	Status    string          `json:"status,omitempty"`
	Customer  WebhookCustomer `json:"customer"`
}

// WebhookEvent is the body of POST /webhook
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Webhook outcomes
const (
	WebhookOutcomeProcessed = "processed"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeIgnored   = "ignored"
)

// WebhookResult describes how an accepted webhook delivery was handled
type WebhookResult struct {
	Outcome     string       `json:"outcome"`
	Message     string       `json:"message"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// TransactionQuery filters a paginated transaction listing
type TransactionQuery struct {
	Page   int
	Limit  int
	Type   string
	Status string
}

// Pagination describes a page of results
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// NewPagination computes page counts for a result set.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{CurrentPage: page, TotalPages: pages, TotalItems: total, ItemsPerPage: limit}
}

// TransactionPage is a page of transactions
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Pagination   Pagination    `json:"pagination"`
}

// AccountQuery filters a paginated account listing
type AccountQuery struct {
	Page   int
	Limit  int
	Search string
}

// AccountPage is a page of accounts
type AccountPage struct {
	Users      []Account  `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// TypeStats aggregates successful transactions of one type
type TypeStats struct {
	Count  int             `json:"count"`
	Volume decimal.Decimal `json:"volume"`
}

// DashboardStats is the administrative overview
type DashboardStats struct {
	TotalUsers        int                  `json:"totalUsers"`
	ActiveUsers       int                  `json:"activeUsers"`
	TotalTransactions int                  `json:"totalTransactions"`
	PendingCount      int                  `json:"pendingTransactions"`
	FailedCount       int                  `json:"failedTransactions"`
	ByType            map[string]TypeStats `json:"byType"`
	TotalBalance      decimal.Decimal      `json:"totalBalance"`
	RecentActivity    []Transaction        `json:"recentTransactions"`
}

// Reconciliation compares a stored balance with the one implied by the ledger
type Reconciliation struct {
	AccountId string          `json:"accountId"`
	Balance   decimal.Decimal `json:"balance"`
	Computed  decimal.Decimal `json:"computed"`
	Matches   bool            `json:"matches"`
}

// SignInRequest is the body of POST /api/admin/signin
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResult carries an issued admin token
type SignInResult struct {
	Token string `json:"token"`
	Admin *Admin `json:"admin"`
}

// CreateAdminRequest is the body of POST /api/admin/create
type CreateAdminRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// StatusUpdateRequest is the body of the status-correction endpoints
type StatusUpdateRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// CreateAccountRequest registers a wallet holder
type CreateAccountRequest struct {
	UserName  string `json:"userName"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
