package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeTransfer   = "transfer"
)

// Transaction statuses
const (
	TransactionStatusPending    = "pending"
	TransactionStatusSuccessful = "successful"
	TransactionStatusFailed     = "failed"
)

// Account represents a wallet holder and its current balance (hot data)
type Account struct {
	Id        string          `db:"id" json:"id"`
	UserName  string          `db:"user_name" json:"userName"`
	Email     string          `db:"email" json:"email"`
	FirstName string          `db:"first_name" json:"firstName"`
	LastName  string          `db:"last_name" json:"lastName"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Version   int64           `db:"version" json:"-"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// FullName returns "First Last", falling back to the handle.
func (a Account) FullName() string {
	switch {
	case a.FirstName != "" && a.LastName != "":
		return a.FirstName + " " + a.LastName
	case a.FirstName != "":
		return a.FirstName
	default:
		return a.UserName
	}
}

// Transaction represents an immutable ledger entry (cold data)
type Transaction struct {
	Id                    string           `db:"id" json:"id"`
	Type                  string           `db:"type" json:"type"`
	SenderId              string           `db:"sender_id" json:"sender"`
	ReceiverId            string           `db:"receiver_id" json:"receiver,omitempty"`
	Amount                decimal.Decimal  `db:"amount" json:"amount"`
	Description           string           `db:"description" json:"description"`
	BalanceBefore         decimal.Decimal  `db:"balance_before" json:"balanceBefore"`
	BalanceAfter          decimal.Decimal  `db:"balance_after" json:"balanceAfter"`
	ReceiverBalanceBefore *decimal.Decimal `db:"receiver_balance_before" json:"receiverBalanceBefore,omitempty"`
	ReceiverBalanceAfter  *decimal.Decimal `db:"receiver_balance_after" json:"receiverBalanceAfter,omitempty"`
	Status                string           `db:"status" json:"status"`
	PaymentReference      string           `db:"payment_reference" json:"paymentReference,omitempty"`
	ProviderReference     string           `db:"provider_reference" json:"providerReference,omitempty"`
	Details               json.RawMessage  `db:"details" json:"transactionDetails,omitempty"`
	CreatedAt             time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time        `db:"updated_at" json:"updatedAt"`
}

// Involves reports whether the account is either party of the transaction.
func (t Transaction) Involves(accountId string) bool {
	return t.SenderId == accountId || (t.ReceiverId != "" && t.ReceiverId == accountId)
}

// Outbox kinds
const (
	OutboxKindEmail     = "notification.email"
	OutboxKindCommitted = "transaction.committed"
)

// Outbox statuses
const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// OutboxEvent is a post-commit effect written in the same unit of work as the
// movement it describes and drained by the outbox listener.
type OutboxEvent struct {
	Id            string          `db:"id"`
	Kind          string          `db:"kind"`
	TransactionId string          `db:"transaction_id"`
	Payload       json.RawMessage `db:"payload"`
	Status        string          `db:"status"`
	Attempts      int             `db:"attempts"`
	LastError     string          `db:"last_error"`
	NextAttemptAt time.Time       `db:"next_attempt_at"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// Admin roles
const (
	AdminRoleAdmin      = "admin"
	AdminRoleSuperAdmin = "super-admin"
)

// Admin statuses
const (
	AdminStatusActive    = "active"
	AdminStatusSuspended = "suspended"
	AdminStatusInactive  = "inactive"
)

// AdminPermissions are the coarse capability flags carried by an admin
type AdminPermissions struct {
	ManageUsers        bool `json:"manageUsers"`
	ManageTransactions bool `json:"manageTransactions"`
	ManageAdmins       bool `json:"manageAdmins"`
	ViewReports        bool `json:"viewReports"`
}

// DefaultPermissions returns the permission set a new admin of the role starts with.
func DefaultPermissions(role string) AdminPermissions {
	if role == AdminRoleSuperAdmin {
		return AdminPermissions{ManageUsers: true, ManageTransactions: true, ManageAdmins: true, ViewReports: true}
	}
	return AdminPermissions{ManageUsers: true, ManageTransactions: true, ViewReports: true}
}

// Admin represents an operator of the administrative subsystem
type Admin struct {
	Id           string           `db:"id" json:"id"`
	Email        string           `db:"email" json:"email"`
	FirstName    string           `db:"first_name" json:"firstName"`
	LastName     string           `db:"last_name" json:"lastName"`
	PasswordHash string           `db:"password_hash" json:"-"`
	Role         string           `db:"role" json:"role"`
	Status       string           `db:"status" json:"status"`
	Permissions  AdminPermissions `db:"permissions" json:"permissions"`
	LastLogin    *time.Time       `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}
