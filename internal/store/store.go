package store

import (
	"context"
	"errors"
	"time"

	"wallet-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrInvalidSignature       = errors.New("invalid signature")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("already exists")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// InsertTransactionParams describes a ledger entry to append. Balances are the
// values returned by AdjustBalance in the same unit of work.
type InsertTransactionParams struct {
	Type                  string
	SenderId              string
	ReceiverId            string
	Amount                decimal.Decimal
	Description           string
	BalanceBefore         decimal.Decimal
	BalanceAfter          decimal.Decimal
	ReceiverBalanceBefore *decimal.Decimal
	ReceiverBalanceAfter  *decimal.Decimal
	Status                string
	PaymentReference      string
	ProviderReference     string
	Details               []byte
}

// OutboxParams describes a post-commit effect.
type OutboxParams struct {
	Kind          string
	TransactionId string
	Payload       []byte
}

// UnitOfWork is the set of mutations that commit or roll back together.
// It is only valid inside the callback passed to WithinUnitOfWork.
type UnitOfWork interface {
	AccountByUserName(ctx context.Context, userName string) (*models.Account, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)

	// AdjustBalance applies a relative delta and returns the balance before
	// and after. Balances have no absolute setter.
	AdjustBalance(ctx context.Context, accountId string, delta decimal.Decimal) (before, after decimal.Decimal, err error)

	InsertTransaction(ctx context.Context, params InsertTransactionParams) (*models.Transaction, error)
	TransactionByReference(ctx context.Context, paymentReference string) (*models.Transaction, error)
	EnqueueOutbox(ctx context.Context, params OutboxParams) error
}

// LedgerStore defines the contract that every backend (SQLite, PostgreSQL) must satisfy.
type LedgerStore interface {
	// WithinUnitOfWork runs fn in one atomic store transaction. Any error
	// returned by fn (or by commit) discards every write made through uow.
	WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error

	// --- Accounts ---
	CreateAccount(ctx context.Context, params models.CreateAccountRequest) (*models.Account, error)
	GetAccountById(ctx context.Context, accountId string) (*models.Account, error)
	GetAccountByUserName(ctx context.Context, userName string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	ListAccounts(ctx context.Context, query models.AccountQuery) ([]models.Account, int, error)
	SetAccountActive(ctx context.Context, accountId string, active bool) (*models.Account, error)

	// --- Transactions ---
	GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error)
	GetAccountTransactions(ctx context.Context, accountId string, query models.TransactionQuery) ([]models.Transaction, int, error)
	ListTransactions(ctx context.Context, query models.TransactionQuery) ([]models.Transaction, int, error)
	UpdateTransactionStatus(ctx context.Context, transactionId, status string) (*models.Transaction, error)
	ReconcileAccount(ctx context.Context, accountId string) (*models.Reconciliation, error)
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)

	// --- Outbox ---
	ClaimOutbox(ctx context.Context, limit int, now time.Time) ([]models.OutboxEvent, error)
	MarkOutboxSent(ctx context.Context, eventId string) error
	MarkOutboxRetry(ctx context.Context, eventId string, lastErr string, nextAttempt time.Time, failed bool) error
	PurgeOutbox(ctx context.Context, olderThan time.Time) (int64, error)

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}

// AdminStore holds administrative identities.
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin models.Admin) (*models.Admin, error)
	GetAdminById(ctx context.Context, adminId string) (*models.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	ListAdmins(ctx context.Context) ([]models.Admin, error)
	UpdateAdminStatus(ctx context.Context, adminId, status string) (*models.Admin, error)
	RecordAdminLogin(ctx context.Context, adminId string, at time.Time) error
}

// Backend is what the server wires: both the ledger and the admin store.
type Backend interface {
	LedgerStore
	AdminStore
}

// NormalizeQuery applies the listing defaults (page 1, limit 10, max 100).
func NormalizeQuery(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// IsValidTransactionType reports whether t is a known transaction type.
func IsValidTransactionType(t string) bool {
	switch t {
	case models.TransactionTypeDeposit, models.TransactionTypeWithdrawal, models.TransactionTypeTransfer:
		return true
	}
	return false
}

// IsValidTransactionStatus reports whether s is a known transaction status.
func IsValidTransactionStatus(s string) bool {
	switch s {
	case models.TransactionStatusPending, models.TransactionStatusSuccessful, models.TransactionStatusFailed:
		return true
	}
	return false
}

// SignedAmount returns the delta a transaction applied to its sender.
func SignedAmount(tx models.Transaction) decimal.Decimal {
	if tx.Type == models.TransactionTypeDeposit {
		return tx.Amount
	}
	return tx.Amount.Neg()
}

// AccountDelta returns the effect a successful transaction had on accountId.
func AccountDelta(tx models.Transaction, accountId string) decimal.Decimal {
	delta := decimal.Zero
	if tx.SenderId == accountId {
		delta = delta.Add(SignedAmount(tx))
	}
	if tx.Type == models.TransactionTypeTransfer && tx.ReceiverId == accountId {
		delta = delta.Add(tx.Amount)
	}
	return delta
}
