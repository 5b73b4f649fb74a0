package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()

	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  time.Second,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	cleanup := func() {
		service.Close()
	}

	return service, cleanup
}

func createTestAccount(t *testing.T, service *Service, userName string) *models.Account {
	t.Helper()

	account, err := service.CreateAccount(context.Background(), models.CreateAccountRequest{
		UserName:  userName,
		Email:     userName + "@example.com",
		FirstName: userName,
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s) failed: %v", userName, err)
	}
	return account
}

func adjust(t *testing.T, service *Service, accountId string, delta int64) (decimal.Decimal, decimal.Decimal) {
	t.Helper()

	var before, after decimal.Decimal
	err := service.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
		var err error
		before, after, err = uow.AdjustBalance(ctx, accountId, decimal.NewFromInt(delta))
		return err
	})
	if err != nil {
		t.Fatalf("AdjustBalance failed: %v", err)
	}
	return before, after
}

func TestCreateAccount(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	account := createTestAccount(t, service, "alice")
	if !account.Balance.IsZero() {
		t.Errorf("Expected zero opening balance, got %s", account.Balance)
	}
	if !account.Active {
		t.Error("Expected new account to be active")
	}

	_, err := service.CreateAccount(context.Background(), models.CreateAccountRequest{UserName: "alice", Email: "other@example.com"})
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate user name, got %v", err)
	}

	byEmail, err := service.GetAccountByEmail(context.Background(), "ALICE@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail failed: %v", err)
	}
	if byEmail.Id != account.Id {
		t.Errorf("Expected case-insensitive email lookup to find %s, got %s", account.Id, byEmail.Id)
	}
}

func TestAdjustBalance(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	account := createTestAccount(t, service, "alice")

	before, after := adjust(t, service, account.Id, 200)
	if !before.IsZero() || !after.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected 0 -> 200, got %s -> %s", before, after)
	}

	before, after = adjust(t, service, account.Id, -50)
	if !before.Equal(decimal.NewFromInt(200)) || !after.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected 200 -> 150, got %s -> %s", before, after)
	}

	reloaded, err := service.GetAccountById(context.Background(), account.Id)
	if err != nil {
		t.Fatalf("GetAccountById failed: %v", err)
	}
	if !reloaded.Balance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected stored balance 150, got %s", reloaded.Balance)
	}
	if reloaded.Version != account.Version+2 {
		t.Errorf("Expected version %d, got %d", account.Version+2, reloaded.Version)
	}
}

func TestAdjustBalance_UnknownAccount(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	err := service.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
		_, _, err := uow.AdjustBalance(ctx, "missing", decimal.NewFromInt(1))
		return err
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestWithinUnitOfWork_RollsBackOnError(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	account := createTestAccount(t, service, "bob")
	adjust(t, service, account.Id, 200)

	boom := errors.New("boom")
	err := service.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
		if _, _, err := uow.AdjustBalance(ctx, account.Id, decimal.NewFromInt(500)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected callback error, got %v", err)
	}

	reloaded, err := service.GetAccountById(context.Background(), account.Id)
	if err != nil {
		t.Fatalf("GetAccountById failed: %v", err)
	}
	if !reloaded.Balance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected balance to stay 200 after rollback, got %s", reloaded.Balance)
	}
}

func TestInsertTransaction_DuplicatePaymentReference(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	account := createTestAccount(t, service, "carol")

	insert := func() error {
		return service.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
			_, err := uow.InsertTransaction(ctx, store.InsertTransactionParams{
				Type:             models.TransactionTypeDeposit,
				SenderId:         account.Id,
				Amount:           decimal.NewFromInt(1000),
				BalanceBefore:    decimal.Zero,
				BalanceAfter:     decimal.NewFromInt(1000),
				Status:           models.TransactionStatusSuccessful,
				PaymentReference: "TX1",
				Details:          []byte(`{"tx_ref":"TX1"}`),
			})
			return err
		})
	}

	if err := insert(); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := insert(); !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Errorf("Expected ErrDuplicateTransaction, got %v", err)
	}

	err := service.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
		existing, err := uow.TransactionByReference(ctx, "TX1")
		if err != nil {
			return err
		}
		if string(existing.Details) != `{"tx_ref":"TX1"}` {
			t.Errorf("Expected details to round-trip, got %s", existing.Details)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("TransactionByReference failed: %v", err)
	}
}

func TestGetAccountTransactions(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestAccount(t, service, "alice")
	bob := createTestAccount(t, service, "bob")

	record := func(txType, sender, receiver string) {
		err := service.WithinUnitOfWork(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
			_, err := uow.InsertTransaction(ctx, store.InsertTransactionParams{
				Type:          txType,
				SenderId:      sender,
				ReceiverId:    receiver,
				Amount:        decimal.NewFromInt(10),
				BalanceBefore: decimal.Zero,
				BalanceAfter:  decimal.Zero,
				Status:        models.TransactionStatusSuccessful,
			})
			return err
		})
		if err != nil {
			t.Fatalf("InsertTransaction failed: %v", err)
		}
	}

	record(models.TransactionTypeDeposit, alice.Id, "")
	record(models.TransactionTypeDeposit, alice.Id, "")
	record(models.TransactionTypeTransfer, bob.Id, alice.Id)
	record(models.TransactionTypeDeposit, bob.Id, "")

	all, total, err := service.GetAccountTransactions(ctx, alice.Id, models.TransactionQuery{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("GetAccountTransactions failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected 3 transactions involving alice, got %d", total)
	}
	if len(all) != 2 {
		t.Errorf("Expected page of 2, got %d", len(all))
	}
	if all[0].Type != models.TransactionTypeTransfer {
		t.Errorf("Expected newest transaction first, got %s", all[0].Type)
	}

	deposits, total, err := service.GetAccountTransactions(ctx, alice.Id, models.TransactionQuery{Type: models.TransactionTypeDeposit})
	if err != nil {
		t.Fatalf("GetAccountTransactions failed: %v", err)
	}
	if total != 2 || len(deposits) != 2 {
		t.Errorf("Expected 2 deposits, got total=%d len=%d", total, len(deposits))
	}

	page2, _, err := service.GetAccountTransactions(ctx, alice.Id, models.TransactionQuery{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("GetAccountTransactions failed: %v", err)
	}
	if len(page2) != 1 {
		t.Errorf("Expected 1 transaction on page 2, got %d", len(page2))
	}
}

func TestUpdateTransactionStatus_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.UpdateTransactionStatus(context.Background(), "missing", models.TransactionStatusFailed)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestReconcileAccount(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	account := createTestAccount(t, service, "dave")

	err := service.WithinUnitOfWork(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		before, after, err := uow.AdjustBalance(ctx, account.Id, decimal.NewFromInt(700))
		if err != nil {
			return err
		}
		_, err = uow.InsertTransaction(ctx, store.InsertTransactionParams{
			Type:          models.TransactionTypeDeposit,
			SenderId:      account.Id,
			Amount:        decimal.NewFromInt(700),
			BalanceBefore: before,
			BalanceAfter:  after,
			Status:        models.TransactionStatusSuccessful,
		})
		return err
	})
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	result, err := service.ReconcileAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("ReconcileAccount failed: %v", err)
	}
	if !result.Matches {
		t.Errorf("Expected balances to match, got balance=%s computed=%s", result.Balance, result.Computed)
	}

	// A balance change without a ledger entry must be detected.
	adjust(t, service, account.Id, 5)
	result, err = service.ReconcileAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("ReconcileAccount failed: %v", err)
	}
	if result.Matches {
		t.Error("Expected mismatch after unrecorded adjustment")
	}
}
