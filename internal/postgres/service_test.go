package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// setupTestDb connects to TEST_DATABASE_URL and empties every table
func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	service, err := NewService(ctx, models.DatabaseConfig{
		URL:          url,
		MaxOpenConns: 8,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if _, err := service.pool.Exec(ctx, `TRUNCATE outbox_events, transactions, accounts, admins CASCADE`); err != nil {
		service.Close()
		t.Fatalf("Failed to reset test database: %v", err)
	}
	return service, service.Close
}

func createTestAccount(t *testing.T, service *Service, userName string) *models.Account {
	t.Helper()

	account, err := service.CreateAccount(context.Background(), models.CreateAccountRequest{
		UserName: userName,
		Email:    userName + "@example.com",
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s) failed: %v", userName, err)
	}
	return account
}

func adjust(ctx context.Context, service *Service, accountId string, delta int64) error {
	return service.WithinUnitOfWork(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		_, _, err := uow.AdjustBalance(ctx, accountId, decimal.NewFromInt(delta))
		return err
	})
}

func TestAdjustBalance_IsRelative(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	account := createTestAccount(t, service, "alice")

	var before, after decimal.Decimal
	err := service.WithinUnitOfWork(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		if _, _, err := uow.AdjustBalance(ctx, account.Id, decimal.NewFromInt(5000)); err != nil {
			return err
		}
		var err error
		before, after, err = uow.AdjustBalance(ctx, account.Id, decimal.NewFromInt(-1500))
		return err
	})
	if err != nil {
		t.Fatalf("Unit of work failed: %v", err)
	}
	if !before.Equal(decimal.NewFromInt(5000)) || !after.Equal(decimal.NewFromInt(3500)) {
		t.Errorf("Expected 5000 -> 3500, got %s -> %s", before, after)
	}

	stored, err := service.GetAccountById(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccountById failed: %v", err)
	}
	if !stored.Balance.Equal(decimal.NewFromInt(3500)) {
		t.Errorf("Expected stored balance 3500, got %s", stored.Balance)
	}
	if stored.Version != account.Version+2 {
		t.Errorf("Expected version %d, got %d", account.Version+2, stored.Version)
	}
}

func TestAdjustBalance_UnknownAccount(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	err := adjust(context.Background(), service, "missing", 100)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestWithinUnitOfWork_RollsBackOnError(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	account := createTestAccount(t, service, "bob")
	boom := errors.New("boom")

	err := service.WithinUnitOfWork(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		if _, _, err := uow.AdjustBalance(ctx, account.Id, decimal.NewFromInt(700)); err != nil {
			return err
		}
		if err := uow.EnqueueOutbox(ctx, store.OutboxParams{Kind: models.OutboxKindCommitted, TransactionId: "tx", Payload: []byte(`{}`)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	stored, _ := service.GetAccountById(ctx, account.Id)
	if !stored.Balance.IsZero() {
		t.Errorf("Expected balance rolled back to 0, got %s", stored.Balance)
	}
	events, err := service.ClaimOutbox(ctx, 10, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("ClaimOutbox failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected no outbox events after rollback, got %d", len(events))
	}
}

func TestInsertTransaction_DuplicatePaymentReference(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	account := createTestAccount(t, service, "carol")
	insert := func() error {
		return service.WithinUnitOfWork(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
			_, err := uow.InsertTransaction(ctx, store.InsertTransactionParams{
				Type:             models.TransactionTypeDeposit,
				SenderId:         account.Id,
				Amount:           decimal.NewFromInt(3000),
				BalanceAfter:     decimal.NewFromInt(3000),
				Status:           models.TransactionStatusSuccessful,
				PaymentReference: "FLW-TX-9",
				Details:          []byte(`{"event":"charge.completed"}`),
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

	transactions, total, err := service.GetAccountTransactions(ctx, account.Id, models.TransactionQuery{})
	if err != nil {
		t.Fatalf("GetAccountTransactions failed: %v", err)
	}
	if total != 1 || len(transactions) != 1 {
		t.Fatalf("Expected one transaction, got %d", total)
	}
	if string(transactions[0].Details) == "" || transactions[0].PaymentReference != "FLW-TX-9" {
		t.Errorf("Unexpected stored transaction: %+v", transactions[0])
	}
}

func TestAdjustBalance_ConcurrentDeltasAreNotLost(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	account := createTestAccount(t, service, "dave")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- adjust(ctx, service, account.Id, 10)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Concurrent adjust failed: %v", err)
		}
	}

	stored, _ := service.GetAccountById(ctx, account.Id)
	if !stored.Balance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected balance 200, got %s", stored.Balance)
	}
}

func TestClaimOutbox_LeasesEvents(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	err := service.WithinUnitOfWork(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		return uow.EnqueueOutbox(ctx, store.OutboxParams{Kind: models.OutboxKindEmail, TransactionId: "tx-1", Payload: []byte(`{"recipient":"a@example.com"}`)})
	})
	if err != nil {
		t.Fatalf("EnqueueOutbox failed: %v", err)
	}

	at := time.Now().Add(time.Second)
	events, err := service.ClaimOutbox(ctx, 10, at)
	if err != nil || len(events) != 1 {
		t.Fatalf("Expected one claimed event, got %d (%v)", len(events), err)
	}
	if again, _ := service.ClaimOutbox(ctx, 10, at); len(again) != 0 {
		t.Errorf("Expected leased event to be hidden, got %d", len(again))
	}

	if err := service.MarkOutboxSent(ctx, events[0].Id); err != nil {
		t.Fatalf("MarkOutboxSent failed: %v", err)
	}
	purged, err := service.PurgeOutbox(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PurgeOutbox failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("Expected one purged event, got %d", purged)
	}
}

func TestMapLockError(t *testing.T) {
	tests := []struct {
		code      string
		retryable bool
	}{
		{codeSerializationFailure, true},
		{codeDeadlockDetected, true},
		{codeUniqueViolation, false},
	}
	for _, tt := range tests {
		err := mapLockError(&pgconn.PgError{Code: tt.code})
		if got := errors.Is(err, store.ErrConcurrentModification); got != tt.retryable {
			t.Errorf("mapLockError(%s) retryable = %v, want %v", tt.code, got, tt.retryable)
		}
	}
}
