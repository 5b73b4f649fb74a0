package api

import (
	"context"
	"encoding/json"
	"fmt"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

// party is an account touched by a movement together with its resulting balance
type party struct {
	account *models.Account
	balance decimal.Decimal
}

// enqueueEffects records the post-commit work for a movement inside the same
// unit of work: one email per party and one committed event.
func enqueueEffects(ctx context.Context, uow store.UnitOfWork, transaction *models.Transaction, parties ...party) error {
	for _, p := range parties {
		if p.account.Email == "" {
			continue
		}
		notification := models.EmailNotification{
			Recipient:       p.account.Email,
			UserName:        p.account.FullName(),
			TransactionType: transaction.Type,
			Amount:          transaction.Amount,
			NewBalance:      p.balance,
			Description:     transaction.Description,
		}
		if err := enqueue(ctx, uow, models.OutboxKindEmail, transaction.Id, notification); err != nil {
			return err
		}
	}

	event := models.CommittedEvent{
		EventType:        models.OutboxKindCommitted,
		TransactionId:    transaction.Id,
		TransactionType:  transaction.Type,
		Status:           transaction.Status,
		SenderId:         transaction.SenderId,
		ReceiverId:       transaction.ReceiverId,
		Amount:           transaction.Amount,
		SignedAmount:     store.SignedAmount(*transaction),
		BalanceAfter:     transaction.BalanceAfter,
		ReceiverBalance:  transaction.ReceiverBalanceAfter,
		PaymentReference: transaction.PaymentReference,
		Description:      transaction.Description,
		Timestamp:        transaction.CreatedAt,
	}
	return enqueue(ctx, uow, models.OutboxKindCommitted, transaction.Id, event)
}

func enqueue(ctx context.Context, uow store.UnitOfWork, kind, transactionId string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}
	return uow.EnqueueOutbox(ctx, store.OutboxParams{
		Kind:          kind,
		TransactionId: transactionId,
		Payload:       data,
	})
}
