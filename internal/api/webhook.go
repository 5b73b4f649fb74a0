package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

// EventChargeCompleted is the only provider event that moves money
const EventChargeCompleted = "charge.completed"

const defaultNarration = "Online payment"

// ProcessWebhook applies an external payment notification at most once per
// payment reference.
func (s *LedgerService) ProcessWebhook(ctx context.Context, signature string, payload []byte) (*models.WebhookResult, error) {
	if !s.verifySignature(signature) {
		zap.L().Warn("Webhook rejected: invalid signature")
		s.metrics.ObserveWebhook("rejected")
		return nil, newError(store.ErrInvalidSignature, MsgInvalidSignature)
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil || event.Event == "" {
		s.metrics.ObserveWebhook("rejected")
		return nil, validationError(MsgInvalidPayload)
	}

	if event.Event != EventChargeCompleted {
		zap.L().Info("Ignoring webhook event", zap.String("event", event.Event))
		s.metrics.ObserveWebhook(models.WebhookOutcomeIgnored)
		return &models.WebhookResult{Outcome: models.WebhookOutcomeIgnored, Message: MsgUnhandledEvent}, nil
	}

	var data models.WebhookData
	if len(event.Data) == 0 || json.Unmarshal(event.Data, &data) != nil {
		s.metrics.ObserveWebhook("rejected")
		return nil, validationError(MsgMissingWebhookFields)
	}
	if strings.TrimSpace(data.Customer.Email) == "" || strings.TrimSpace(data.TxRef) == "" || data.Amount.IsZero() {
		s.metrics.ObserveWebhook("rejected")
		return nil, validationError(MsgMissingWebhookFields)
	}

	result, err := s.applyExternalCredit(ctx, data, event.Data)
	if err != nil {
		s.metrics.ObserveWebhook("rejected")
		return nil, err
	}
	s.metrics.ObserveWebhook(result.Outcome)
	return result, nil
}

func (s *LedgerService) applyExternalCredit(ctx context.Context, data models.WebhookData, raw json.RawMessage) (*models.WebhookResult, error) {
	txType := models.TransactionTypeDeposit
	if data.Amount.IsNegative() {
		txType = models.TransactionTypeWithdrawal
	}
	amount := data.Amount.Abs()

	narration := data.Narration
	if narration == "" {
		narration = defaultNarration
	}
	description := fmt.Sprintf("Flutterwave %s: %s", txType, narration)

	zap.L().Info("Processing webhook payment",
		zap.String("tx_ref", data.TxRef),
		zap.String("email", data.Customer.Email),
		zap.String("amount", data.Amount.String()))

	var transaction, existing *models.Transaction
	err := s.execute(ctx, txType, func(ctx context.Context, uow store.UnitOfWork) error {
		transaction, existing = nil, nil

		found, err := uow.TransactionByReference(ctx, data.TxRef)
		if err == nil {
			existing = found
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		account, err := findAccount(ctx, uow.AccountByEmail, data.Customer.Email, MsgUserNotFound)
		if err != nil {
			return err
		}
		if data.Amount.IsNegative() && account.Balance.LessThan(amount) {
			return newError(store.ErrInsufficientFunds, MsgInsufficientFunds)
		}

		before, after, err := uow.AdjustBalance(ctx, account.Id, data.Amount)
		if err != nil {
			return err
		}
		if after.IsNegative() {
			return newError(store.ErrInsufficientFunds, MsgInsufficientFunds)
		}

		transaction, err = uow.InsertTransaction(ctx, store.InsertTransactionParams{
			Type:              txType,
			SenderId:          account.Id,
			Amount:            amount,
			Description:       description,
			BalanceBefore:     before,
			BalanceAfter:      after,
			Status:            models.TransactionStatusSuccessful,
			PaymentReference:  data.TxRef,
			ProviderReference: data.FlwRef,
			Details:           raw,
		})
		if err != nil {
			return err
		}

		return enqueueEffects(ctx, uow, transaction, party{account: account, balance: after})
	})

	if errors.Is(err, store.ErrDuplicateTransaction) {
		// A concurrent delivery of the same reference committed first.
		zap.L().Info("Duplicate webhook detected on insert", zap.String("tx_ref", data.TxRef))
		return &models.WebhookResult{Outcome: models.WebhookOutcomeDuplicate, Message: MsgAlreadyProcessed}, nil
	}
	if err != nil {
		err = classify(err, MsgUserNotFound)
		logMovementFailure("Webhook payment failed", data.Customer.Email, data.Amount.String(), err)
		return nil, err
	}

	if existing != nil {
		zap.L().Info("Duplicate webhook ignored",
			zap.String("tx_ref", data.TxRef),
			zap.String("transaction_id", existing.Id))
		return &models.WebhookResult{Outcome: models.WebhookOutcomeDuplicate, Message: MsgAlreadyProcessed, Transaction: existing}, nil
	}

	s.committed()

	zap.L().Info("Webhook payment processed successfully",
		zap.String("transaction_id", transaction.Id),
		zap.String("tx_ref", data.TxRef),
		zap.String("new_balance", transaction.BalanceAfter.String()))

	return &models.WebhookResult{Outcome: models.WebhookOutcomeProcessed, Message: MsgWebhookProcessed, Transaction: transaction}, nil
}

func (s *LedgerService) verifySignature(signature string) bool {
	if s.webhook.SecretHash == "" || signature == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(signature), []byte(s.webhook.SecretHash)) == 1
}
