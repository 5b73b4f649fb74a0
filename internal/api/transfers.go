package api

import (
	"context"
	"strings"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Transfer moves funds between two accounts in one unit of work
func (s *LedgerService) Transfer(ctx context.Context, req models.TransferRequest) (*models.MovementResult, error) {
	start := time.Now()

	senderName := strings.TrimSpace(req.SenderUserName)
	receiverName := strings.TrimSpace(req.ReceiverUserName)
	if senderName == "" || receiverName == "" || strings.TrimSpace(req.Description) == "" || !req.Amount.IsPositive() {
		err := validationError(MsgFieldsRequired)
		s.observe(models.TransactionTypeTransfer, err, start)
		return nil, err
	}
	if senderName == receiverName {
		err := validationError(MsgSameAccount)
		s.observe(models.TransactionTypeTransfer, err, start)
		return nil, err
	}

	zap.L().Info("Processing transfer",
		zap.String("sender", senderName),
		zap.String("receiver", receiverName),
		zap.String("amount", req.Amount.String()))

	var transaction *models.Transaction
	err := s.execute(ctx, models.TransactionTypeTransfer, func(ctx context.Context, uow store.UnitOfWork) error {
		sender, err := findAccount(ctx, uow.AccountByUserName, senderName, MsgSenderNotFound)
		if err != nil {
			return err
		}
		receiver, err := findAccount(ctx, uow.AccountByUserName, receiverName, MsgReceiverNotFound)
		if err != nil {
			return err
		}
		if sender.Id == receiver.Id {
			return validationError(MsgSameAccount)
		}
		if sender.Balance.LessThan(req.Amount) {
			return newError(store.ErrInsufficientFunds, MsgInsufficientFunds)
		}

		// Rows are always locked in account id order.
		legs := []struct {
			account *models.Account
			delta   decimal.Decimal
		}{
			{sender, req.Amount.Neg()},
			{receiver, req.Amount},
		}
		if receiver.Id < sender.Id {
			legs[0], legs[1] = legs[1], legs[0]
		}

		var senderBefore, senderAfter, receiverBefore, receiverAfter decimal.Decimal
		for _, leg := range legs {
			before, after, err := uow.AdjustBalance(ctx, leg.account.Id, leg.delta)
			if err != nil {
				return err
			}
			if leg.account.Id == sender.Id {
				senderBefore, senderAfter = before, after
			} else {
				receiverBefore, receiverAfter = before, after
			}
		}
		if senderAfter.IsNegative() {
			return newError(store.ErrInsufficientFunds, MsgInsufficientFunds)
		}

		transaction, err = uow.InsertTransaction(ctx, store.InsertTransactionParams{
			Type:                  models.TransactionTypeTransfer,
			SenderId:              sender.Id,
			ReceiverId:            receiver.Id,
			Amount:                req.Amount,
			Description:           req.Description,
			BalanceBefore:         senderBefore,
			BalanceAfter:          senderAfter,
			ReceiverBalanceBefore: &receiverBefore,
			ReceiverBalanceAfter:  &receiverAfter,
			Status:                models.TransactionStatusSuccessful,
		})
		if err != nil {
			return err
		}

		return enqueueEffects(ctx, uow, transaction,
			party{account: sender, balance: senderAfter},
			party{account: receiver, balance: receiverAfter})
	})
	if err != nil {
		err = classify(err, MsgUserNotFound)
		s.observe(models.TransactionTypeTransfer, err, start)
		logMovementFailure("Transfer failed", senderName, req.Amount.String(), err)
		return nil, err
	}

	s.observe(models.TransactionTypeTransfer, nil, start)
	s.committed()

	zap.L().Info("Transfer processed successfully",
		zap.String("transaction_id", transaction.Id),
		zap.String("sender", senderName),
		zap.String("receiver", receiverName),
		zap.String("amount", req.Amount.String()),
		zap.String("sender_balance", transaction.BalanceAfter.String()))

	return &models.MovementResult{Message: MsgTransferSuccessful, Transaction: transaction}, nil
}
