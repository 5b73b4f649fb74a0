package formance

import (
	"context"
	"fmt"

	"wallet-ledger-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. All metadata is set inside the script via
// set_tx_meta() so each Formance transaction is self-describing. Wallet
// accounts may overdraw because the mirror can start after balances exist.
// ---------------------------------------------------------------------------

const numscriptDeposit = `vars {
  asset $asset
  number $amount
  account $account_id
  string $transaction_id
  string $description
  string $amount_human
}

send [$asset $amount] (
  source = @world
  destination = @wallets:users:$account_id
)

set_tx_meta("event_type", "deposit")
set_tx_meta("transaction_id", $transaction_id)
set_tx_meta("description", $description)
set_tx_meta("amount_human", $amount_human)
`

const numscriptWithdrawal = `vars {
  asset $asset
  number $amount
  account $account_id
  string $transaction_id
  string $description
  string $amount_human
}

send [$asset $amount] (
  source = @wallets:users:$account_id allowing unbounded overdraft
  destination = @payouts:withdrawals
)

set_tx_meta("event_type", "withdrawal")
set_tx_meta("transaction_id", $transaction_id)
set_tx_meta("description", $description)
set_tx_meta("amount_human", $amount_human)
`

const numscriptTransfer = `vars {
  asset $asset
  number $amount
  account $account_id
  account $receiver_id
  string $transaction_id
  string $description
  string $amount_human
}

send [$asset $amount] (
  source = @wallets:users:$account_id allowing unbounded overdraft
  destination = @wallets:users:$receiver_id
)

set_tx_meta("event_type", "transfer")
set_tx_meta("transaction_id", $transaction_id)
set_tx_meta("description", $description)
set_tx_meta("amount_human", $amount_human)
`

// Mirror records a committed movement. The wallet transaction id is the
// Formance reference, so a redelivered event is a no-op.
func (s *Service) Mirror(ctx context.Context, event models.CommittedEvent) error {
	postTx, err := s.postTransaction(event)
	if err != nil {
		return err
	}

	_, err = s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			zap.L().Debug("Movement already mirrored", zap.String("transaction_id", event.TransactionId))
			return nil
		}
		return fmt.Errorf("error mirroring %s transaction: %w", event.TransactionType, err)
	}

	zap.L().Info("Movement mirrored in Formance",
		zap.String("transaction_id", event.TransactionId),
		zap.String("type", event.TransactionType),
		zap.String("amount", event.Amount.String()))
	return nil
}

func (s *Service) postTransaction(event models.CommittedEvent) (shared.V2PostTransaction, error) {
	if !event.Amount.IsPositive() {
		return shared.V2PostTransaction{}, fmt.Errorf("cannot mirror non-positive amount %s", event.Amount)
	}

	vars := map[string]string{
		"asset":          formanceAsset(s.currency),
		"amount":         smallestUnits(event, s.currency),
		"account_id":     event.SenderId,
		"transaction_id": event.TransactionId,
		"description":    event.Description,
		"amount_human":   event.Amount.String(),
	}

	var script string
	switch event.TransactionType {
	case models.TransactionTypeDeposit:
		script = numscriptDeposit
	case models.TransactionTypeWithdrawal:
		script = numscriptWithdrawal
	case models.TransactionTypeTransfer:
		if event.ReceiverId == "" {
			return shared.V2PostTransaction{}, fmt.Errorf("transfer %s has no receiver", event.TransactionId)
		}
		script = numscriptTransfer
		vars["receiver_id"] = event.ReceiverId
	default:
		return shared.V2PostTransaction{}, fmt.Errorf("unknown transaction type %q", event.TransactionType)
	}

	postTx := shared.V2PostTransaction{
		Reference: strPtr(event.TransactionId),
		Script: &shared.V2PostTransactionScript{
			Plain: script,
			Vars:  vars,
		},
	}
	if !event.Timestamp.IsZero() {
		ts := event.Timestamp
		postTx.Timestamp = &ts
	}
	return postTx, nil
}

func smallestUnits(event models.CommittedEvent, currency string) string {
	return event.Amount.Shift(int32(precisionFor(currency))).BigInt().String()
}

func strPtr(s string) *string { return &s }
