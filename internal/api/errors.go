package api

import (
	"errors"
	"fmt"

	"wallet-ledger-go/internal/store"
)

// User-facing messages
const (
	MsgFieldsRequired         = "All fields are required"
	MsgUserNotFound           = "User not found"
	MsgSenderNotFound         = "Sender not found"
	MsgReceiverNotFound       = "Receiver not found"
	MsgInsufficientFunds      = "Insufficient funds"
	MsgSameAccount            = "Cannot transfer to the same account"
	MsgInvalidSignature       = "Invalid signature"
	MsgInvalidPayload         = "Invalid webhook payload"
	MsgMissingWebhookFields   = "Missing required fields"
	MsgAlreadyProcessed       = "Transaction already processed"
	MsgUnhandledEvent         = "Unhandled event type"
	MsgWebhookProcessed       = "Webhook processed successfully"
	MsgDepositSuccessful      = "Deposit successful"
	MsgWithdrawalSuccessful   = "Withdrawal successful"
	MsgTransferSuccessful     = "Transfer successful"
	MsgInvalidCredentials     = "Invalid credentials"
	MsgAccountInactive        = "Account is not active"
	MsgTransactionNotFound    = "Transaction not found"
	MsgAdminNotFound          = "Admin not found"
	MsgInvalidStatus          = "Invalid status"
	MsgInvalidTransactionType = "Invalid transaction type"
	MsgInternal               = "Internal server error"
)

// Error is a classified engine failure. Kind is one of the store sentinels
// and Message is safe to return to a client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationError(message string) *Error {
	return newError(store.ErrValidation, message)
}

// classify maps an error escaping a unit of work to an engine error. Errors
// already classified pass through; anything else is a store failure.
func classify(err error, notFoundMessage string) error {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return newError(store.ErrNotFound, notFoundMessage)
	case errors.Is(err, store.ErrInsufficientFunds):
		return newError(store.ErrInsufficientFunds, MsgInsufficientFunds)
	case errors.Is(err, store.ErrDuplicateTransaction):
		return newError(store.ErrDuplicateTransaction, MsgAlreadyProcessed)
	case errors.Is(err, store.ErrConflict):
		return newError(store.ErrConflict, err.Error())
	case errors.Is(err, store.ErrValidation):
		return newError(store.ErrValidation, err.Error())
	}
	return fmt.Errorf("store error: %w", err)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, store.ErrValidation):
		return "validation"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, store.ErrDuplicateTransaction):
		return "duplicate"
	case errors.Is(err, store.ErrInvalidSignature):
		return "unauthenticated"
	}
	return "error"
}
