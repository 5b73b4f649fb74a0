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
	"time"

	"github.com/shopspring/decimal"
)

// EmailNotification is the payload of a notification.email outbox event
type EmailNotification struct {
	Recipient       string          `json:"recipient"`
	UserName        string          `json:"user_name"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	Description     string          `json:"description"`
}

// CommittedEvent is the payload of a transaction.committed outbox event and
// the message published to downstream consumers
type CommittedEvent struct {
	EventType        string           `json:"event_type"`
	TransactionId    string           `json:"transaction_id"`
	TransactionType  string           `json:"transaction_type"`
	Status           string           `json:"status"`
	SenderId         string           `json:"sender_id"`
	ReceiverId       string           `json:"receiver_id,omitempty"`
	Amount           decimal.Decimal  `json:"amount"`
	SignedAmount     decimal.Decimal  `json:"signed_amount"`
	BalanceAfter     decimal.Decimal  `json:"balance_after"`
	ReceiverBalance  *decimal.Decimal `json:"receiver_balance_after,omitempty"`
	PaymentReference string           `json:"payment_reference,omitempty"`
	Description      string           `json:"description"`
	Timestamp        time.Time        `json:"timestamp"`
}
