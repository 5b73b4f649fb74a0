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

package database

const (
	accountColumns = `id, user_name, email, first_name, last_name, balance, version, active, created_at, updated_at`

	transactionColumns = `id, type, sender_id, receiver_id, amount, description, balance_before, balance_after,
		receiver_balance_before, receiver_balance_after, status, payment_reference, provider_reference,
		details, created_at, updated_at`

	outboxColumns = `id, kind, transaction_id, payload, status, attempts, last_error, next_attempt_at, created_at, updated_at`

	adminColumns = `id, email, first_name, last_name, password_hash, role, status, permissions, last_login, created_at, updated_at`

	// Account queries
	queryInsertAccount = `
		INSERT INTO accounts (id, user_name, email, first_name, last_name, balance, version, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '0', 1, 1, ?, ?)`

	queryGetAccountById = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ?`

	queryGetAccountByUserName = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_name = ?`

	queryGetAccountByEmail = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = ?`

	queryGetActiveAccountByUserName = queryGetAccountByUserName + ` AND active = 1`

	queryGetActiveAccountByEmail = queryGetAccountByEmail + ` AND active = 1`

	queryListAccounts = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE (? = '' OR user_name LIKE ? OR email LIKE ? OR first_name LIKE ? OR last_name LIKE ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	queryCountAccounts = `
		SELECT COUNT(*)
		FROM accounts
		WHERE (? = '' OR user_name LIKE ? OR email LIKE ? OR first_name LIKE ? OR last_name LIKE ?)`

	querySetAccountActive = `
		UPDATE accounts
		SET active = ?, updated_at = ?
		WHERE id = ?`

	// Balance queries
	queryGetAccountBalance = `
		SELECT balance, version
		FROM accounts
		WHERE id = ?`

	queryUpdateAccountBalance = `
		UPDATE accounts
		SET balance = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	queryGetAllBalances = `
		SELECT balance FROM accounts`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO transactions (
			id, type, sender_id, receiver_id, amount, description, balance_before, balance_after,
			receiver_balance_before, receiver_balance_after, status, payment_reference, provider_reference,
			details, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionById = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = ?`

	queryGetTransactionByReference = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE payment_reference = ?
		LIMIT 1`

	queryGetAccountTransactions = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (sender_id = ? OR receiver_id = ?) AND (? = '' OR type = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	queryCountAccountTransactions = `
		SELECT COUNT(*)
		FROM transactions
		WHERE (sender_id = ? OR receiver_id = ?) AND (? = '' OR type = ?)`

	queryListTransactions = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (? = '' OR type = ?) AND (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	queryCountTransactions = `
		SELECT COUNT(*)
		FROM transactions
		WHERE (? = '' OR type = ?) AND (? = '' OR status = ?)`

	queryUpdateTransactionStatus = `
		UPDATE transactions
		SET status = ?, updated_at = ?
		WHERE id = ?`

	queryReconcileTransactions = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (sender_id = ? OR receiver_id = ?) AND status = 'successful'`

	// Dashboard queries
	queryCountAccountsByState = `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN active = 1 THEN 1 ELSE 0 END), 0)
		FROM accounts`

	queryCountTransactionsByStatus = `
		SELECT status, COUNT(*)
		FROM transactions
		GROUP BY status`

	querySuccessfulAmounts = `
		SELECT type, amount
		FROM transactions
		WHERE status = 'successful'`

	queryRecentTransactions = `
		SELECT ` + transactionColumns + `
		FROM transactions
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	// Outbox queries
	queryInsertOutbox = `
		INSERT INTO outbox_events (id, kind, transaction_id, payload, status, attempts, last_error, next_attempt_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'pending', 0, '', ?, ?, ?)`

	querySelectDueOutbox = `
		SELECT ` + outboxColumns + `
		FROM outbox_events
		WHERE status = 'pending' AND next_attempt_at <= ?
		ORDER BY created_at, id
		LIMIT ?`

	queryLeaseOutbox = `
		UPDATE outbox_events
		SET next_attempt_at = ?
		WHERE id = ?`

	queryMarkOutboxSent = `
		UPDATE outbox_events
		SET status = 'sent', attempts = attempts + 1, last_error = '', updated_at = ?
		WHERE id = ?`

	queryMarkOutboxRetry = `
		UPDATE outbox_events
		SET status = ?, attempts = attempts + 1, last_error = ?, next_attempt_at = ?, updated_at = ?
		WHERE id = ?`

	queryPurgeOutbox = `
		DELETE FROM outbox_events
		WHERE status = 'sent' AND updated_at < ?`

	// Admin queries
	queryInsertAdmin = `
		INSERT INTO admins (id, email, first_name, last_name, password_hash, role, status, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetAdminById = `
		SELECT ` + adminColumns + `
		FROM admins
		WHERE id = ?`

	queryGetAdminByEmail = `
		SELECT ` + adminColumns + `
		FROM admins
		WHERE email = ?`

	queryListAdmins = `
		SELECT ` + adminColumns + `
		FROM admins
		ORDER BY created_at, id`

	queryUpdateAdminStatus = `
		UPDATE admins
		SET status = ?, updated_at = ?
		WHERE id = ?`

	queryRecordAdminLogin = `
		UPDATE admins
		SET last_login = ?, updated_at = ?
		WHERE id = ?`
)
