package postgres

const schema = `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		user_name TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		balance NUMERIC(20, 2) NOT NULL DEFAULT 0,
		version BIGINT NOT NULL DEFAULT 1,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_active ON accounts(active);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL CHECK (type IN ('deposit', 'withdrawal', 'transfer')),
		sender_id TEXT NOT NULL REFERENCES accounts(id),
		receiver_id TEXT REFERENCES accounts(id),
		amount NUMERIC(20, 2) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		balance_before NUMERIC(20, 2) NOT NULL,
		balance_after NUMERIC(20, 2) NOT NULL,
		receiver_balance_before NUMERIC(20, 2),
		receiver_balance_after NUMERIC(20, 2),
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'successful', 'failed')),
		payment_reference TEXT,
		provider_reference TEXT,
		details JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_payment_reference
		ON transactions(payment_reference) WHERE payment_reference IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_transactions_sender_id ON transactions(sender_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_receiver_id ON transactions(receiver_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);

	CREATE TABLE IF NOT EXISTS outbox_events (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		next_attempt_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_events_due ON outbox_events(status, next_attempt_at);

	CREATE TABLE IF NOT EXISTS admins (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin', 'super-admin')),
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'suspended', 'inactive')),
		permissions JSONB NOT NULL DEFAULT '{}',
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
`

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
		VALUES ($1, $2, $3, $4, $5, 0, 1, TRUE, $6, $6)`

	queryGetAccountById = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	queryGetAccountByUserName = `SELECT ` + accountColumns + ` FROM accounts WHERE user_name = $1`

	queryGetAccountByEmail = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	queryGetActiveAccountByUserName = queryGetAccountByUserName + ` AND active`

	queryGetActiveAccountByEmail = queryGetAccountByEmail + ` AND active`

	accountFilter = `($1 = '' OR user_name ILIKE $2 OR email ILIKE $2 OR first_name ILIKE $2 OR last_name ILIKE $2)`

	queryListAccounts = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE ` + accountFilter + `
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	queryCountAccounts = `SELECT COUNT(*) FROM accounts WHERE ` + accountFilter

	querySetAccountActive = `
		UPDATE accounts
		SET active = $1, updated_at = $2
		WHERE id = $3`

	// queryAdjustBalance is relative; the row lock it takes serializes
	// concurrent movements on the account.
	queryAdjustBalance = `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1, updated_at = $2
		WHERE id = $3
		RETURNING balance`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO transactions (
			id, type, sender_id, receiver_id, amount, description, balance_before, balance_after,
			receiver_balance_before, receiver_balance_after, status, payment_reference, provider_reference,
			details, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`

	queryGetTransactionById = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	queryGetTransactionByReference = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE payment_reference = $1
		LIMIT 1`

	queryGetAccountTransactions = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (sender_id = $1 OR receiver_id = $1) AND ($2 = '' OR type = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	queryCountAccountTransactions = `
		SELECT COUNT(*)
		FROM transactions
		WHERE (sender_id = $1 OR receiver_id = $1) AND ($2 = '' OR type = $2)`

	queryListTransactions = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE ($1 = '' OR type = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	queryCountTransactions = `
		SELECT COUNT(*)
		FROM transactions
		WHERE ($1 = '' OR type = $1) AND ($2 = '' OR status = $2)`

	queryUpdateTransactionStatus = `
		UPDATE transactions
		SET status = $1, updated_at = $2
		WHERE id = $3`

	queryReconcileTransactions = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (sender_id = $1 OR receiver_id = $1) AND status = 'successful'`

	// Dashboard queries
	queryCountAccountsByState = `SELECT COUNT(*), COUNT(*) FILTER (WHERE active) FROM accounts`

	queryCountTransactionsByStatus = `SELECT status, COUNT(*) FROM transactions GROUP BY status`

	querySuccessfulVolumeByType = `
		SELECT type, COUNT(*), COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE status = 'successful'
		GROUP BY type`

	queryTotalBalance = `SELECT COALESCE(SUM(balance), 0) FROM accounts`

	queryRecentTransactions = `
		SELECT ` + transactionColumns + `
		FROM transactions
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	// Outbox queries
	queryInsertOutbox = `
		INSERT INTO outbox_events (id, kind, transaction_id, payload, status, attempts, last_error, next_attempt_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', 0, '', $5, $5, $5)`

	// queryClaimOutbox leases due events; SKIP LOCKED lets several pollers
	// share the table.
	queryClaimOutbox = `
		UPDATE outbox_events
		SET next_attempt_at = $1
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = 'pending' AND next_attempt_at <= $2
			ORDER BY created_at, id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + outboxColumns

	queryMarkOutboxSent = `
		UPDATE outbox_events
		SET status = 'sent', attempts = attempts + 1, last_error = '', updated_at = $1
		WHERE id = $2`

	queryMarkOutboxRetry = `
		UPDATE outbox_events
		SET status = $1, attempts = attempts + 1, last_error = $2, next_attempt_at = $3, updated_at = $4
		WHERE id = $5`

	queryPurgeOutbox = `DELETE FROM outbox_events WHERE status = 'sent' AND updated_at < $1`

	// Admin queries
	queryInsertAdmin = `
		INSERT INTO admins (id, email, first_name, last_name, password_hash, role, status, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`

	queryGetAdminById = `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`

	queryGetAdminByEmail = `SELECT ` + adminColumns + ` FROM admins WHERE email = $1`

	queryListAdmins = `SELECT ` + adminColumns + ` FROM admins ORDER BY created_at DESC, id DESC`

	queryUpdateAdminStatus = `UPDATE admins SET status = $1, updated_at = $2 WHERE id = $3`

	queryRecordAdminLogin = `UPDATE admins SET last_login = $1, updated_at = $1 WHERE id = $2`
)
