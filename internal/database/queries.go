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

// Queries are written with ? placeholders and rebound per dialect.
const (
	// Ledger queries
	queryGetLedgerEntry = `
		SELECT user_id, coins, premium_until, version, created_at, updated_at
		FROM ledger_entries
		WHERE user_id = ?`

	queryListLedgerEntries = `
		SELECT user_id, coins, premium_until, version, created_at, updated_at
		FROM ledger_entries
		ORDER BY updated_at DESC`

	queryInsertLedgerEntry = `
		INSERT INTO ledger_entries (user_id, coins, premium_until, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)`

	queryUpdateLedgerEntry = `
		UPDATE ledger_entries
		SET coins = ?, premium_until = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?`

	// Transaction log queries
	queryInsertTransaction = `
		INSERT INTO token_transactions (id, user_id, amount, transaction_type, description, source, reference_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, user_id, amount, transaction_type, description, source, reference_id, created_at
		FROM token_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	queryCountTransactions = `
		SELECT COUNT(*)
		FROM token_transactions
		WHERE user_id = ?`

	queryReconcileCoins = `
		SELECT COALESCE(SUM(CASE WHEN transaction_type = 'spend' THEN -amount ELSE amount END), 0)
		FROM token_transactions
		WHERE user_id = ?`

	// Donation intent queries
	queryInsertIntent = `
		INSERT INTO donation_intents (id, user_id, donation_reference, amount, nonprofit_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetIntentByReference = `
		SELECT id, user_id, donation_reference, amount, nonprofit_id, status, created_at, updated_at, completed_at
		FROM donation_intents
		WHERE donation_reference = ?`

	queryMarkIntentCompleted = `
		UPDATE donation_intents
		SET status = 'completed', completed_at = ?, updated_at = ?
		WHERE donation_reference = ? AND status <> 'completed'`

	queryListStaleIntents = `
		SELECT id, user_id, donation_reference, amount, nonprofit_id, status, created_at, updated_at, completed_at
		FROM donation_intents
		WHERE status IN ('initiated', 'pending') AND created_at < ?
		ORDER BY created_at`

	queryExpireIntent = `
		UPDATE donation_intents
		SET status = 'expired', updated_at = ?
		WHERE donation_reference = ? AND status IN ('initiated', 'pending')`

	// Donation record queries
	queryInsertDonationRecord = `
		INSERT INTO donation_records (
			id, user_id, donation_reference, nonprofit_id, nonprofit_name, amount,
			premium_days, premium_until, tokens_granted, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetDonationRecord = `
		SELECT id, user_id, donation_reference, nonprofit_id, nonprofit_name, amount,
		       premium_days, premium_until, tokens_granted, created_at
		FROM donation_records
		WHERE donation_reference = ?`

	queryListDonationRecords = `
		SELECT id, user_id, donation_reference, nonprofit_id, nonprofit_name, amount,
		       premium_days, premium_until, tokens_granted, created_at
		FROM donation_records
		WHERE user_id = ?
		ORDER BY created_at DESC`

	// View queries
	queryCountViewsForDay = `
		SELECT COUNT(*)
		FROM experience_views
		WHERE user_id = ? AND view_date = ?`

	queryCountItemViewsForDay = `
		SELECT COUNT(*)
		FROM experience_views
		WHERE user_id = ? AND experience_id = ? AND view_date = ?`

	// Serializes quota checks per user on postgres; sqlite already holds the
	// write lock from BEGIN IMMEDIATE.
	queryLockUserViews = `SELECT pg_advisory_xact_lock(hashtext(?))`

	queryInsertView = `
		INSERT INTO experience_views (id, user_id, experience_id, experience_type, view_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, experience_id, view_date) DO NOTHING`
)
